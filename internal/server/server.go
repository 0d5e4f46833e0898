package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"catalog/internal/blobstore"
	"catalog/internal/store"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 2 * time.Minute
	writeTimeout      = 5 * time.Minute
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second

	defaultMaxUploadBytes     = 10 << 20 // 10 MiB
	defaultMultipartMaxMemory = 8 << 20  // 8 MiB
	defaultMaxJSONBytes       = 20 << 20 // 20 MiB
	defaultGCGrace            = time.Hour
)

// Options holds request limits and maintenance policy.
type Options struct {
	MaxUploadBytes     int64
	MultipartMaxMemory int64
	MaxJSONBytes       int64
	GCGrace            time.Duration
}

// DefaultOptions returns the limits used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxUploadBytes:     defaultMaxUploadBytes,
		MultipartMaxMemory: defaultMultipartMaxMemory,
		MaxJSONBytes:       defaultMaxJSONBytes,
		GCGrace:            defaultGCGrace,
	}
}

// Server wraps HTTP handlers for the catalog API.
type Server struct {
	addr    string
	store   store.CatalogStore
	records *RecordService
	files   *FileService
	logger  *slog.Logger
	opts    Options
}

// New creates a new server instance.
func New(addr string, catalog store.CatalogStore, blobs blobstore.BlobStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:    addr,
		store:   catalog,
		records: NewRecordService(catalog, catalog),
		files:   NewFileService(blobs, catalog, catalog),
		logger:  logger,
	}
	s.Configure(DefaultOptions())
	return s
}

// Configure overrides request limits. Zero values keep the defaults.
func (s *Server) Configure(opts Options) {
	defaults := DefaultOptions()
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaults.MaxUploadBytes
	}
	if opts.MultipartMaxMemory <= 0 {
		opts.MultipartMaxMemory = defaults.MultipartMaxMemory
	}
	if opts.MaxJSONBytes <= 0 {
		opts.MaxJSONBytes = defaults.MaxJSONBytes
	}
	if opts.GCGrace <= 0 {
		opts.GCGrace = defaults.GCGrace
	}
	s.opts = opts
	s.files.gcGrace = opts.GCGrace
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log().Info("starting server", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.log().Info("shutting down server", "addr", s.addr)
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ListenAddr converts a base API URL into a listen address. Hosts other
// than loopback need allowRemote.
func ListenAddr(apiURL string, allowRemote bool) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host, allowRemote) {
			return "", fmt.Errorf("remote listen host %q requires allow_remote = true", host)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host, allowRemote) {
		return "", fmt.Errorf("remote listen host %q requires allow_remote = true", host)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string, allowRemote bool) bool {
	if host == "" || allowRemote {
		return true
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
