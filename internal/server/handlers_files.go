package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"catalog/internal/api"
	"catalog/internal/blobstore"
)

const (
	uploadFieldName = "file"
	// multipartOverhead leaves room for boundaries and part headers on top
	// of the file itself.
	multipartOverhead = 1 << 20
	sniffLen          = 512
)

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.opts.MultipartMaxMemory); err != nil {
		s.writeServiceError(w, r, s.classifyMultipartError(err))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.log().Warn("remove multipart temp files", "error", err)
		}
	}()

	part, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		s.writeServiceError(w, r, s.classifyMultipartError(err))
		return
	}
	defer part.Close()

	if header.Size > s.opts.MaxUploadBytes {
		s.writeServiceError(w, r, badRequestCode(
			fmt.Errorf("file exceeds %d bytes", s.opts.MaxUploadBytes), ErrCodeRequestTooLarge))
		return
	}

	content, contentType, err := partContent(part, header)
	if err != nil {
		s.writeServiceError(w, r, badRequestCode(fmt.Errorf("read upload: %w", err), ErrCodeInvalidArgument))
		return
	}

	file, err := s.files.Upload(r.Context(), UploadInput{
		OriginalName: header.Filename,
		ContentType:  contentType,
	}, content)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.log().Info("file uploaded", "id", file.ID, "name", file.Filename, "size", file.Length)
	s.writeJSON(w, http.StatusOK, api.NewUploadResponse(file))
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.files.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	name, err := requirePathValue(r, "name")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	content, err := s.files.Open(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer content.Source.Close()

	header := w.Header()
	header.Set("Content-Type", content.ContentType)
	header.Set("Content-Length", strconv.FormatInt(content.File.Length, 10))
	if disposition := contentDisposition(content.File.OriginalName); disposition != "" {
		header.Set("Content-Disposition", disposition)
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, blobstore.NewReader(r.Context(), content.Source))
	if err != nil {
		// headers are already sent; the client sees a short body
		s.log().Error("download interrupted", "name", name, "written", n, "size", content.File.Length, "error", err)
	}
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, err := requirePathValue(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.files.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{Success: true, ID: id})
}

func (s *Server) classifyMultipartError(err error) error {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return badRequestCode(fmt.Errorf("file exceeds %d bytes", s.opts.MaxUploadBytes), ErrCodeRequestTooLarge)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return badRequestCode(fmt.Errorf("no file uploaded"), ErrCodeMissingFile)
	default:
		return badRequest(fmt.Errorf("invalid multipart body: %w", err))
	}
}

// partContent returns the part's content type, sniffing the first bytes
// when the client did not send one.
func partContent(part multipart.File, header *multipart.FileHeader) (io.Reader, string, error) {
	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType != "" {
		return part, contentType, nil
	}
	br := bufio.NewReaderSize(part, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, "", err
	}
	if len(head) == 0 {
		return br, "", nil
	}
	return br, http.DetectContentType(head), nil
}

func contentDisposition(originalName string) string {
	if strings.TrimSpace(originalName) == "" {
		return ""
	}
	return mime.FormatMediaType("inline", map[string]string{"filename": originalName})
}
