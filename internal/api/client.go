package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"catalog/internal/models"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	httpTimeoutEnvKey  = "CATALOG_HTTP_TIMEOUT"

	uploadFieldName = "file"
)

// Client is a simple HTTP client for the catalog API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Health(ctx)
	return err
}

func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &resp)
	return resp, err
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/api/info", nil, nil, &resp)
	return resp, err
}

func (c *Client) ListInstruments(ctx context.Context) ([]models.Instrument, error) {
	var resp []models.Instrument
	err := c.do(ctx, http.MethodGet, "/api/instruments", nil, nil, &resp)
	return resp, err
}

func (c *Client) UpsertInstrument(ctx context.Context, in models.Instrument) (models.Instrument, error) {
	var resp models.Instrument
	err := c.do(ctx, http.MethodPost, "/api/instruments", nil, in, &resp)
	return resp, err
}

func (c *Client) SeedInstruments(ctx context.Context, records []models.Instrument) (SeedResponse, error) {
	var resp SeedResponse
	err := c.do(ctx, http.MethodPost, "/api/instruments/seed", nil, records, &resp)
	return resp, err
}

func (c *Client) DeleteInstrument(ctx context.Context, id int64) (DeleteResponse, error) {
	var resp DeleteResponse
	err := c.do(ctx, http.MethodDelete, "/api/instruments/"+strconv.FormatInt(id, 10), nil, nil, &resp)
	return resp, err
}

// Purge deletes every record and blob. On a partial failure the returned
// response still carries the counts reached.
func (c *Client) Purge(ctx context.Context) (PurgeResponse, error) {
	var resp PurgeResponse
	err := c.do(ctx, http.MethodDelete, "/api/instruments", nil, nil, &resp)
	return resp, err
}

func (c *Client) ListFiles(ctx context.Context) ([]models.BlobFile, error) {
	var resp []models.BlobFile
	err := c.do(ctx, http.MethodGet, "/api/files", nil, nil, &resp)
	return resp, err
}

func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/files/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) GC(ctx context.Context, req GCRequest) (GCResponse, error) {
	var resp GCResponse
	endpoint := c.baseURL + "/api/admin/gc"
	payload, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return resp, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if !req.DryRun {
		httpReq.Header.Set("X-Confirm", "true")
	}
	err = c.send(httpReq, &resp)
	return resp, err
}

// UploadFile streams content as a multipart upload without buffering it.
func (c *Client) UploadFile(ctx context.Context, filename, contentType string, content io.Reader) (UploadResponse, error) {
	var resp UploadResponse

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreatePart(filePartHeader(filename, contentType))
		if err == nil {
			_, err = io.Copy(part, content)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/files", pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return resp, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	err = c.send(req, &resp)
	_ = pr.Close()
	return resp, err
}

// DownloadFile copies a stored blob into w and returns its content type.
func (c *Client) DownloadFile(ctx context.Context, name string, w io.Writer) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/files/"+url.PathEscape(name), nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", 0, decodeError(resp)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return "", n, err
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return "", n, fmt.Errorf("download %s: got %d of %d bytes", name, n, resp.ContentLength)
	}
	return resp.Header.Get("Content-Type"), n, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeErrorInto(resp, out)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	return decodeErrorInto(resp, nil)
}

// decodeErrorInto builds an APIError from the body. When out is non-nil
// the body is also decoded into it, so partial results are not lost.
func decodeErrorInto(resp *http.Response, out any) error {
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
	if readErr != nil {
		return apiErr
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
		apiErr.Code = errResp.Code
		apiErr.ErrorCode = errResp.ErrorCode
		apiErr.Message = errResp.Error
	}
	if out != nil {
		_ = json.Unmarshal(data, out)
	}
	return apiErr
}

func filePartHeader(filename, contentType string) textproto.MIMEHeader {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     uploadFieldName,
		"filename": filename,
	}))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	return header
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
