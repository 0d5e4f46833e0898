package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"catalog/internal/api"
	"catalog/internal/blobstore"
	"catalog/internal/models"
	"catalog/internal/store"
)

// dbFullMessage is the error string existing clients match on.
const dbFullMessage = api.DBFullMessage

func (s *Server) writeErrorReq(w http.ResponseWriter, r *http.Request, status int, err error) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}

	code := errorCode(status, err)
	numericCode := errorNumericCode(status, err)
	message := err.Error()

	fields := []any{"status", status, "code", code, "error_code", numericCode, "error", err}
	if r != nil {
		fields = append(fields, "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
	}

	switch {
	case status == http.StatusInsufficientStorage:
		s.log().Warn("storage capacity exhausted", fields...)
		message = dbFullMessage
	case status == http.StatusServiceUnavailable:
		s.log().Warn("database unavailable", fields...)
	case status >= 500:
		s.log().Error("request error", fields...)
	case status >= 400:
		s.log().Debug("request rejected", fields...)
	}

	s.writeJSON(w, status, api.ErrorResponse{Error: message, Code: code, ErrorCode: numericCode})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("write json response", "status", status, "error", err)
	}
}

type apiError struct {
	status  int
	code    string
	errCode int
	err     error
}

func (e apiError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e apiError) Unwrap() error {
	return e.err
}

func makeAPIError(status int, code string, errCode int, err error) error {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}

	var existing apiError
	if errors.As(err, &existing) {
		if existing.status != 0 {
			return existing
		}
	}

	return apiError{status: status, code: code, errCode: errCode, err: err}
}

func badRequest(err error) error {
	return badRequestCode(err, ErrCodeInvalidArgument)
}

func badRequestCode(err error, code int) error {
	return makeAPIError(http.StatusBadRequest, "invalid_argument", code, err)
}

func notFoundCode(err error, code int) error {
	return makeAPIError(http.StatusNotFound, "not_found", code, err)
}

func unavailable(err error) error {
	return makeAPIError(http.StatusServiceUnavailable, api.CodeUnavailable, ErrCodeUnavailable, err)
}

func capacityExhausted(err error) error {
	return makeAPIError(http.StatusInsufficientStorage, api.CodeCapacityExhausted, ErrCodeCapacityExhausted, err)
}

func internalError(err error) error {
	return makeAPIError(http.StatusInternalServerError, "internal", ErrCodeInternal, err)
}

func storeFailure(err error) error {
	return makeAPIError(http.StatusInternalServerError, "internal", ErrCodeStoreFailure, err)
}

// classifyStoreError maps storage failures onto the API error taxonomy.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr apiError
	switch {
	case errors.As(err, &apiErr):
		return err
	case errors.Is(err, models.ErrIDRequired):
		return badRequestCode(err, ErrCodeMissingRequired)
	case errors.Is(err, store.ErrCapacityExhausted):
		return capacityExhausted(err)
	case errors.Is(err, blobstore.ErrNotFound):
		return notFoundCode(err, ErrCodeBlobNotFound)
	case errors.Is(err, blobstore.ErrCorruptBlob):
		return makeAPIError(http.StatusInternalServerError, "internal", ErrCodeCorruptBlob, err)
	default:
		return storeFailure(err)
	}
}

func httpStatusFromError(err error) int {
	var apiErr apiError
	if errors.As(err, &apiErr) {
		return apiErr.status
	}
	return http.StatusInternalServerError
}

func errorCode(status int, err error) string {
	var apiErr apiError
	if errors.As(err, &apiErr) && apiErr.code != "" {
		return apiErr.code
	}
	switch status {
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusInternalServerError:
		return "internal"
	case http.StatusServiceUnavailable:
		return api.CodeUnavailable
	case http.StatusInsufficientStorage:
		return api.CodeCapacityExhausted
	default:
		return ""
	}
}

func errorNumericCode(status int, err error) int {
	var apiErr apiError
	if errors.As(err, &apiErr) && apiErr.errCode > 0 {
		return apiErr.errCode
	}
	return defaultErrorCodeByStatus(status)
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxJSONBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func classifyDecodeJSONError(err error) error {
	if err == nil {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return badRequestCode(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return badRequestCode(fmt.Errorf("invalid JSON payload"), ErrCodeInvalidJSON)
	}

	return badRequestCode(err, ErrCodeInvalidJSON)
}

func (s *Server) decodeJSONReq(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := s.decodeJSON(w, r, dst); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyDecodeJSONError(err))
		return false
	}
	return true
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorReq(w, r, httpStatusFromError(err), err)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	err = classifyStoreError(err)
	s.writeErrorReq(w, r, httpStatusFromError(err), err)
}

func requireRecordID(r *http.Request) (int64, error) {
	id, err := models.ParseInstrumentID(r.PathValue("id"))
	if err != nil {
		return 0, badRequestCode(err, ErrCodeInvalidID)
	}
	return id, nil
}

func requirePathValue(r *http.Request, key string) (string, error) {
	value := strings.TrimSpace(r.PathValue(key))
	if value == "" {
		return "", badRequestCode(fmt.Errorf("%s is required", key), ErrCodeMissingRequired)
	}
	return value, nil
}
