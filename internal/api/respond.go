package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	serrors "github.com/matzehuels/stylesync/pkg/errors"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    serrors.Code `json:"code"`
	Message string       `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code serrors.Code) int {
	switch code {
	case serrors.ErrCodeInvalidInput, serrors.ErrCodeInvalidStyle, serrors.ErrCodeInvalidScene,
		serrors.ErrCodeInvalidPanel:
		return http.StatusBadRequest
	case serrors.ErrCodeInvalidState:
		return http.StatusConflict
	case serrors.ErrCodeNotFound, serrors.ErrCodeLayerNotFound, serrors.ErrCodeSnapshotNotFound:
		return http.StatusNotFound
	case serrors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	case serrors.ErrCodeBackend:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err. Uncoded errors are reported as internal errors
// without leaking their text.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := serrors.GetCode(err)
	body := errorBody{Code: code, Message: serrors.UserMessage(err)}
	if code == "" || code == serrors.ErrCodeInternal {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		body = errorBody{Code: serrors.ErrCodeInternal, Message: "internal error"}
	}
	writeJSON(w, statusFor(body.Code), body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return serrors.Wrap(serrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// pathParam returns a URL parameter with percent-escapes removed.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func intParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, serrors.New(serrors.ErrCodeInvalidInput, "%s: not an integer: %q", name, raw)
	}
	return n, nil
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			kv := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", middleware.GetReqID(r.Context()),
			}
			if status >= http.StatusInternalServerError {
				logger.Warn("request", kv...)
				return
			}
			logger.Debug("request", kv...)
		})
	}
}

func (s *Server) requireSnapshots(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.snapshots == nil {
			s.writeError(w, r, serrors.New(serrors.ErrCodeUnsupported, "snapshots are not configured"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// etag quotes a fingerprint for the ETag header.
func etag(fingerprint string) string { return fmt.Sprintf("%q", fingerprint) }
