package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/twin-insights/internal/request"
)

// ErrorResponse is the JSON body written by the middleware layer. It matches
// the handlers' error envelope plus the path and request ID.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler recovers handler panics. The client gets a generic 500 unless
// the handler already started its response, in which case the connection is
// left to the server. http.ErrAbortHandler is re-raised untouched.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				logger.Error("panic_recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", request.RequestIDFromContext(r.Context())),
					zap.Bool("response_started", rw.wroteHeader),
					zap.Stack("stack"),
				)
				if rw.wroteHeader {
					return
				}
				writeErrorResponse(w, r, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred", logger)
			}()

			next.ServeHTTP(rw, r)
		})
	}
}

// NotFound answers unmatched routes with the JSON error envelope
func NotFound(logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, r, http.StatusNotFound, "Not Found", "No route for "+r.Method+" "+r.URL.Path, logger)
	})
}

// MethodNotAllowed answers known paths called with the wrong method
func MethodNotAllowed(logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported on "+r.URL.Path, logger)
	})
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, errorType, message string, logger *zap.Logger) {
	body := ErrorResponse{
		Error:     errorType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
		RequestID: request.RequestIDFromContext(r.Context()),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Warn("error_response_encode_failed",
			zap.Int("status_code", status),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}
