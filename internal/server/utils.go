package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"solarguardian/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
)

// RequestIDHeader carries the per-request correlation ID
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = 0

// RequestIDFrom returns the request ID stored by the middleware, if any
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID reuses a caller-supplied X-Request-ID or mints a UUID, stores it
// in the request context and echoes it on the response
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// accessLog is a handlers.LogFormatter that writes through the service
// logger instead of the supplied writer
func (s *Server) accessLog(_ io.Writer, params handlers.LogFormatterParams) {
	fields := logger.Fields{
		"method":      params.Request.Method,
		"path":        params.URL.Path,
		"status":      params.StatusCode,
		"bytes":       params.Size,
		"duration_ms": time.Since(params.TimeStamp).Milliseconds(),
		"remote":      params.Request.RemoteAddr,
		"request_id":  RequestIDFrom(params.Request.Context()),
	}
	if params.StatusCode >= http.StatusInternalServerError {
		s.log.Warn("HTTP request", fields)
		return
	}
	s.log.Info("HTTP request", fields)
}

// recoveryLogger adapts the service logger to handlers.RecoveryHandlerLogger
type recoveryLogger struct {
	log *logger.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error("Recovered from panic", fmt.Errorf("%s", fmt.Sprint(v...)))
}

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
