package server

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/logging"
	httperrors "github.com/gokatarajesh/question-bank/pkg/http/errors"
)

const requestIDHeader = "X-Request-ID"

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		if w.status == 0 {
			w.status = http.StatusSwitchingProtocols
		}
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("server: underlying ResponseWriter does not support hijacking")
}

// RequestLogger attaches a request-scoped logger to the context, logs one line
// per request and turns panics into 500s.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			reqLogger := logger.With().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()
			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()

			defer func() {
				if rec := recover(); rec != nil {
					reqLogger.Error().Interface("panic", rec).Msg("handler panicked")
					if sw.status == 0 {
						httperrors.RespondInternalError(sw, "Internal server error")
					}
				}

				status := sw.status
				if status == 0 {
					status = http.StatusOK
				}
				evt := reqLogger.Info()
				if status >= http.StatusInternalServerError {
					evt = reqLogger.Error()
				} else if status >= http.StatusBadRequest {
					evt = reqLogger.Warn()
				}
				evt.Int("status", status).
					Int("bytes", sw.bytes).
					Dur("duration", time.Since(start)).
					Msg("http request")
			}()

			next.ServeHTTP(sw, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))
		})
	}
}
