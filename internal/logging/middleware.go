package logging

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const RequestIDHeader = "X-Request-Id"

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *StatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *StatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware attaches a request-scoped logger to the context and logs
// one line per request. Handlers read it back with zerolog.Ctx.
func Middleware(base zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)

		l := base.With().Str(REQUEST_ID, reqID).Logger()
		ctx := l.WithContext(r.Context())

		rec := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		ev := l.Info()
		if rec.Status >= http.StatusInternalServerError {
			ev = l.Error()
		}
		ev.Str(METHOD, r.Method).
			Str(PATH, r.URL.Path).
			Int(STATUS, rec.Status).
			Dur(DURATION, time.Since(start)).
			Msg("request")
	})
}
