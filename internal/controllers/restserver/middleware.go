package restserver

import (
	"context"
	"net/http"
	"time"

	"github.com/chrissnell/celestial/internal/log"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
)

const requestIDHeader = "X-Request-ID"

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDFromContext returns the request ID set by the middleware
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusRecorder captures the status code and body size of a response
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// requestIDMiddleware propagates X-Request-ID, minting a UUID when absent
func (c *Controller) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLogMiddleware writes one structured log line per request
func (c *Controller) accessLogMiddleware(next http.Handler) http.Handler {
	logger := c.logger.Desugar()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		log.LogHTTPRequest(logger, log.HTTPLogEntry{
			RequestID:  RequestIDFromContext(r.Context()),
			Method:     r.Method,
			Path:       r.URL.Path,
			Status:     rec.status,
			Duration:   time.Since(start),
			Size:       rec.size,
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
		})
	})
}

// rateLimitMiddleware answers 429 once a client exhausts its bucket
func (c *Controller) rateLimitMiddleware(next http.Handler) http.Handler {
	if c.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.limiter.Allow(clientKey(r), time.Now()) {
			w.Header().Set("Retry-After", "1")
			if err := c.handlers.formatter.WriteError(w, r, http.StatusTooManyRequests, "rate limit exceeded"); err != nil {
				c.logger.Errorf("error writing rate limit response: %v", err)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsHandler wraps h with the configured origin policy
func (c *Controller) corsHandler(h http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(c.settings.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
		handlers.AllowCredentials(),
	)(h)
}
