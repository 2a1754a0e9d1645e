package api

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/semenovm/ucp-checkout/internal/agent"
	"github.com/semenovm/ucp-checkout/internal/idempotency"
	"github.com/semenovm/ucp-checkout/internal/metrics"
)

// AgentMiddleware parses the UCP-Agent header and stores the identity
// in the request context. A header requesting a protocol version newer
// than this server speaks is rejected outright.
func AgentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := agent.ParseHeader(r.Header.Get("UCP-Agent"))
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(agent.WithIdentity(r.Context(), id)))
	})
}

// MetricsMiddleware records request counts and latency by chi route
// pattern.
func MetricsMiddleware(m *metrics.ServerMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			m.Requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
			m.Latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// bufferingRecorder captures the full response so it can be stored and
// replayed byte for byte.
type bufferingRecorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferingRecorder() *bufferingRecorder {
	return &bufferingRecorder{header: make(http.Header), status: http.StatusOK}
}

func (r *bufferingRecorder) Header() http.Header { return r.header }

func (r *bufferingRecorder) WriteHeader(status int) { r.status = status }

func (r *bufferingRecorder) Write(p []byte) (int, error) { return r.body.Write(p) }

// Idempotent wraps a mutating handler with idempotency key handling.
// Every response, errors included, is stored under (method+path, key)
// and replayed on retries with the same body. A retry with a different
// body is a conflict.
func Idempotent(store idempotency.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				respondError(w, http.StatusBadRequest, "Idempotency-Key header is required")
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				respondError(w, http.StatusBadRequest, "failed to read request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			endpoint := r.Method + " " + r.URL.Path
			fingerprint := idempotency.Fingerprint(body)

			rec, reserved, err := store.LookupOrReserve(r.Context(), endpoint, key)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "idempotency store unavailable")
				return
			}
			if rec != nil {
				if rec.Fingerprint != fingerprint {
					respondError(w, http.StatusConflict, "Idempotency-Key reused with a different request body")
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(rec.StatusCode)
				w.Write(rec.Body)
				return
			}
			if !reserved {
				respondError(w, http.StatusInternalServerError, "idempotency store unavailable")
				return
			}

			completed := false
			defer func() {
				if !completed {
					store.Release(r.Context(), endpoint, key)
				}
			}()

			buf := newBufferingRecorder()
			next.ServeHTTP(buf, r)

			stored := &idempotency.Record{
				Endpoint:    endpoint,
				Key:         key,
				Fingerprint: fingerprint,
				StatusCode:  buf.status,
				Body:        buf.body.Bytes(),
			}
			if err := store.Complete(r.Context(), stored); err == nil {
				completed = true
			}

			for k, vals := range buf.header {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
			w.WriteHeader(buf.status)
			w.Write(buf.body.Bytes())
		})
	}
}

// RequireSimulationSecret guards the testing surface behind a shared
// secret header.
func RequireSimulationSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" || r.Header.Get("Simulation-Secret") != secret {
				respondError(w, http.StatusForbidden, "invalid simulation secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
