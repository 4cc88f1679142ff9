package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRecovery(t *testing.T) {
	h := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/v1/runs", "/v1/runs"},
		{"/v1/runs/0c9a2f4e-9e1b-4a7d-9d22-9f6a1b2c3d4e", "/v1/runs/:id"},
		{"/v1/runs/0c9a2f4e-9e1b-4a7d-9d22-9f6a1b2c3d4e/feedback", "/v1/runs/:id/feedback"},
		{"/v1/runs/12345", "/v1/runs/:id"},
		{"/v1/runs/deadbeef01", "/v1/runs/:id"},
		{"/v1/runs/my-named-run", "/v1/runs/my-named-run"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePath(tt.in), tt.in)
	}
}

func TestRequestID(t *testing.T) {
	t.Run("generated", func(t *testing.T) {
		var ctxID string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxID = RequestIDFromContext(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		id := rec.Header().Get("X-Request-ID")
		assert.True(t, strings.HasPrefix(id, "req-"), id)
		assert.Equal(t, id, ctxID)
	})

	t.Run("preserved", func(t *testing.T) {
		h := RequestID()(okHandler())
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "client-supplied")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, "client-supplied", rec.Header().Get("X-Request-ID"))
	})
}

func TestRequestIDFromContextMissing(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders()(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}

func TestCORS(t *testing.T) {
	t.Run("allowed origin", func(t *testing.T) {
		h := CORS([]string{"https://app.example"})(okHandler())
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://app.example")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin gets no headers", func(t *testing.T) {
		h := CORS([]string{"https://app.example"})(okHandler())
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://evil.example")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight for allowed origin", func(t *testing.T) {
		h := CORS([]string{"https://app.example"})(okHandler())
		r := httptest.NewRequest(http.MethodOptions, "/", nil)
		r.Header.Set("Origin", "https://app.example")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("empty allowlist refuses preflight", func(t *testing.T) {
		h := CORS(nil)(okHandler())
		r := httptest.NewRequest(http.MethodOptions, "/", nil)
		r.Header.Set("Origin", "https://anywhere.example")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("same-origin request passes", func(t *testing.T) {
		h := CORS(nil)(okHandler())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimiter(ctx, 1, 2, zap.NewNop())(okHandler())

	send := func(addr string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	// Burst of 2 is allowed, the third request is rejected.
	require.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	require.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1234"))

	// Limits are per client IP.
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"))
}
