package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMaxBodySize(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	t.Run("within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/invoicing/orders", strings.NewReader("0123456789"))
		rec := httptest.NewRecorder()
		MaxBodySize(16)(echo).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("declared length over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/invoicing/orders", strings.NewReader(strings.Repeat("x", 32)))
		rec := httptest.NewRecorder()
		MaxBodySize(16)(echo).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, domain.ETOOLARGE, decodeErrorBody(t, rec)["code"])
	})

	t.Run("streamed body over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/invoicing/orders", strings.NewReader(strings.Repeat("x", 32)))
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		MaxBodySize(16)(echo).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("no body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/invoicing/orders/1", nil)
		rec := httptest.NewRecorder()
		MaxBodySize()(echo).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestTimeout(t *testing.T) {
	t.Run("fast handler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/invoicing/reports/general", nil)
		Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("slow handler", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/invoicing/reports/general", nil)
		Timeout(20*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			<-release
		})).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, domain.EUNAVAILABLE, decodeErrorBody(t, rec)["code"])
	})
}

func TestSecurityHeaders(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig()
	cfg.HSTSMaxAge = 3600

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	h := rec.Header()
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", h.Get("Referrer-Policy"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", h.Get("Content-Security-Policy"))
	assert.Equal(t, "max-age=3600; includeSubDomains", h.Get("Strict-Transport-Security"))
}
