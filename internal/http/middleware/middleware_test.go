package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"farcal/internal/http/middleware"
)

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.7:4242"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_Allowed(t *testing.T) {
	l := &stubLimiter{allow: true}
	w := serve(newTestRouter(middleware.RateLimit(l)), "/test")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if len(l.keys) != 1 || l.keys[0] != "10.0.0.7" {
		t.Errorf("expected limiter keyed by client ip, got %v", l.keys)
	}
}

func TestRateLimit_Rejected(t *testing.T) {
	w := serve(newTestRouter(middleware.RateLimit(&stubLimiter{allow: false})), "/test")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	w := serve(newTestRouter(middleware.RateLimit(&stubLimiter{err: errors.New("redis down")})), "/test")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 when limiter errors, got %d", w.Code)
	}
}

func TestRateLimit_NilLimiter(t *testing.T) {
	w := serve(newTestRouter(middleware.RateLimit(nil)), "/test")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRecovery(t *testing.T) {
	w := serve(newTestRouter(middleware.Logging(), middleware.Recovery()), "/panic")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if got := w.Body.String(); got != `{"error":"internal error"}` {
		t.Errorf("unexpected body %s", got)
	}
}
