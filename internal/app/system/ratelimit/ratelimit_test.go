package ratelimit_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/stratacrm/internal/app/system/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLimiter(t *testing.T, limit int, d time.Duration, now *time.Time) *ratelimit.Limiter {
	t.Helper()
	l := ratelimit.New(limit, d)
	l.Now = func() time.Time { return *now }
	t.Cleanup(l.Stop)
	return l
}

func TestLimiter_WindowResets(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(t, 2, time.Minute, &now)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.Equal(t, time.Minute, l.RetryAfter("a"))

	// Keys are independent.
	assert.True(t, l.Allow("b"))
	assert.Zero(t, l.RetryAfter("c"))

	now = now.Add(20 * time.Second)
	assert.Equal(t, 40*time.Second, l.RetryAfter("a"))

	now = now.Add(41 * time.Second)
	assert.Zero(t, l.RetryAfter("a"))
	assert.True(t, l.Allow("a"))
}

func TestLimitedError(t *testing.T) {
	err := fmt.Errorf("export: %w", &ratelimit.LimitedError{Wait: 2100 * time.Millisecond})
	assert.ErrorIs(t, err, ratelimit.ErrLimited)

	var le *ratelimit.LimitedError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 3*time.Second, le.RetryAfter())
	assert.Contains(t, err.Error(), "retry in 3s")

	assert.Equal(t, time.Second, (&ratelimit.LimitedError{}).RetryAfter())
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	l := ratelimit.New(1, time.Second)
	l.Stop()
	l.Stop()
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ratelimit.ClientIP(r))

	r.Header.Set("X-Real-IP", " 10.0.0.2 ")
	assert.Equal(t, "10.0.0.2", ratelimit.ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.3")
	assert.Equal(t, "203.0.113.7", ratelimit.ClientIP(r))
}

func TestByIP(t *testing.T) {
	h := ratelimit.ByIP(1, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	require.Equal(t, http.StatusNoContent, req("192.0.2.1").Code)
	rec := req("192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, req("192.0.2.2").Code)
}
