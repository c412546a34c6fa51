package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeClock struct{ at time.Time }

func (f *fakeClock) now() time.Time { return f.at }

func newClockedLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{at: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(RateLimitConfig{Max: limit, Window: window})
	rl.now = clock.now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiterFixedWindow(t *testing.T) {
	rl, clock := newClockedLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		require.True(t, rl.Allow("k"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("k"))

	clock.at = clock.at.Add(59 * time.Second)
	assert.False(t, rl.Allow("k"), "window still open")

	clock.at = clock.at.Add(time.Second)
	assert.True(t, rl.Allow("k"), "new window")
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl, _ := newClockedLimiter(t, 1, time.Minute)

	assert.True(t, rl.Allow("user:a"))
	assert.False(t, rl.Allow("user:a"))
	assert.True(t, rl.Allow("user:b"))
}

func TestRateLimiterSweepDropsExpiredWindows(t *testing.T) {
	rl, clock := newClockedLimiter(t, 5, time.Minute)

	rl.Allow("old")
	clock.at = clock.at.Add(30 * time.Second)
	rl.Allow("fresh")

	clock.at = clock.at.Add(45 * time.Second)
	assert.Equal(t, 1, rl.sweep())

	rl.mu.Lock()
	_, kept := rl.windows["fresh"]
	rl.mu.Unlock()
	assert.True(t, kept)
}

func TestRateLimiterStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	limits := NewRateLimits()
	limits.Stop()
	limits.Stop()
}

func TestRateLimitPresets(t *testing.T) {
	limits := NewRateLimits()
	defer limits.Stop()

	tests := []struct {
		name string
		rl   *RateLimiter
		max  int
	}{
		{"claim", limits.Claim, 10},
		{"withdrawal", limits.Withdrawal, 3},
		{"session", limits.Session, 20},
		{"campaign", limits.Campaign, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.max; i++ {
				require.True(t, tt.rl.Allow("key"), "request %d", i+1)
			}
			assert.False(t, tt.rl.Allow("key"))
		})
	}
}

func claimApp(t *testing.T) *fiber.App {
	t.Helper()
	rl := NewClaimRateLimiter()
	t.Cleanup(rl.Stop)

	app := fiber.New()
	app.Post("/claim", RequireUser(), rl.Handler(), func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestClaimLimitIgnoresUserIDCase(t *testing.T) {
	app := claimApp(t)
	lower := "2b9c3f3e-6c1a-4f7e-9b1d-0a2f3c4d5e6f"
	spellings := []string{lower, strings.ToUpper(lower)}

	admitted, limited := 0, 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/claim", nil)
		req.Header.Set(HeaderUserID, spellings[i%2])

		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			admitted++
		case http.StatusTooManyRequests:
			limited++
			assert.NotEmpty(t, resp.Header.Get("Retry-After"))
		}
	}
	assert.Equal(t, 10, admitted)
	assert.Equal(t, 10, limited)
}

func TestKeyByUserIDFallsBackToIP(t *testing.T) {
	var key string
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		key = KeyByUserID(c)
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "2b9c3f3e-6c1a-4f7e-9b1d-0a2f3c4d5e6f")
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "ip:"), key)
}
