package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
)

// sweepInterval is how often expired windows are dropped from memory.
const sweepInterval = 5 * time.Minute

// RateLimitConfig describes one fixed-window limit.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
	KeyFn  func(c fiber.Ctx) string
}

type window struct {
	count   int
	resetAt time.Time
}

// verdict is the outcome of counting one request against its window.
type verdict struct {
	allowed   bool
	remaining int
	resetAt   time.Time
}

// RateLimiter is an in-memory fixed-window limiter. Stop releases its sweeper goroutine.
type RateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*window

	stopOnce sync.Once
	stopCh   chan struct{}
	stopped  chan struct{}
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFn == nil {
		cfg.KeyFn = KeyByIP
	}
	rl := &RateLimiter{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[string]*window),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go rl.sweepLoop(sweepInterval)
	return rl
}

// Allow counts one request for key and reports whether it fits the window.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.take(key).allowed
}

// Handler enforces the limit, keyed by cfg.KeyFn.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		v := rl.take(rl.cfg.KeyFn(c))

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(v.resetAt.Unix(), 10))

		if !v.allowed {
			retryAfter := int(v.resetAt.Sub(rl.now()).Seconds()) + 1
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return ErrorResponse(c, fiber.StatusTooManyRequests, "RATE_LIMITED",
				fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter))
		}
		return c.Next()
	}
}

// Stop ends the sweeper. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
		<-rl.stopped
	})
}

func (rl *RateLimiter) take(key string) verdict {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(rl.cfg.Window)}
		rl.windows[key] = w
	}
	w.count++

	return verdict{
		allowed:   w.count <= rl.cfg.Max,
		remaining: max(rl.cfg.Max-w.count, 0),
		resetAt:   w.resetAt,
	}
}

func (rl *RateLimiter) sweep() int {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, key)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) sweepLoop(interval time.Duration) {
	defer close(rl.stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopCh:
			return
		}
	}
}

// KeyByIP keys on the client IP.
func KeyByIP(c fiber.Ctx) string {
	return "ip:" + c.IP()
}

// KeyByUserID keys on the ID normalized by RequireUser, so every spelling of one
// UUID shares a bucket. Requests without a user fall back to the IP.
func KeyByUserID(c fiber.Ctx) string {
	if uid := UserID(c); uid != "" {
		return "user:" + uid
	}
	return KeyByIP(c)
}

// RateLimits is the set of limiters the API routes use.
type RateLimits struct {
	Claim      *RateLimiter // 10/min per user
	Withdrawal *RateLimiter // 3/min per user
	Session    *RateLimiter // 20/min per IP
	Campaign   *RateLimiter // 60/min per IP
}

func NewRateLimits() *RateLimits {
	return &RateLimits{
		Claim:      NewClaimRateLimiter(),
		Withdrawal: NewWithdrawalRateLimiter(),
		Session:    NewSessionRateLimiter(),
		Campaign:   NewCampaignRateLimiter(),
	}
}

// Stop stops every limiter in the set.
func (l *RateLimits) Stop() {
	for _, rl := range []*RateLimiter{l.Claim, l.Withdrawal, l.Session, l.Campaign} {
		rl.Stop()
	}
}

func NewClaimRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Max: 10, Window: time.Minute, KeyFn: KeyByUserID})
}

func NewWithdrawalRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Max: 3, Window: time.Minute, KeyFn: KeyByUserID})
}

func NewSessionRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Max: 20, Window: time.Minute, KeyFn: KeyByIP})
}

func NewCampaignRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Max: 60, Window: time.Minute, KeyFn: KeyByIP})
}
