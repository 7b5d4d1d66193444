package auth

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

// LoginLimiter throttles login attempts with a token bucket per client IP.
type LoginLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewLoginLimiter allows perMinute attempts with the given burst.
func NewLoginLimiter(perMinute, burst int) *LoginLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &LoginLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		ttl:     5 * time.Minute,
		now:     time.Now,
	}
}

// Allow consumes one attempt for key.
func (l *LoginLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.ttl {
			delete(l.buckets, k)
		}
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Handle is a fiber middleware rejecting throttled clients.
func (l *LoginLimiter) Handle(c *fiber.Ctx) error {
	if !l.Allow(c.IP()) {
		return apperrors.NewRateLimited("too many login attempts")
	}
	return c.Next()
}
