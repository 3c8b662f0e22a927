package ratelimit

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Limiter enforces a per-client request budget with a token bucket per IP.
type Limiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	maxTokens  float64
	refillRate float64 // tokens per second
	logger     *zap.Logger
	lastSweep  time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

const sweepInterval = 5 * time.Minute

func New(requestsPerMinute int, logger *zap.Logger) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &Limiter{
		buckets:    make(map[string]*bucket),
		maxTokens:  float64(requestsPerMinute),
		refillRate: float64(requestsPerMinute) / 60,
		logger:     logger,
		lastSweep:  time.Now(),
	}
}

func (l *Limiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.allow(c.IP()) {
			if l.logger != nil {
				l.logger.Warn("Rate limit exceeded", zap.String("ip", c.IP()))
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded",
			})
		}
		return c.Next()
	}
}

func (l *Limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.maxTokens, lastSeen: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * l.refillRate
	if b.tokens > l.maxTokens {
		b.tokens = l.maxTokens
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle long enough to be full again.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > sweepInterval {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
