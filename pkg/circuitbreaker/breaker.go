package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrOpen is returned while the breaker is cooling down after repeated
// failures.
var ErrOpen = errors.New("circuit breaker is open")

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

func (s state) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker trips open after FailureThreshold consecutive failures, rejects
// calls for Cooldown, then lets a single probe through; the probe's outcome
// closes or re-opens it.
type Breaker struct {
	name             string
	failureThreshold int
	cooldown         time.Duration
	logger           *zap.Logger

	mu       sync.Mutex
	state    state
	failures int
	openedAt time.Time
	probing  bool
}

func New(name string, failureThreshold int, cooldown time.Duration, logger *zap.Logger) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		name:             name,
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		logger:           logger,
	}
}

func (b *Breaker) Execute(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if time.Since(b.openedAt) < b.cooldown {
			return ErrOpen
		}
		b.transition(stateHalfOpen)
		b.probing = true
		return nil
	case stateHalfOpen:
		if b.probing {
			return ErrOpen
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false

	if success {
		b.failures = 0
		if b.state != stateClosed {
			b.transition(stateClosed)
		}
		return
	}

	b.failures++
	if b.state == stateHalfOpen || b.failures >= b.failureThreshold {
		b.openedAt = time.Now()
		if b.state != stateOpen {
			b.transition(stateOpen)
		}
	}
}

func (b *Breaker) transition(to state) {
	from := b.state
	b.state = to
	if b.logger != nil {
		b.logger.Info("Circuit breaker state changed",
			zap.String("name", b.name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
			zap.Int("failures", b.failures),
		)
	}
}
