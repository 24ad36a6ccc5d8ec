package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrOpen is returned without calling through while a breaker is open.
var ErrOpen = eris.New("resilience: circuit open")

// Breaker stops calling a failing provider after Threshold consecutive
// failures and lets a single probe through once Cooldown has passed.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	probing  bool
	now      func() time.Time
}

// NewBreaker creates a breaker. Non-positive arguments select 5 failures
// and a 30s cooldown.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, now: time.Now}
}

// Open reports whether calls are currently rejected.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures >= b.threshold && b.now().Sub(b.openedAt) < b.cooldown
}

// Call runs fn unless the breaker is open.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := CallVal(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// CallVal is Call for calls that return a value.
func CallVal[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if !b.allow() {
		return zero, ErrOpen
	}
	v, err := fn(ctx)
	b.record(err)
	return v, err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < b.threshold {
		return true
	}
	if b.probing || b.now().Sub(b.openedAt) < b.cooldown {
		return false
	}
	b.probing = true
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err == nil {
		if b.failures >= b.threshold {
			zap.L().Info("resilience: circuit closed", zap.String("breaker", b.name))
		}
		b.failures = 0
		return
	}

	b.failures++
	if b.failures >= b.threshold {
		if b.failures == b.threshold {
			zap.L().Warn("resilience: circuit opened", zap.String("breaker", b.name), zap.Error(err))
		}
		b.openedAt = b.now()
	}
}
