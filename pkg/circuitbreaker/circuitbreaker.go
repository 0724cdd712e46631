package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker is rejecting calls. Callers such as
// the outbox processor treat it like any other transient publish failure and
// leave the event pending for a later poll.
var ErrOpen = errors.New("circuit breaker is open")

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Settings configures a breaker guarding an outbound dependency, typically
// the Redis event publisher.
type Settings struct {
	// Name identifies the guarded dependency in logs.
	Name string
	// FailureThreshold is the number of consecutive failures that trips the
	// breaker open.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before allowing a single
	// trial call through.
	Cooldown time.Duration
}

// CircuitBreaker sheds calls to a failing dependency. After
// FailureThreshold consecutive failures it rejects everything for Cooldown,
// then lets one call through; success closes it again, failure re-opens it.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	cooldown         time.Duration

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	state       State
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	return &CircuitBreaker{
		name:             settings.Name,
		failureThreshold: settings.FailureThreshold,
		cooldown:         settings.Cooldown,
		state:            StateClosed,
	}
}

// Execute runs fn unless the breaker is open, folding the result into the
// breaker state.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if time.Since(cb.lastFailure) <= cb.cooldown {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.state = StateHalfOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
			cb.state = StateOpen
		}
		return err
	}

	cb.state = StateClosed
	cb.failures = 0
	return nil
}

// State reports the current breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
