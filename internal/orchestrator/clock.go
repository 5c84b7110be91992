package orchestrator

import "time"

// Clock abstracts time for the scheduler so tests can drive admission
// deterministically.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of time.Ticker the scheduler uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// realClock is the production Clock backed by the time package.
type realClock struct{}

// NewClock returns the production clock.
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{inner: time.NewTicker(d)}
}

type realTicker struct {
	inner *time.Ticker
}

func (t *realTicker) C() <-chan time.Time { return t.inner.C }
func (t *realTicker) Stop()               { t.inner.Stop() }
