// Package fake is an in-memory peripheral for tests and dry runs.
package fake

import (
	"sync"

	"github.com/coreman2200/neoled/peripheral"
)

// Adapter records everything the driver asks of the hardware. Set the Err
// fields to make the matching call fail.
type Adapter struct {
	mu sync.Mutex

	AcquireErr error
	WriteErr   error
	FlushErr   error
	ReleaseErr error

	// Acquired holds the config of every successful Acquire.
	Acquired []peripheral.Config
	Writes   [][]byte
	Flushes  int
	Releases int
	// Held is true between Acquire and Release.
	Held bool
}

// Acquire implements peripheral.Adapter.
func (a *Adapter) Acquire(cfg peripheral.Config) (peripheral.Port, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.AcquireErr != nil {
		return nil, a.AcquireErr
	}
	a.Acquired = append(a.Acquired, cfg)
	a.Held = true
	return &port{a: a}, nil
}

// WriteCount returns the number of recorded writes.
func (a *Adapter) WriteCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Writes)
}

// LastFrame returns the second to last write, which is the symbol buffer
// when the last write was the reset trailer.
func (a *Adapter) LastFrame() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.Writes) < 2 {
		return nil
	}
	return a.Writes[len(a.Writes)-2]
}

// Reset forgets recorded calls but keeps the configured errors.
func (a *Adapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Acquired = nil
	a.Writes = nil
	a.Flushes = 0
	a.Releases = 0
}

type port struct {
	a        *Adapter
	released bool
}

func (p *port) Write(b []byte) (int, error) {
	p.a.mu.Lock()
	defer p.a.mu.Unlock()
	if p.a.WriteErr != nil {
		return 0, p.a.WriteErr
	}
	p.a.Writes = append(p.a.Writes, append([]byte(nil), b...))
	return len(b), nil
}

func (p *port) ZeroAndFlush() error {
	p.a.mu.Lock()
	defer p.a.mu.Unlock()
	if p.a.FlushErr != nil {
		return p.a.FlushErr
	}
	p.a.Flushes++
	return nil
}

func (p *port) Release() error {
	p.a.mu.Lock()
	defer p.a.mu.Unlock()
	if p.released {
		return nil
	}
	p.released = true
	p.a.Releases++
	p.a.Held = false
	return p.a.ReleaseErr
}
