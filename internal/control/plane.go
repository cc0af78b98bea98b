// Package control provides cooperative run control for study sessions.
// Cancellation is a flag checked between state transitions: in-flight
// gateway calls finish their current exchange, pending tasks skip.
package control

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
)

// Plane provides session control capabilities.
type Plane struct {
	mu        sync.RWMutex
	paused    atomic.Bool
	cancelled atomic.Bool
	resumeCh  chan struct{}
}

// New creates a new control plane.
func New() *Plane {
	return &Plane{
		resumeCh: make(chan struct{}),
	}
}

// Pause pauses the session. Running section tasks complete their current
// exchange; no new exchange starts until Resume.
func (p *Plane) Pause() {
	p.paused.Store(true)
}

// Resume resumes a paused session.
func (p *Plane) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused.Load() {
		p.paused.Store(false)
		close(p.resumeCh)
		p.resumeCh = make(chan struct{})
	}
}

// Cancel requests cancellation of the session.
func (p *Plane) Cancel() {
	p.cancelled.Store(true)
}

// IsPaused returns true if the session is paused.
func (p *Plane) IsPaused() bool {
	return p.paused.Load()
}

// IsCancelled returns true if the session is cancelled.
func (p *Plane) IsCancelled() bool {
	return p.cancelled.Load()
}

// WaitIfPaused blocks until the session is resumed.
// Returns immediately if not paused.
func (p *Plane) WaitIfPaused(ctx context.Context) error {
	if !p.paused.Load() {
		return nil
	}

	p.mu.RLock()
	resumeCh := p.resumeCh
	p.mu.RUnlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-resumeCh:
		return nil
	}
}

// CheckCancelled returns an error if cancellation was requested.
func (p *Plane) CheckCancelled() error {
	if p.cancelled.Load() {
		return core.ErrCancelled("session cancelled by caller")
	}
	return nil
}
