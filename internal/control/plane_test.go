package control

import (
	"context"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
)

func TestPlane_CancelSetsFlag(t *testing.T) {
	t.Parallel()
	p := New()

	if err := p.CheckCancelled(); err != nil {
		t.Fatalf("fresh plane reports cancelled: %v", err)
	}

	p.Cancel()

	if !p.IsCancelled() {
		t.Error("IsCancelled() = false after Cancel")
	}
	err := p.CheckCancelled()
	if err == nil {
		t.Fatal("CheckCancelled() = nil after Cancel")
	}
	if !core.IsCategory(err, core.ErrCatCancelled) {
		t.Errorf("error category = %v, want cancelled", core.GetCategory(err))
	}
}

func TestPlane_WaitIfPausedNotPaused(t *testing.T) {
	t.Parallel()
	p := New()
	if err := p.WaitIfPaused(context.Background()); err != nil {
		t.Errorf("WaitIfPaused() = %v", err)
	}
}

func TestPlane_PauseResume(t *testing.T) {
	t.Parallel()
	p := New()
	p.Pause()

	released := make(chan error, 1)
	go func() {
		released <- p.WaitIfPaused(context.Background())
	}()

	select {
	case err := <-released:
		t.Fatalf("WaitIfPaused returned %v while paused", err)
	case <-time.After(50 * time.Millisecond):
	}

	p.Resume()

	select {
	case err := <-released:
		if err != nil {
			t.Errorf("WaitIfPaused() = %v after resume", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitIfPaused did not release after Resume")
	}
}

func TestPlane_WaitIfPausedHonorsContext(t *testing.T) {
	t.Parallel()
	p := New()
	p.Pause()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := p.WaitIfPaused(ctx); err != context.DeadlineExceeded {
		t.Errorf("WaitIfPaused() = %v, want deadline exceeded", err)
	}
}
