package engine

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultAnimationInterval is roughly one frame at 60Hz.
const DefaultAnimationInterval = 17 * time.Millisecond

// Animation is a handle on the running camera loop. Stop is idempotent and
// never touches the scene.
type Animation struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func (a *Animation) Stop() {
	a.once.Do(func() { close(a.stop) })
}

// Done is closed once the loop has exited.
func (a *Animation) Done() <-chan struct{} {
	return a.done
}

// StartAnimation starts the demo loop, or returns the running one.
func (e *Engine) StartAnimation() *Animation {
	e.animMu.Lock()
	defer e.animMu.Unlock()

	if e.animation != nil {
		select {
		case <-e.animation.done:
		default:
			return e.animation
		}
	}

	a := &Animation{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	e.animation = a
	go e.runAnimation(a)
	slog.Info("animation started", "interval", e.interval)
	return a
}

// StopAnimation stops the demo loop if it is running.
func (e *Engine) StopAnimation() {
	e.animMu.Lock()
	a := e.animation
	e.animMu.Unlock()
	if a != nil {
		a.Stop()
	}
}

// Animating reports whether the demo loop is running.
func (e *Engine) Animating() bool {
	e.animMu.Lock()
	defer e.animMu.Unlock()
	if e.animation == nil {
		return false
	}
	select {
	case <-e.animation.stop:
		return false
	case <-e.animation.done:
		return false
	default:
		return true
	}
}

func (e *Engine) runAnimation(a *Animation) {
	ticker := time.NewTicker(e.interval)
	defer func() {
		ticker.Stop()
		close(a.done)
		slog.Info("animation stopped")
	}()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			select {
			case <-a.stop:
				return
			default:
			}
			if err := e.StepAnimation(); err != nil {
				slog.Error("animation step", "error", err)
				return
			}
		}
	}
}
