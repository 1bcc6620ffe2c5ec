package async

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
)

// Group runs tasks as goroutines with panic recovery. Task errors are
// delivered on the Errors channel; the channel is buffered with the
// given capacity so tasks never block reporting.
type Group struct {
	log   *logrus.Logger
	errCh chan error

	wg       sync.WaitGroup
	waitOnce sync.Once
	done     chan struct{}
}

// NewGroup creates a group whose error channel holds up to capacity
// errors.
func NewGroup(log *logrus.Logger, capacity int) *Group {
	if log == nil {
		log = logrus.New()
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Group{
		log:   log,
		errCh: make(chan error, capacity),
		done:  make(chan struct{}),
	}
}

// Go starts fn as a goroutine. A panic in fn is recovered, logged with
// its stack and reported as an error. Must not be called after Wait.
func (g *Group) Go(name string, fn func() error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				g.log.WithFields(logrus.Fields{
					"task":  name,
					"panic": r,
				}).Error(string(debug.Stack()))
				g.report(fmt.Errorf("task %s: panic: %v", name, r))
			}
		}()

		if err := fn(); err != nil {
			g.report(err)
		}
	}()
}

func (g *Group) report(err error) {
	select {
	case g.errCh <- err:
	default:
		g.log.WithError(err).Warn("Task error dropped, error channel full")
	}
}

// Errors returns the channel task errors are delivered on.
func (g *Group) Errors() <-chan error { return g.errCh }

// Wait returns a channel that is closed once every task started so far
// has returned. Safe to call multiple times; no tasks may be started
// afterwards.
func (g *Group) Wait() <-chan struct{} {
	g.waitOnce.Do(func() {
		go func() {
			g.wg.Wait()
			close(g.done)
		}()
	})
	return g.done
}
