package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/gantry/pkg/async"
	"github.com/platinummonkey/gantry/pkg/manager"
	"github.com/platinummonkey/gantry/pkg/observability"
	"github.com/platinummonkey/gantry/pkg/operation"
	"github.com/platinummonkey/gantry/pkg/plugin"
	"github.com/platinummonkey/gantry/pkg/registry"
)

const (
	defaultGracePeriod      = 10 * time.Second
	defaultTerminateTimeout = 30 * time.Second
)

// Orchestrator walks an application's plugins through the lifecycle
// states. It is single-use: Launch may be called once.
type Orchestrator struct {
	registry *registry.Registry
	log      *logrus.Logger
	metrics  *observability.Metrics
	grace    time.Duration
	termWait time.Duration
	signals  chan os.Signal

	mu    sync.Mutex
	state State
	mgr   *manager.Manager

	terminateOnce sync.Once
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(log *logrus.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithMetrics attaches runtime metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithGracePeriod bounds how long cancelled run steps are waited out
// before terminate begins.
func WithGracePeriod(d time.Duration) Option {
	return func(o *Orchestrator) { o.grace = d }
}

// WithTerminateTimeout bounds the terminate phase as a whole.
func WithTerminateTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.termWait = d }
}

// WithSignalChannel replaces the OS signal subscription with a caller
// provided channel. Used by tests to simulate interrupts.
func WithSignalChannel(ch chan os.Signal) Option {
	return func(o *Orchestrator) { o.signals = ch }
}

// New creates an orchestrator over the given registry.
func New(reg *registry.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: reg,
		log:      logrus.New(),
		grace:    defaultGracePeriod,
		termWait: defaultTerminateTimeout,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Manager returns the plugin manager, or nil before resolution
// succeeds.
func (o *Orchestrator) Manager() *manager.Manager {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mgr
}

func (o *Orchestrator) advance(to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if to <= o.state {
		return
	}
	o.log.WithFields(logrus.Fields{
		"from": o.state.String(),
		"to":   to.String(),
	}).Debug("Lifecycle state change")
	o.state = to
	o.metrics.SetLifecycleState(int(to))
}

// Launch runs the full lifecycle over the core plugins and blocks
// until the application stops, returning the process exit code. The
// parent context cancelling is treated like an interrupt.
func (o *Orchestrator) Launch(ctx context.Context, core []plugin.Plugin) int {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		o.log.Error("Launch called more than once")
		return 1
	}
	o.state = StateInitializing
	o.mu.Unlock()
	o.metrics.SetLifecycleState(int(StateInitializing))

	runID := uuid.New().String()
	log := o.log.WithField("run_id", runID)
	log.WithField("core_plugins", len(core)).Info("Launching application")

	sigCh := o.signals
	if sigCh == nil {
		sigCh = make(chan os.Signal, 2)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
	}

	for _, p := range core {
		if err := o.registry.Register(p); err != nil {
			var invalid *plugin.InvalidPluginError
			if errors.As(err, &invalid) {
				log.WithError(err).Warn("Dropping invalid plugin")
				continue
			}
			log.WithError(err).Error("Failed to register core plugin")
			o.advance(StateStopped)
			return 1
		}
	}

	if err := o.bootstrap(ctx, log); err != nil {
		log.WithError(err).Error("Bootstrap failed")
		o.advance(StateStopped)
		return 1
	}

	order, err := o.registry.Resolve()
	if err != nil {
		log.WithError(err).Error("Plugin resolution failed")
		o.advance(StateStopped)
		return 1
	}

	mgr, err := manager.New(order, o.log, manager.WithMetrics(o.metrics))
	if err != nil {
		log.WithError(err).Error("Failed to build plugin manager")
		o.advance(StateStopped)
		return 1
	}
	o.mu.Lock()
	o.mgr = mgr
	o.mu.Unlock()
	o.metrics.SetPluginsLoaded(order.Len())
	log.WithField("plugins", order.Names()).Info("Resolved plugin load order")

	exitCode := 0
	if err := o.initPhase(ctx, mgr); err != nil {
		log.WithError(err).Error("Init failed")
		exitCode = 1
	} else {
		o.advance(StateRunning)
		if err := o.runPhase(ctx, mgr, sigCh, log); err != nil {
			exitCode = 1
		}
	}

	o.advance(StateTerminating)
	o.terminate(mgr, sigCh, log)
	o.advance(StateStopped)
	log.WithField("exit_code", exitCode).Info("Application stopped")
	return exitCode
}

// bootstrap runs the core plugins' bootstrap steps in registration
// order, fail-fast, before resolution. Steps receive the registry so
// they can register further plugins.
func (o *Orchestrator) bootstrap(ctx context.Context, log *logrus.Entry) error {
	core := o.registry.Plugins()
	for _, p := range core {
		for _, step := range p.Steps(OpBootstrap) {
			log.WithField("step", step.String()).Debug("Running bootstrap step")
			if err := runStep(ctx, step, o.registry); err != nil {
				return &operation.StepExecutionError{
					Operation: OpBootstrap,
					Step:      step.String(),
					Err:       err,
				}
			}
		}
	}
	return nil
}

// runStep invokes a handler with panic recovery, discarding the
// result.
func runStep(ctx context.Context, step plugin.Step, args ...any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if step.Handler == nil {
		return fmt.Errorf("step has no handler")
	}
	_, err = step.Handler(ctx, args...)
	return err
}

// initPhase runs every init step sequentially in load order. The first
// failure aborts the phase.
func (o *Orchestrator) initPhase(ctx context.Context, mgr *manager.Manager) error {
	initOp, err := mgr.Definitions().CallAll(OpInit)
	if err != nil {
		return err
	}
	_, err = initOp.Invoke(ctx, mgr)
	return err
}

// runPhase starts every run step as its own goroutine under a shared
// cancellable context, then blocks until they all finish, one of them
// fails, an interrupt arrives or the parent context is cancelled. Any
// of the latter three cancels the shared context; stragglers are then
// waited out up to the grace period. The returned error is non-nil
// only when a run step failed before shutdown began.
func (o *Orchestrator) runPhase(ctx context.Context, mgr *manager.Manager, sigCh chan os.Signal, log *logrus.Entry) error {
	steps, err := mgr.Steps(OpRun)
	if err != nil {
		return err
	}
	o.metrics.RecordInvocation(OpRun, "parallel")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group := async.NewGroup(o.log, len(steps))
	for _, step := range steps {
		step := step
		group.Go(step.String(), func() error {
			log.WithField("step", step.String()).Info("Run step started")
			start := time.Now()
			err := runStep(runCtx, step, mgr)
			o.metrics.RecordStep(OpRun, step.Name, err, time.Since(start))
			if err != nil {
				return &operation.StepExecutionError{
					Operation: OpRun,
					Step:      step.String(),
					Err:       err,
				}
			}
			log.WithField("step", step.String()).Info("Run step finished")
			return nil
		})
	}
	done := group.Wait()

	var runErr error
	select {
	case <-done:
		// All steps finished; a failure may have raced the close.
		select {
		case runErr = <-group.Errors():
		default:
		}
	case runErr = <-group.Errors():
		log.WithError(runErr).Error("Run step failed, shutting down")
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Interrupt received, shutting down")
	case <-ctx.Done():
		log.Info("Context cancelled, shutting down")
	}

	cancel()

	select {
	case <-done:
	case <-time.After(o.grace):
		log.Warn("Run steps did not stop within the grace period")
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Warn("Second interrupt, abandoning run steps")
	}

	if runErr != nil {
		log.WithError(runErr).Error("Run phase failed")
	}
	return runErr
}

// terminate runs every terminate step best-effort, exactly once. Step
// failures are logged and do not stop the remaining steps. A second
// interrupt abandons the wait.
func (o *Orchestrator) terminate(mgr *manager.Manager, sigCh chan os.Signal, log *logrus.Entry) {
	o.terminateOnce.Do(func() {
		termOp, err := mgr.Definitions().CallAll(OpTerminate, operation.WithContinueOnError())
		if err != nil {
			log.WithError(err).Error("Failed to declare terminate operation")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), o.termWait)
		defer cancel()

		doneCh := make(chan error, 1)
		go func() {
			_, err := termOp.Invoke(ctx, mgr)
			doneCh <- err
		}()

		select {
		case err := <-doneCh:
			if err != nil {
				log.WithError(err).Warn("Terminate steps reported errors")
			}
		case <-ctx.Done():
			log.Warn("Terminate did not finish within the timeout")
		case sig := <-sigCh:
			log.WithField("signal", sig.String()).Warn("Second interrupt, abandoning terminate")
		}
	})
}

// LaunchApplication assembles a registry and orchestrator with default
// wiring, launches the core plugins and returns the process exit code.
// It is the usual entry point for hosts:
//
//	os.Exit(lifecycle.LaunchApplication(corePlugins))
func LaunchApplication(core []plugin.Plugin, opts ...Option) int {
	log := observability.NewLogger()
	reg := registry.New(log)
	o := New(reg, append([]Option{WithLogger(log)}, opts...)...)
	return o.Launch(context.Background(), core)
}
