package operation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/gantry/pkg/observability"
	"github.com/platinummonkey/gantry/pkg/plugin"
)

// Strategy identifies how an operation combines its steps' results.
type Strategy string

const (
	StrategyCallAll   Strategy = "call-all"
	StrategyCallFirst Strategy = "call-first"
	StrategyReduce    Strategy = "reduce"
)

// StepSource provides the current ordered step sequence for an
// operation name. The plugin manager is the canonical implementation.
type StepSource interface {
	Steps(operation string) ([]plugin.Step, error)
}

// Definitions is the process-wide operation namespace. Operation names
// are globally unique: declaring an existing name under the same
// strategy returns the existing handle, declaring it under a different
// strategy is a configuration error.
type Definitions struct {
	src     StepSource
	log     *logrus.Logger
	metrics *observability.Metrics

	mu   sync.Mutex
	defs map[string]any // name -> operation handle
}

// NewDefinitions creates an operation namespace backed by the given
// step source. metrics may be nil.
func NewDefinitions(src StepSource, log *logrus.Logger, metrics *observability.Metrics) *Definitions {
	if log == nil {
		log = logrus.New()
	}
	return &Definitions{
		src:     src,
		log:     log,
		metrics: metrics,
		defs:    make(map[string]any),
	}
}

// definition holds what all strategy variants share.
type definition struct {
	name            string
	strategy        Strategy
	src             StepSource
	log             *logrus.Logger
	metrics         *observability.Metrics
	continueOnError bool
}

func (d *definition) Name() string       { return d.name }
func (d *definition) Strategy() Strategy { return d.strategy }

func (d *definition) steps() ([]plugin.Step, error) {
	return d.src.Steps(d.name)
}

// invokeStep runs one step, converting panics to errors and recording
// metrics. Failures are returned as *StepExecutionError.
func (d *definition) invokeStep(ctx context.Context, step plugin.Step, args ...any) (result any, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		d.metrics.RecordStep(d.name, step.Name, err, time.Since(start))
		if err != nil {
			err = &StepExecutionError{Operation: d.name, Step: step.String(), Err: err}
		}
	}()

	if step.Handler == nil {
		return nil, fmt.Errorf("step has no handler")
	}
	return step.Handler(ctx, args...)
}

// Option configures an operation at declaration time.
type Option func(*definition)

// WithContinueOnError relaxes CallAll's fail-fast rule: every step
// runs, step failures are logged and joined into the returned error.
// Used for best-effort phases like terminate.
func WithContinueOnError() Option {
	return func(d *definition) { d.continueOnError = true }
}

func (defs *Definitions) define(name string, strategy Strategy, build func(definition) any, opts ...Option) (any, error) {
	defs.mu.Lock()
	defer defs.mu.Unlock()

	if existing, ok := defs.defs[name]; ok {
		type strategied interface{ Strategy() Strategy }
		if existing.(strategied).Strategy() != strategy {
			return nil, fmt.Errorf("operation %s already defined with strategy %s",
				name, existing.(strategied).Strategy())
		}
		return existing, nil
	}

	d := definition{
		name:     name,
		strategy: strategy,
		src:      defs.src,
		log:      defs.log,
		metrics:  defs.metrics,
	}
	for _, opt := range opts {
		opt(&d)
	}

	op := build(d)
	defs.defs[name] = op
	return op, nil
}

// CallAll declares an operation that invokes every step sequentially.
func (defs *Definitions) CallAll(name string, opts ...Option) (*CallAllOperation, error) {
	op, err := defs.define(name, StrategyCallAll, func(d definition) any {
		return &CallAllOperation{definition: d}
	}, opts...)
	if err != nil {
		return nil, err
	}
	return op.(*CallAllOperation), nil
}

// CallFirst declares an operation that stops at the first step
// producing a result.
func (defs *Definitions) CallFirst(name string) (*CallFirstOperation, error) {
	op, err := defs.define(name, StrategyCallFirst, func(d definition) any {
		return &CallFirstOperation{definition: d}
	})
	if err != nil {
		return nil, err
	}
	return op.(*CallFirstOperation), nil
}

// Reduce declares an operation that folds an accumulator through its
// steps, starting from initial.
func (defs *Definitions) Reduce(name string, initial any) (*ReduceOperation, error) {
	op, err := defs.define(name, StrategyReduce, func(d definition) any {
		return &ReduceOperation{definition: d, initial: initial}
	})
	if err != nil {
		return nil, err
	}
	return op.(*ReduceOperation), nil
}

// CallAllOperation invokes every step in order and collects their
// results. By default the first step failure aborts the invocation;
// WithContinueOnError makes it best-effort instead.
type CallAllOperation struct {
	definition
}

// Invoke runs the operation's current step sequence with the given
// arguments. With zero contributing steps it returns an empty result
// slice and no error.
func (o *CallAllOperation) Invoke(ctx context.Context, args ...any) ([]any, error) {
	o.metrics.RecordInvocation(o.name, string(o.strategy))

	steps, err := o.steps()
	if err != nil {
		return nil, err
	}

	results := make([]any, 0, len(steps))
	var stepErrs []error
	for _, step := range steps {
		result, err := o.invokeStep(ctx, step, args...)
		if err != nil {
			if !o.continueOnError {
				return nil, err
			}
			o.log.WithError(err).WithFields(logrus.Fields{
				"operation": o.name,
				"step":      step.String(),
			}).Warn("Step failed, continuing")
			stepErrs = append(stepErrs, err)
			continue
		}
		results = append(results, result)
	}

	return results, errors.Join(stepErrs...)
}

// CallFirstOperation invokes steps in order until one returns a non-nil
// result without error.
type CallFirstOperation struct {
	definition
}

// Invoke returns the first step result. A step error aborts the
// invocation; if every step returns nil (or there are no steps) the
// error wraps ErrNoStepResult.
func (o *CallFirstOperation) Invoke(ctx context.Context, args ...any) (any, error) {
	o.metrics.RecordInvocation(o.name, string(o.strategy))

	steps, err := o.steps()
	if err != nil {
		return nil, err
	}

	for _, step := range steps {
		result, err := o.invokeStep(ctx, step, args...)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	return nil, fmt.Errorf("operation %s: %w", o.name, ErrNoStepResult)
}

// ReduceOperation folds its steps' results through an accumulator.
type ReduceOperation struct {
	definition
	initial any
}

// Invoke passes the accumulator as each step's first argument, followed
// by the invocation arguments; the step's result becomes the next
// accumulator. With zero steps the initial accumulator is returned.
func (o *ReduceOperation) Invoke(ctx context.Context, args ...any) (any, error) {
	o.metrics.RecordInvocation(o.name, string(o.strategy))

	steps, err := o.steps()
	if err != nil {
		return nil, err
	}

	acc := o.initial
	for _, step := range steps {
		stepArgs := append([]any{acc}, args...)
		acc, err = o.invokeStep(ctx, step, stepArgs...)
		if err != nil {
			return nil, err
		}
	}

	return acc, nil
}
