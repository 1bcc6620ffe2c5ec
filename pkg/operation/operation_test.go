package operation

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gantry/pkg/plugin"
)

// mapSource is a StepSource backed by a plain map.
type mapSource map[string][]plugin.Step

func (s mapSource) Steps(operation string) ([]plugin.Step, error) {
	return s[operation], nil
}

func newTestDefinitions(src StepSource) *Definitions {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewDefinitions(src, log, nil)
}

func recordingStep(name string, calls *[]string, result any, err error) plugin.Step {
	return plugin.Step{
		Name:   name,
		Plugin: "test",
		Handler: func(ctx context.Context, args ...any) (any, error) {
			*calls = append(*calls, name)
			return result, err
		},
	}
}

func TestCallAll_CollectsInOrder(t *testing.T) {
	var calls []string
	src := mapSource{"greet": {
		recordingStep("one", &calls, "a", nil),
		recordingStep("two", &calls, "b", nil),
		recordingStep("three", &calls, "c", nil),
	}}

	op, err := newTestDefinitions(src).CallAll("greet")
	require.NoError(t, err)

	results, err := op.Invoke(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, results)
	assert.Equal(t, []string{"one", "two", "three"}, calls)
}

func TestCallAll_FailFast(t *testing.T) {
	boom := errors.New("boom")
	var calls []string
	src := mapSource{"greet": {
		recordingStep("one", &calls, "a", nil),
		recordingStep("two", &calls, nil, boom),
		recordingStep("three", &calls, "c", nil),
	}}

	op, err := newTestDefinitions(src).CallAll("greet")
	require.NoError(t, err)

	_, err = op.Invoke(context.Background())
	require.Error(t, err)

	var stepErr *StepExecutionError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "greet", stepErr.Operation)
	assert.Equal(t, "test/two", stepErr.Step)
	assert.ErrorIs(t, err, boom)

	// The first step ran, the failing step ran, the third never did.
	assert.Equal(t, []string{"one", "two"}, calls)
}

func TestCallAll_ZeroSteps(t *testing.T) {
	op, err := newTestDefinitions(mapSource{}).CallAll("empty")
	require.NoError(t, err)

	results, err := op.Invoke(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCallAll_ContinueOnError(t *testing.T) {
	boom := errors.New("boom")
	var calls []string
	src := mapSource{"terminate": {
		recordingStep("one", &calls, "a", nil),
		recordingStep("two", &calls, nil, boom),
		recordingStep("three", &calls, "c", nil),
	}}

	op, err := newTestDefinitions(src).CallAll("terminate", WithContinueOnError())
	require.NoError(t, err)

	results, err := op.Invoke(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []any{"a", "c"}, results)
	assert.Equal(t, []string{"one", "two", "three"}, calls)
}

func TestCallAll_PanicBecomesStepError(t *testing.T) {
	src := mapSource{"greet": {{
		Name:   "panicky",
		Plugin: "test",
		Handler: func(ctx context.Context, args ...any) (any, error) {
			panic("oh no")
		},
	}}}

	op, err := newTestDefinitions(src).CallAll("greet")
	require.NoError(t, err)

	_, err = op.Invoke(context.Background())
	var stepErr *StepExecutionError
	require.ErrorAs(t, err, &stepErr)
	assert.Contains(t, stepErr.Err.Error(), "panic: oh no")
}

func TestCallAll_NilHandler(t *testing.T) {
	src := mapSource{"greet": {{Name: "broken", Plugin: "test"}}}

	op, err := newTestDefinitions(src).CallAll("greet")
	require.NoError(t, err)

	_, err = op.Invoke(context.Background())
	var stepErr *StepExecutionError
	require.ErrorAs(t, err, &stepErr)
	assert.Contains(t, err.Error(), "no handler")
}

func TestCallFirst_StopsAtFirstResult(t *testing.T) {
	var calls []string
	src := mapSource{"lookup": {
		recordingStep("miss", &calls, nil, nil),
		recordingStep("hit", &calls, "value", nil),
		recordingStep("late", &calls, "other", nil),
	}}

	op, err := newTestDefinitions(src).CallFirst("lookup")
	require.NoError(t, err)

	result, err := op.Invoke(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "value", result)
	assert.Equal(t, []string{"miss", "hit"}, calls)
}

func TestCallFirst_NoResult(t *testing.T) {
	var calls []string
	src := mapSource{"lookup": {
		recordingStep("miss", &calls, nil, nil),
	}}

	op, err := newTestDefinitions(src).CallFirst("lookup")
	require.NoError(t, err)

	_, err = op.Invoke(context.Background())
	assert.ErrorIs(t, err, ErrNoStepResult)
}

func TestCallFirst_ZeroStepsIsError(t *testing.T) {
	op, err := newTestDefinitions(mapSource{}).CallFirst("lookup")
	require.NoError(t, err)

	_, err = op.Invoke(context.Background())
	assert.ErrorIs(t, err, ErrNoStepResult)
}

func TestCallFirst_StepErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	var calls []string
	src := mapSource{"lookup": {
		recordingStep("bad", &calls, nil, boom),
		recordingStep("good", &calls, "value", nil),
	}}

	op, err := newTestDefinitions(src).CallFirst("lookup")
	require.NoError(t, err)

	_, err = op.Invoke(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"bad"}, calls)
}

func TestReduce_FoldsAccumulator(t *testing.T) {
	add := func(n int) plugin.Step {
		return plugin.Step{
			Name:   "add",
			Plugin: "test",
			Handler: func(ctx context.Context, args ...any) (any, error) {
				return args[0].(int) + n, nil
			},
		}
	}
	src := mapSource{"sum": {add(1), add(2), add(3)}}

	op, err := newTestDefinitions(src).Reduce("sum", 10)
	require.NoError(t, err)

	result, err := op.Invoke(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, result)
}

func TestReduce_ZeroStepsReturnsInitial(t *testing.T) {
	op, err := newTestDefinitions(mapSource{}).Reduce("sum", 42)
	require.NoError(t, err)

	result, err := op.Invoke(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestReduce_StepSeesInvocationArgs(t *testing.T) {
	src := mapSource{"concat": {{
		Name:   "join",
		Plugin: "test",
		Handler: func(ctx context.Context, args ...any) (any, error) {
			return args[0].(string) + args[1].(string), nil
		},
	}}}

	op, err := newTestDefinitions(src).Reduce("concat", "a")
	require.NoError(t, err)

	result, err := op.Invoke(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "ab", result)
}

func TestDefinitions_FlatNamespace(t *testing.T) {
	defs := newTestDefinitions(mapSource{})

	first, err := defs.CallAll("init")
	require.NoError(t, err)

	// Same name, same strategy: same handle.
	again, err := defs.CallAll("init")
	require.NoError(t, err)
	assert.Same(t, first, again)

	// Same name, different strategy: configuration error.
	_, err = defs.CallFirst("init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defined")

	_, err = defs.Reduce("init", nil)
	require.Error(t, err)
}
