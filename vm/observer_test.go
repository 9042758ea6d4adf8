package vm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/angi-lang/angi/errz"
	"github.com/angi-lang/angi/object"
	"github.com/angi-lang/angi/op"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// TestObserver is a test observer that records events.
type TestObserver struct {
	NoOpObserver
	Steps   []StepEvent
	Calls   []CallEvent
	Returns []ReturnEvent
}

func (o *TestObserver) OnStep(event StepEvent) bool {
	o.Steps = append(o.Steps, event)
	return true
}

func (o *TestObserver) OnCall(event CallEvent) bool {
	o.Calls = append(o.Calls, event)
	return true
}

func (o *TestObserver) OnReturn(event ReturnEvent) bool {
	o.Returns = append(o.Returns, event)
	return true
}

func TestObserverOnStep(t *testing.T) {
	observer := &TestObserver{}
	machine := load(t, `{ a = 1; }`, WithObserver(observer))
	_, err := machine.Eval("a")
	require.NoError(t, err)

	var names []string
	for _, step := range observer.Steps {
		names = append(names, step.Opcode.String())
	}
	require.Equal(t, []string{"MAKETABLE", "LOADCONST", "LOADCONST", "SETATTR", "RETURN"}, names)
	require.Equal(t, op.Return, observer.Steps[4].Opcode)
	require.Equal(t, uint32(4), observer.Steps[4].PC)
}

func TestObserverOnCallAndReturn(t *testing.T) {
	observer := &TestObserver{}
	machine := load(t, `{ page = () => html("hi"); items = [1]; }`, WithObserver(observer))

	page, err := Eval[*object.Function](machine, "page")
	require.NoError(t, err)
	_, err = machine.Call(page)
	require.NoError(t, err)
	_, err = machine.Eval("items")
	require.NoError(t, err)

	var kinds []string
	for _, call := range observer.Calls {
		kinds = append(kinds, call.Kind)
	}
	require.Equal(t, []string{BlockRoot, BlockFunction, BlockFunction, BlockRoot, BlockThunk}, kinds)

	html := observer.Calls[2]
	require.Equal(t, "html", html.Name)
	require.Equal(t, 1, html.ArgCount)
	require.Equal(t, 2, html.Depth)
	require.Len(t, observer.Returns, 5)
}

type haltingObserver struct {
	NoOpObserver
	limit int
	steps int
}

func (o *haltingObserver) OnStep(StepEvent) bool {
	o.steps++
	return o.steps < o.limit
}

func TestObserverHalts(t *testing.T) {
	machine := load(t, `{ a = 1; b = 2; }`, WithObserver(&haltingObserver{limit: 3}))
	_, err := machine.Eval("a")
	require.True(t, errors.Is(err, errz.ErrInstructionExecution))
	require.Contains(t, err.Error(), "halted by observer")
}

type sampledObserver struct {
	TestObserver
}

func (o *sampledObserver) Config() ObserverConfig {
	cfg := DefaultObserverConfig()
	cfg.StepEvery = 2
	return cfg
}

func TestObserverSampled(t *testing.T) {
	observer := &sampledObserver{}
	machine := load(t, `{ a = 1; }`, WithObserver(observer))
	_, err := machine.Eval("a")
	require.NoError(t, err)
	require.Len(t, observer.Steps, 2)
}

type callsOnlyObserver struct {
	TestObserver
}

func (o *callsOnlyObserver) Config() ObserverConfig {
	return ObserverConfig{Calls: true}
}

func TestObserverConfigFilters(t *testing.T) {
	observer := &callsOnlyObserver{}
	machine := load(t, `{ a = 1; }`, WithObserver(observer))
	_, err := machine.Eval("a")
	require.NoError(t, err)
	require.Empty(t, observer.Steps)
	require.Empty(t, observer.Returns)
	require.Len(t, observer.Calls, 1)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
	machine := load(t, `{ a = 1; }`, WithLogger(logger))
	_, err := machine.Eval("a")
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"message":"program loaded"`)
	require.Contains(t, buf.String(), `"instr":"MAKETABLE r0"`)
	require.Contains(t, buf.String(), `"block":"root"`)
}
