package vm

import (
	"github.com/angi-lang/angi/op"
)

// ObserverConfig selects the events an Observer receives. It is read once
// when the machine is created.
type ObserverConfig struct {
	// StepEvery sets how often OnStep fires: 1 reports every instruction,
	// N every Nth one and 0 none.
	StepEvery int
	Calls     bool
	Returns   bool
}

// DefaultObserverConfig reports every instruction, call and return.
func DefaultObserverConfig() ObserverConfig {
	return ObserverConfig{StepEvery: 1, Calls: true, Returns: true}
}

func (c ObserverConfig) reportStep(n int64) bool {
	return c.StepEvery > 0 && n%int64(c.StepEvery) == 0
}

// Observer is notified as the machine executes. Callbacks run on the
// executing goroutine; returning false halts execution with an error.
type Observer interface {
	Config() ObserverConfig

	OnStep(event StepEvent) bool
	OnCall(event CallEvent) bool
	OnReturn(event ReturnEvent) bool
}

// StepEvent is one executed instruction. PC indexes the code section and
// Depth counts the active execution windows.
type StepEvent struct {
	PC       uint32
	Opcode   op.Code
	Operands []uint32
	Depth    int
}

// Block kinds reported in call and return events.
const (
	BlockRoot     = "root"
	BlockThunk    = "thunk"
	BlockFunction = "function"
)

// CallEvent describes entry into a code block: the root expression, a
// thunk being forced or a function being called.
type CallEvent struct {
	Kind string

	// Index is the 1-based thunk or function index. Zero for the root.
	Index uint32

	// Name is the global function name, if the function has one.
	Name string

	ArgCount int
	Depth    int
}

// ReturnEvent describes the end of a code block.
type ReturnEvent struct {
	Kind  string
	Index uint32
	Name  string
	Depth int
}

// NoOpObserver ignores every event. Embed it to override a subset of the
// callbacks.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig {
	return DefaultObserverConfig()
}

func (NoOpObserver) OnStep(StepEvent) bool     { return true }
func (NoOpObserver) OnCall(CallEvent) bool     { return true }
func (NoOpObserver) OnReturn(ReturnEvent) bool { return true }

var _ Observer = NoOpObserver{}
