// Package vm provides a VirtualMachine that executes compiled Angi programs.
//
// The machine is lazy. Nothing runs when a program is loaded. Each Eval
// runs the root expression and then forces only the thunks that lie on the
// requested path. Functions run when they are called, either by the CALL
// instruction or by the host through Call.
//
// A VirtualMachine is not safe for concurrent use. Hosts serving several
// goroutines guard it with a single lock.
package vm

import (
	"fmt"
	"os"
	"strings"

	"github.com/angi-lang/angi/archive"
	"github.com/angi-lang/angi/bytecode"
	"github.com/angi-lang/angi/errz"
	"github.com/angi-lang/angi/object"
	"github.com/angi-lang/angi/op"
	"github.com/rs/zerolog"
)

// MaxCallDepth is the default limit on nested execution windows.
const MaxCallDepth = 1024

type VirtualMachine struct {
	program *bytecode.Program
	header  bytecode.Header

	// Global function name to function index
	globals map[string]uint32
	// Function index to global function name
	names map[uint32]string

	registers [op.NumRegisters]object.Object

	// Arguments pushed for the next CALL
	pending []object.Object
	// Arguments of the running function, consumed by LOADARG
	args []object.Object

	depth    int
	maxDepth int
	steps    int64

	logger   zerolog.Logger
	observer Observer
	obsCfg   ObserverConfig
}

// New loads a compiled program. The magic number is checked before
// anything else is read.
func New(data []byte, options ...Option) (*VirtualMachine, error) {
	program, err := bytecode.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return NewFromProgram(program, options...)
}

// NewFromProgram creates a VirtualMachine for an already decoded program.
func NewFromProgram(program *bytecode.Program, options ...Option) (*VirtualMachine, error) {
	vm := &VirtualMachine{
		program:  program,
		header:   program.Header(),
		globals:  map[string]uint32{},
		names:    map[uint32]string{},
		maxDepth: MaxCallDepth,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(vm)
	}
	if vm.observer != nil {
		vm.obsCfg = vm.observer.Config()
	}
	for _, g := range program.Globals {
		name, ok := program.Constant(g.Name)
		if !ok || name.Kind != bytecode.StringConstant {
			return nil, errz.New(errz.DecodeError, "global function name %d is not a string constant", g.Name)
		}
		vm.globals[name.Str] = g.Function
		vm.names[g.Function] = name.Str
	}
	vm.clearRegisters()
	vm.logger.Debug().
		Int("constants", len(program.Constants)).
		Int("thunks", len(program.Thunks)).
		Int("functions", len(program.Functions)).
		Int("instructions", program.InstructionCount()).
		Msg("program loaded")
	return vm, nil
}

// NewFromFile loads a program from a file. The file may hold a bare
// compiled program, an archive with a bytecode entry, or either of those
// appended to another file such as a server executable.
func NewFromFile(path string, options ...Option) (*VirtualMachine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if data, err = archive.Program(data); err != nil {
		return nil, err
	}
	return New(data, options...)
}

// NewFromExecutable loads the program appended to the running executable.
// The payload is located from the end of the file using its trailing length
// and may be a bare program or an archive.
func NewFromExecutable(options ...Option) (*VirtualMachine, error) {
	path, err := os.Executable()
	if err != nil {
		return nil, err
	}
	payload, err := bytecode.ReadTrailingFile(path)
	if err != nil {
		return nil, err
	}
	if payload, err = archive.Program(payload); err != nil {
		return nil, err
	}
	return New(payload, options...)
}

// Header returns the header of the loaded program.
func (vm *VirtualMachine) Header() bytecode.Header {
	return vm.header
}

// Program returns the loaded program.
func (vm *VirtualMachine) Program() *bytecode.Program {
	return vm.program
}

// GlobalNames returns the names of the global functions used by the program.
func (vm *VirtualMachine) GlobalNames() []string {
	names := make([]string, 0, len(vm.program.Globals))
	for _, g := range vm.program.Globals {
		names = append(names, vm.names[g.Function])
	}
	return names
}

// Eval runs the root expression and walks the dotted path through it.
// Thunks on the path are forced as they are reached, as is the final value.
// An empty path returns the root value.
func (vm *VirtualMachine) Eval(path string) (result object.Object, err error) {
	defer vm.recoverPanic(&err)
	value, err := vm.runBlock(BlockRoot, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	if path != "" {
		for _, segment := range strings.Split(path, object.PathSeparator) {
			if value, err = vm.child(value, segment); err != nil {
				return nil, err
			}
		}
	}
	if value, err = vm.force(value); err != nil {
		return nil, err
	}
	return value.Clone(), nil
}

// child forces value, which must then be a table, and returns its entry for
// key.
func (vm *VirtualMachine) child(value object.Object, key string) (object.Object, error) {
	value, err := vm.force(value)
	if err != nil {
		return nil, err
	}
	table, ok := value.(*object.Table)
	if !ok {
		return nil, errz.New(errz.ValueTypeMismatch,
			"cannot look up %q in %s (expected table)", key, value.Type())
	}
	entry, ok := table.Get(key)
	if !ok {
		return nil, errz.New(errz.UnexpectedError, "property %q not found", key)
	}
	return entry, nil
}

// Force resolves a thunk to its value. Other values are returned unchanged.
func (vm *VirtualMachine) Force(obj object.Object) (result object.Object, err error) {
	defer vm.recoverPanic(&err)
	return vm.force(obj)
}

func (vm *VirtualMachine) force(obj object.Object) (object.Object, error) {
	thunk, ok := obj.(*object.Thunk)
	if !ok {
		return obj, nil
	}
	idx := thunk.Index()
	if idx == 0 || int(idx) > len(vm.program.Thunks) {
		return nil, errz.New(errz.InstructionExecution, "thunk %d not found", idx)
	}
	return vm.runBlock(BlockThunk, idx, vm.program.Thunks[idx-1], nil)
}

// Materialize forces obj and every thunk reachable from it, returning a
// value with no thunks left.
func (vm *VirtualMachine) Materialize(obj object.Object) (result object.Object, err error) {
	defer vm.recoverPanic(&err)
	return vm.materialize(obj)
}

func (vm *VirtualMachine) materialize(obj object.Object) (object.Object, error) {
	obj, err := vm.force(obj)
	if err != nil {
		return nil, err
	}
	switch obj := obj.(type) {
	case *object.Table:
		out := object.NewTable()
		if err := vm.materializeTree(obj.Tree(), out.Tree(), nil); err != nil {
			return nil, err
		}
		return out, nil
	case *object.List:
		items := obj.Items()
		out := object.NewList()
		for _, item := range items {
			value, err := vm.materialize(item)
			if err != nil {
				return nil, err
			}
			out.Append(value)
		}
		return out, nil
	default:
		return obj.Clone(), nil
	}
}

func (vm *VirtualMachine) materializeTree(src, dst *object.Tree, prefix []string) error {
	for _, key := range src.Keys() {
		node, _ := src.Child(key)
		path := append(append([]string(nil), prefix...), key)
		if !node.IsLeaf() {
			if err := vm.materializeTree(node.Branch(), dst, path); err != nil {
				return err
			}
			continue
		}
		value, err := vm.materialize(node.Value())
		if err != nil {
			return err
		}
		dst.Insert(path, value)
	}
	return nil
}

// Call calls a function value with the given arguments.
func (vm *VirtualMachine) Call(fn *object.Function, args ...object.Object) (result object.Object, err error) {
	defer vm.recoverPanic(&err)
	if fn == nil {
		return nil, errz.New(errz.ValueTypeMismatch, "cannot call a nil function")
	}
	cloned := make([]object.Object, len(args))
	for i, arg := range args {
		cloned[i] = arg.Clone()
	}
	value, err := vm.callFunction(fn.Index(), cloned)
	if err != nil {
		return nil, err
	}
	return value.Clone(), nil
}

// CallGlobal calls a global function used by the program by name.
func (vm *VirtualMachine) CallGlobal(name string, args ...object.Object) (object.Object, error) {
	idx, ok := vm.globals[name]
	if !ok {
		return nil, errz.New(errz.NotFoundFunction, "function %q not found", name)
	}
	return vm.Call(object.NewFunction(idx), args...)
}

func (vm *VirtualMachine) callFunction(idx uint32, args []object.Object) (object.Object, error) {
	if idx == 0 || int(idx) > len(vm.program.Functions) {
		return nil, errz.New(errz.InstructionExecution, "function %d not found", idx)
	}
	entry := vm.program.Functions[idx-1]
	if int(entry.NumArgs) != len(args) {
		return nil, errz.New(errz.InstructionExecution, "%s takes %d argument(s) (%d given)",
			vm.functionLabel(idx), entry.NumArgs, len(args))
	}
	return vm.runBlock(BlockFunction, idx, entry.Offset, args)
}

func (vm *VirtualMachine) functionLabel(idx uint32) string {
	if name, ok := vm.names[idx]; ok {
		return name
	}
	return fmt.Sprintf("function %d", idx)
}

// window is the state saved while a nested block runs.
type window struct {
	registers [op.NumRegisters]object.Object
	pending   []object.Object
	args      []object.Object
}

// runBlock runs the code block at start in a fresh execution window and
// restores the caller's registers and argument queues afterwards.
func (vm *VirtualMachine) runBlock(kind string, idx, start uint32, args []object.Object) (object.Object, error) {
	if vm.depth >= vm.maxDepth {
		return nil, errz.New(errz.InstructionExecution, "maximum call depth of %d exceeded", vm.maxDepth)
	}
	saved := window{registers: vm.registers, pending: vm.pending, args: vm.args}
	vm.clearRegisters()
	vm.pending = nil
	vm.args = args
	vm.depth++
	defer func() {
		vm.depth--
		vm.registers = saved.registers
		vm.pending = saved.pending
		vm.args = saved.args
	}()

	name := vm.names[idx]
	if kind != BlockFunction {
		name = ""
	}
	vm.logger.Debug().Str("block", kind).Uint32("index", idx).Str("name", name).
		Int("args", len(args)).Int("depth", vm.depth).Msg("enter")
	if vm.observer != nil && vm.obsCfg.Calls {
		event := CallEvent{Kind: kind, Index: idx, Name: name, ArgCount: len(args), Depth: vm.depth}
		if !vm.observer.OnCall(event) {
			return nil, errHalted
		}
	}

	result, err := vm.run(start)
	if err != nil {
		return nil, err
	}

	vm.logger.Debug().Str("block", kind).Uint32("index", idx).Str("result", string(result.Type())).
		Int("depth", vm.depth).Msg("return")
	if vm.observer != nil && vm.obsCfg.Returns {
		if !vm.observer.OnReturn(ReturnEvent{Kind: kind, Index: idx, Name: name, Depth: vm.depth}) {
			return nil, errHalted
		}
	}
	return result, nil
}

var errHalted = errz.New(errz.InstructionExecution, "execution halted by observer")

func (vm *VirtualMachine) clearRegisters() {
	for i := range vm.registers {
		vm.registers[i] = object.Uninitialized
	}
}

// recoverPanic converts a panic into an error and resets the machine so it can
// be used again.
func (vm *VirtualMachine) recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = errz.New(errz.InstructionExecution, "panic: %v", r)
		vm.depth = 0
		vm.pending = nil
		vm.args = nil
		vm.clearRegisters()
	}
}
