package vm

import (
	"encoding/binary"

	"github.com/angi-lang/angi/bytecode"
	"github.com/angi-lang/angi/errz"
	"github.com/angi-lang/angi/object"
	"github.com/angi-lang/angi/op"
)

// run is the fetch-decode-execute loop. It starts at the given instruction
// index and stops at the first RETURN.
func (vm *VirtualMachine) run(pc uint32) (object.Object, error) {
	code := vm.program.Code
	count := uint32(vm.program.InstructionCount())
	for {
		if pc >= count {
			return nil, errz.New(errz.DecodeError,
				"instruction pointer %d out of range (%d instructions)", pc, count)
		}
		word := binary.BigEndian.Uint32(code[pc*op.WordSize:])
		instr, ok := op.DecodeWord(word)
		if !ok {
			return nil, errz.New(errz.DecodeError, "unknown opcode %d at %d", word>>op.OpcodeOffset, pc)
		}
		if err := vm.step(pc, instr); err != nil {
			return nil, err
		}
		if instr.Code == op.Return {
			return vm.get(instr.Operands[0])
		}
		if err := vm.exec(instr); err != nil {
			vm.logger.Debug().Err(err).Uint32("pc", pc).Str("instr", instr.String()).Msg("instruction failed")
			return nil, err
		}
		pc++
	}
}

// step reports an instruction to the logger and the observer.
func (vm *VirtualMachine) step(pc uint32, instr op.Instruction) error {
	vm.steps++
	vm.logger.Trace().Uint32("pc", pc).Str("instr", instr.String()).Int("depth", vm.depth).Msg("step")
	if vm.observer == nil || !vm.obsCfg.reportStep(vm.steps) {
		return nil
	}
	event := StepEvent{
		PC:       pc,
		Opcode:   instr.Code,
		Operands: instr.Operands,
		Depth:    vm.depth,
	}
	if !vm.observer.OnStep(event) {
		return errHalted
	}
	return nil
}

func (vm *VirtualMachine) exec(instr op.Instruction) error {
	args := instr.Operands
	switch instr.Code {
	case op.LoadConst:
		c, ok := vm.program.Constant(args[1])
		if !ok {
			return errz.New(errz.InstructionExecution, "constant %d not found", args[1])
		}
		vm.registers[args[0]] = constantValue(c)
	case op.MakeTable:
		vm.registers[args[0]] = object.NewTable()
	case op.SetAttr:
		return vm.setAttr(args[0], args[1], args[2])
	case op.MakeThunk:
		if args[1] == 0 || int(args[1]) > len(vm.program.Thunks) {
			return errz.New(errz.InstructionExecution, "thunk %d not found", args[1])
		}
		vm.registers[args[0]] = object.NewThunk(args[1])
	case op.MakeFunc:
		if args[1] == 0 || int(args[1]) > len(vm.program.Functions) {
			return errz.New(errz.InstructionExecution, "function %d not found", args[1])
		}
		vm.registers[args[0]] = object.NewFunction(args[1])
	case op.MakeList:
		vm.registers[args[0]] = object.NewList()
	case op.AddList:
		return vm.addList(args[0], args[1])
	case op.Add, op.Sub, op.Mul, op.Div:
		return vm.arithmetic(instr.Code, args[0], args[1], args[2])
	case op.LoadArg:
		if len(vm.args) == 0 {
			return errz.New(errz.InstructionExecution, "no argument left to load")
		}
		vm.registers[args[0]] = vm.args[0]
		vm.args = vm.args[1:]
	case op.PushArg:
		value, err := vm.get(args[0])
		if err != nil {
			return err
		}
		vm.pending = append(vm.pending, value.Clone())
	case op.Call:
		return vm.call(args[0], args[1])
	default:
		return errz.New(errz.DecodeError, "unsupported opcode %s", instr.Code)
	}
	return nil
}

func constantValue(c bytecode.Constant) object.Object {
	if c.Kind == bytecode.IntConstant {
		return object.NewInt(c.Int)
	}
	return object.NewString(c.Str)
}

// get returns the value of an initialized register.
func (vm *VirtualMachine) get(reg uint32) (object.Object, error) {
	if int(reg) >= len(vm.registers) {
		return nil, errz.New(errz.InstructionExecution, "register r%d out of range", reg)
	}
	value := vm.registers[reg]
	if value == nil || value == object.Uninitialized {
		return nil, errz.New(errz.InstructionExecution, "register r%d is uninitialized", reg)
	}
	return value, nil
}

func (vm *VirtualMachine) setAttr(tableReg, keyReg, valueReg uint32) error {
	target, err := vm.get(tableReg)
	if err != nil {
		return err
	}
	table, err := object.AsTable(target)
	if err != nil {
		return err
	}
	key, err := vm.get(keyReg)
	if err != nil {
		return err
	}
	name, err := object.AsString(key)
	if err != nil {
		return err
	}
	value, err := vm.get(valueReg)
	if err != nil {
		return err
	}
	table.Set(name, value.Clone())
	return nil
}

func (vm *VirtualMachine) addList(listReg, valueReg uint32) error {
	target, err := vm.get(listReg)
	if err != nil {
		return err
	}
	list, err := object.AsList(target)
	if err != nil {
		return err
	}
	value, err := vm.get(valueReg)
	if err != nil {
		return err
	}
	list.Append(value.Clone())
	return nil
}

func (vm *VirtualMachine) arithmetic(code op.Code, dst, lhsReg, rhsReg uint32) error {
	lhs, err := vm.intRegister(lhsReg)
	if err != nil {
		return err
	}
	rhs, err := vm.intRegister(rhsReg)
	if err != nil {
		return err
	}
	var result int64
	switch code {
	case op.Add:
		result = lhs + rhs
	case op.Sub:
		result = lhs - rhs
	case op.Mul:
		result = lhs * rhs
	case op.Div:
		if rhs == 0 {
			return errz.New(errz.InstructionExecution, "division by zero")
		}
		result = lhs / rhs
	}
	vm.registers[dst] = object.NewInt(result)
	return nil
}

func (vm *VirtualMachine) intRegister(reg uint32) (int64, error) {
	value, err := vm.get(reg)
	if err != nil {
		return 0, err
	}
	return object.AsInt(value)
}

// call resolves the callee and runs it with the most recently pushed
// arguments. A string callee names a global function.
func (vm *VirtualMachine) call(dst, calleeReg uint32) error {
	callee, err := vm.get(calleeReg)
	if err != nil {
		return err
	}
	var idx uint32
	switch callee := callee.(type) {
	case *object.String:
		var ok bool
		if idx, ok = vm.globals[callee.Value()]; !ok {
			return errz.New(errz.NotFoundFunction, "function %q not found", callee.Value())
		}
	case *object.Function:
		idx = callee.Index()
	default:
		return errz.New(errz.ValueTypeMismatch, "cannot call %s", callee.Type())
	}
	if idx == 0 || int(idx) > len(vm.program.Functions) {
		return errz.New(errz.InstructionExecution, "function %d not found", idx)
	}
	nargs := int(vm.program.Functions[idx-1].NumArgs)
	if len(vm.pending) < nargs {
		return errz.New(errz.InstructionExecution, "%s takes %d argument(s) (%d pushed)",
			vm.functionLabel(idx), nargs, len(vm.pending))
	}
	split := len(vm.pending) - nargs
	args := append([]object.Object(nil), vm.pending[split:]...)
	vm.pending = vm.pending[:split]
	result, err := vm.callFunction(idx, args)
	if err != nil {
		return err
	}
	vm.registers[dst] = result
	return nil
}
