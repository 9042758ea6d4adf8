// Package op defines the opcodes and the instruction word encoding shared by
// the Angi compiler and virtual machine.
package op

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/angi-lang/angi/errz"
)

// Code is an integer opcode that indicates an operation to execute. It
// occupies the top 8 bits of an instruction word.
type Code uint8

const (
	Invalid Code = 0

	// Load
	LoadConst Code = 1

	// Build
	MakeTable Code = 2
	SetAttr   Code = 3
	MakeThunk Code = 4
	MakeFunc  Code = 5

	// Execution
	Return Code = 6

	// Build
	MakeList Code = 7
	AddList  Code = 8

	// Arithmetic
	Add Code = 9
	Sub Code = 10
	Mul Code = 11
	Div Code = 12

	// Calls
	LoadArg Code = 13
	PushArg Code = 14
	Call    Code = 15
)

// Word size and bit layout of an instruction.
const (
	WordSize     = 4
	OpcodeOffset = 24
	OpcodeMask   = 1<<8 - 1
)

// Operand is the kind of a single operand field inside an instruction word.
type Operand uint8

const (
	// RegAddr addresses one of the 16 registers.
	RegAddr Operand = iota + 1
	// ConstIdx indexes the constant pool, the thunk table or the function
	// table.
	ConstIdx
)

// NumRegisters is the size of the register file.
const NumRegisters = 1 << 4

// Bits returns the width of the operand field.
func (o Operand) Bits() uint {
	switch o {
	case RegAddr:
		return 4
	case ConstIdx:
		return 20
	default:
		return 0
	}
}

// Max returns the largest value the operand field can hold.
func (o Operand) Max() uint32 {
	return 1<<o.Bits() - 1
}

func (o Operand) String() string {
	switch o {
	case RegAddr:
		return "reg"
	case ConstIdx:
		return "idx"
	default:
		return "?"
	}
}

// Info contains information about an opcode.
type Info struct {
	Code   Code
	Name   string
	Layout []Operand
}

// OperandCount returns the number of operands the opcode takes.
func (i Info) OperandCount() int {
	return len(i.Layout)
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op     Code
		name   string
		layout []Operand
	}
	r, c := RegAddr, ConstIdx
	ops := []opInfo{
		{LoadConst, "LOADCONST", []Operand{r, c}},
		{MakeTable, "MAKETABLE", []Operand{r}},
		{SetAttr, "SETATTR", []Operand{r, r, r}},
		{MakeThunk, "MAKETHUNK", []Operand{r, c}},
		{MakeFunc, "MAKEFUNC", []Operand{r, c}},
		{Return, "RETURN", []Operand{r}},
		{MakeList, "MAKELIST", []Operand{r}},
		{AddList, "ADDLIST", []Operand{r, r}},
		{Add, "ADD", []Operand{r, r, r}},
		{Sub, "SUB", []Operand{r, r, r}},
		{Mul, "MUL", []Operand{r, r, r}},
		{Div, "DIV", []Operand{r, r, r}},
		{LoadArg, "LOADARG", []Operand{r}},
		{PushArg, "PUSHARG", []Operand{r}},
		{Call, "CALL", []Operand{r, r}},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:   o.op,
			Name:   o.name,
			Layout: o.layout,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	return infos[op]
}

// Valid reports whether the opcode belongs to the instruction set.
func (op Code) Valid() bool {
	return infos[op].Name != ""
}

func (op Code) String() string {
	if info := infos[op]; info.Name != "" {
		return info.Name
	}
	return fmt.Sprintf("OP(%d)", uint8(op))
}

// Codes returns every opcode in the instruction set in numeric order.
func Codes() []Code {
	var codes []Code
	for i := range infos {
		if infos[i].Name != "" {
			codes = append(codes, Code(i))
		}
	}
	return codes
}

// Encode packs the opcode and its operands into a big-endian instruction
// word. Operands are given in layout order and packed from the low end, so
// the last operand occupies the lowest bits.
func Encode(code Code, operands ...uint32) ([WordSize]byte, error) {
	var out [WordSize]byte
	info := infos[code]
	if info.Name == "" {
		return out, errz.New(errz.UnexpectExpr, "unknown opcode %d", uint8(code))
	}
	if len(operands) != len(info.Layout) {
		return out, errz.New(errz.UnexpectExpr, "%s takes %d operands (%d given)",
			info.Name, len(info.Layout), len(operands))
	}
	word := uint32(code) << OpcodeOffset
	var shift uint
	for i := len(info.Layout) - 1; i >= 0; i-- {
		kind := info.Layout[i]
		if operands[i] > kind.Max() {
			return out, errz.New(errz.OperandOverflow, "%s operand %d out of range (%d > %d)",
				info.Name, i, operands[i], kind.Max())
		}
		word |= operands[i] << shift
		shift += kind.Bits()
	}
	binary.BigEndian.PutUint32(out[:], word)
	return out, nil
}

// MustEncode is like Encode but panics on error.
func MustEncode(code Code, operands ...uint32) [WordSize]byte {
	out, err := Encode(code, operands...)
	if err != nil {
		panic(err)
	}
	return out
}

// Decode unpacks the operands of an instruction word according to the
// layout of the given opcode. It is the inverse of Encode.
func Decode(code Code, word uint32) []uint32 {
	layout := infos[code].Layout
	operands := make([]uint32, len(layout))
	var shift uint
	for i := len(layout) - 1; i >= 0; i-- {
		operands[i] = (word >> shift) & layout[i].Max()
		shift += layout[i].Bits()
	}
	return operands
}

// Extract reads the opcode from the top 8 bits of an instruction word.
// Unknown opcodes report false.
func Extract(word uint32) (Code, bool) {
	code := Code((word >> OpcodeOffset) & OpcodeMask)
	if !code.Valid() {
		return Invalid, false
	}
	return code, true
}

// Instruction is a decoded instruction word.
type Instruction struct {
	Code     Code
	Operands []uint32
}

// DecodeWord extracts the opcode and decodes the operands of a word.
func DecodeWord(word uint32) (Instruction, bool) {
	code, ok := Extract(word)
	if !ok {
		return Instruction{}, false
	}
	return Instruction{Code: code, Operands: Decode(code, word)}, true
}

// Encode re-encodes the instruction.
func (i Instruction) Encode() ([WordSize]byte, error) {
	return Encode(i.Code, i.Operands...)
}

func (i Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(i.Code.String())
	layout := infos[i.Code].Layout
	for idx, v := range i.Operands {
		if idx < len(layout) && layout[idx] == RegAddr {
			fmt.Fprintf(&sb, " r%d", v)
		} else {
			fmt.Fprintf(&sb, " %d", v)
		}
	}
	return sb.String()
}
