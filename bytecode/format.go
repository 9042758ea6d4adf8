package bytecode

import (
	"fmt"
	"strconv"
)

const (
	// Magic identifies a compiled program ("ANGI").
	Magic uint32 = 0x414E4749
	// Version is the format version written by this package.
	Version uint32 = 1
	// HeaderSize is the byte size of the fixed header.
	HeaderSize = 12 * 4
	// FooterSize is the byte size of the trailing length.
	FooterSize = 4
	// InstructionSize is the byte size of one instruction word.
	InstructionSize = 4
	// FunctionEntrySize is the byte size of a function table entry.
	FunctionEntrySize = 8
	// GlobalEntrySize is the byte size of a global function table entry.
	GlobalEntrySize = 8
	// ThunkEntrySize is the byte size of a thunk table entry.
	ThunkEntrySize = 4
)

// Section locates one section of the blob.
type Section struct {
	Offset uint32 // absolute byte offset
	Count  uint32 // number of entries
}

// Header is the fixed prologue of a compiled program.
type Header struct {
	Magic     uint32
	Version   uint32
	Constants Section
	Thunks    Section
	Functions Section
	Globals   Section
	Code      Section
}

// Sections returns the sections in file order, keyed by name.
func (h Header) Sections() []NamedSection {
	return []NamedSection{
		{"constants", h.Constants},
		{"thunks", h.Thunks},
		{"functions", h.Functions},
		{"globals", h.Globals},
		{"code", h.Code},
	}
}

// NamedSection pairs a section with its name.
type NamedSection struct {
	Name string
	Section
}

// ConstantKind is the tag byte of a constant entry.
type ConstantKind uint8

const (
	IntConstant    ConstantKind = 0
	StringConstant ConstantKind = 1
)

func (k ConstantKind) String() string {
	switch k {
	case IntConstant:
		return "int"
	case StringConstant:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Constant is a pooled literal. Constants are comparable and are used as
// map keys to deduplicate the pool.
type Constant struct {
	Kind ConstantKind
	Int  int64
	Str  string
}

// Int returns an integer constant.
func Int(v int64) Constant {
	return Constant{Kind: IntConstant, Int: v}
}

// String returns a string constant.
func String(s string) Constant {
	return Constant{Kind: StringConstant, Str: s}
}

// size returns the encoded byte size of the constant.
func (c Constant) size() int {
	if c.Kind == IntConstant {
		return 1 + 8
	}
	return 1 + 4 + len(c.Str)
}

func (c Constant) String() string {
	if c.Kind == IntConstant {
		return strconv.FormatInt(c.Int, 10)
	}
	return strconv.Quote(c.Str)
}

// FunctionEntry is a function table entry.
type FunctionEntry struct {
	NumArgs uint32
	Offset  uint32 // in instructions, relative to the code section
}

// GlobalEntry maps a global function name to its function table entry.
type GlobalEntry struct {
	Name     uint32 // 1-based constant index of the name
	Function uint32 // 1-based function table index
}
