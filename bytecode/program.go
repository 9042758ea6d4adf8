package bytecode

import (
	"encoding/binary"
	"math"

	"github.com/angi-lang/angi/errz"
)

// Program is the decoded content of a compiled blob.
type Program struct {
	// Constants holds the pool in index order: Constants[i] has index i+1.
	Constants []Constant
	// Thunks holds the code offset of each thunk, in instructions.
	Thunks []uint32
	// Functions holds the function table. Function index i+1 is
	// Functions[i].
	Functions []FunctionEntry
	// Globals maps used global function names to function indices, sorted
	// by function index.
	Globals []GlobalEntry
	// Code is the raw instruction stream.
	Code []byte
}

// Constant returns the constant with the given 1-based index.
func (p *Program) Constant(idx uint32) (Constant, bool) {
	if idx == 0 || int(idx) > len(p.Constants) {
		return Constant{}, false
	}
	return p.Constants[idx-1], true
}

// InstructionCount returns the number of instruction words in Code.
func (p *Program) InstructionCount() int {
	return len(p.Code) / InstructionSize
}

// Header computes the header that MarshalBinary writes for the program.
func (p *Program) Header() Header {
	h := Header{Magic: Magic, Version: Version}
	offset := uint32(HeaderSize)

	h.Constants = Section{Offset: offset, Count: uint32(len(p.Constants))}
	for _, c := range p.Constants {
		offset += uint32(c.size())
	}
	h.Thunks = Section{Offset: offset, Count: uint32(len(p.Thunks))}
	offset += uint32(len(p.Thunks) * ThunkEntrySize)

	h.Functions = Section{Offset: offset, Count: uint32(len(p.Functions))}
	offset += uint32(len(p.Functions) * FunctionEntrySize)

	h.Globals = Section{Offset: offset, Count: uint32(len(p.Globals))}
	offset += uint32(len(p.Globals) * GlobalEntrySize)

	h.Code = Section{Offset: offset, Count: uint32(p.InstructionCount())}
	return h
}

// Size returns the total serialized size of the program, footer included.
func (p *Program) Size() int {
	h := p.Header()
	return int(h.Code.Offset) + len(p.Code) + FooterSize
}

// MarshalBinary serializes the program.
func (p *Program) MarshalBinary() ([]byte, error) {
	if len(p.Code)%InstructionSize != 0 {
		return nil, errz.New(errz.FormatError, "code length %d is not a multiple of %d",
			len(p.Code), InstructionSize)
	}
	size := p.Size()
	if uint64(size) > math.MaxUint32 {
		return nil, errz.New(errz.FormatError, "program too large (%d bytes)", size)
	}
	h := p.Header()
	out := make([]byte, 0, size)
	for _, v := range []uint32{
		h.Magic, h.Version,
		h.Constants.Offset, h.Constants.Count,
		h.Thunks.Offset, h.Thunks.Count,
		h.Functions.Offset, h.Functions.Count,
		h.Globals.Offset, h.Globals.Count,
		h.Code.Offset, h.Code.Count,
	} {
		out = binary.BigEndian.AppendUint32(out, v)
	}
	for _, c := range p.Constants {
		out = append(out, byte(c.Kind))
		switch c.Kind {
		case IntConstant:
			out = binary.BigEndian.AppendUint64(out, uint64(c.Int))
		case StringConstant:
			out = binary.BigEndian.AppendUint32(out, uint32(len(c.Str)))
			out = append(out, c.Str...)
		default:
			return nil, errz.New(errz.FormatError, "unknown constant kind %d", c.Kind)
		}
	}
	for _, t := range p.Thunks {
		out = binary.BigEndian.AppendUint32(out, t)
	}
	for _, f := range p.Functions {
		out = binary.BigEndian.AppendUint32(out, f.NumArgs)
		out = binary.BigEndian.AppendUint32(out, f.Offset)
	}
	for _, g := range p.Globals {
		out = binary.BigEndian.AppendUint32(out, g.Name)
		out = binary.BigEndian.AppendUint32(out, g.Function)
	}
	out = append(out, p.Code...)
	out = binary.BigEndian.AppendUint32(out, uint32(size))
	return out, nil
}

// ReadHeader validates the framing of a blob and returns its header. The
// magic is checked before anything else is read.
func ReadHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < 4 {
		return h, errz.New(errz.FormatError, "data too short for a program (%d bytes)", len(data))
	}
	if magic := binary.BigEndian.Uint32(data); magic != Magic {
		return h, errz.New(errz.FormatError, "invalid magic number 0x%08X", magic)
	}
	if len(data) < HeaderSize+FooterSize {
		return h, errz.New(errz.FormatError, "data too short for a program (%d bytes)", len(data))
	}
	footer := binary.BigEndian.Uint32(data[len(data)-FooterSize:])
	if int64(footer) != int64(len(data)) {
		return h, errz.New(errz.FormatError, "length footer %d does not match data length %d",
			footer, len(data))
	}
	r := newCursor(data[:len(data)-FooterSize], 0)
	h.Magic = r.u32()
	h.Version = r.u32()
	for _, s := range []*Section{&h.Constants, &h.Thunks, &h.Functions, &h.Globals, &h.Code} {
		s.Offset = r.u32()
		s.Count = r.u32()
	}
	if h.Version != Version {
		return h, errz.New(errz.FormatError, "unsupported version %d", h.Version)
	}
	body := uint64(len(data) - FooterSize)
	fixed := []struct {
		name  string
		s     Section
		entry uint64
	}{
		{"thunks", h.Thunks, ThunkEntrySize},
		{"functions", h.Functions, FunctionEntrySize},
		{"globals", h.Globals, GlobalEntrySize},
		{"code", h.Code, InstructionSize},
	}
	if uint64(h.Constants.Offset) < HeaderSize || uint64(h.Constants.Offset) > body {
		return h, errz.New(errz.FormatError, "constants section out of bounds")
	}
	for _, f := range fixed {
		end := uint64(f.s.Offset) + uint64(f.s.Count)*f.entry
		if uint64(f.s.Offset) < HeaderSize || end > body {
			return h, errz.New(errz.FormatError, "%s section out of bounds", f.name)
		}
	}
	return h, nil
}

// Unmarshal decodes a blob produced by MarshalBinary.
func Unmarshal(data []byte) (*Program, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[:len(data)-FooterSize]
	p := &Program{}

	r := newCursor(body, int(h.Constants.Offset))
	for i := uint32(0); i < h.Constants.Count && r.err == nil; i++ {
		kind := ConstantKind(r.u8())
		switch kind {
		case IntConstant:
			p.Constants = append(p.Constants, Int(int64(r.u64())))
		case StringConstant:
			n := r.u32()
			p.Constants = append(p.Constants, String(string(r.bytes(int(n)))))
		default:
			if r.err == nil {
				return nil, errz.New(errz.DecodeError, "unknown constant tag %d at index %d", kind, i+1)
			}
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	codeCount := h.Code.Count
	r = newCursor(body, int(h.Thunks.Offset))
	for i := uint32(0); i < h.Thunks.Count; i++ {
		offset := r.u32()
		if offset >= codeCount {
			return nil, errz.New(errz.DecodeError, "thunk %d offset %d outside code section", i+1, offset)
		}
		p.Thunks = append(p.Thunks, offset)
	}
	r = newCursor(body, int(h.Functions.Offset))
	for i := uint32(0); i < h.Functions.Count; i++ {
		f := FunctionEntry{NumArgs: r.u32(), Offset: r.u32()}
		if f.Offset >= codeCount {
			return nil, errz.New(errz.DecodeError, "function %d offset %d outside code section", i+1, f.Offset)
		}
		p.Functions = append(p.Functions, f)
	}
	r = newCursor(body, int(h.Globals.Offset))
	for i := uint32(0); i < h.Globals.Count; i++ {
		g := GlobalEntry{Name: r.u32(), Function: r.u32()}
		name, ok := p.Constant(g.Name)
		if !ok || name.Kind != StringConstant {
			return nil, errz.New(errz.DecodeError, "global %d has invalid name index %d", i+1, g.Name)
		}
		if g.Function == 0 || g.Function > h.Functions.Count {
			return nil, errz.New(errz.DecodeError, "global %q has invalid function index %d", name.Str, g.Function)
		}
		p.Globals = append(p.Globals, g)
	}
	if r.err != nil {
		return nil, r.err
	}
	start := h.Code.Offset
	p.Code = body[start : start+codeCount*InstructionSize]
	return p, nil
}
