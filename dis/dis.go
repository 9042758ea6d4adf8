// Package dis disassembles compiled Angi programs.
package dis

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/angi-lang/angi/bytecode"
	"github.com/angi-lang/angi/errz"
	"github.com/angi-lang/angi/internal/table"
	"github.com/angi-lang/angi/op"
	"github.com/fatih/color"
)

var (
	opcodeColor = color.New(color.FgCyan)
	blockColor  = color.New(color.FgYellow, color.Bold)
	headerColor = color.New(color.Bold)
)

// Instruction is one decoded instruction with annotations.
type Instruction struct {
	Offset   int
	Block    string
	Opcode   op.Code
	Operands []uint32
	Info     string
}

// Disassemble decodes the code section of a program.
func Disassemble(p *bytecode.Program) ([]Instruction, error) {
	blocks := blockLabels(p)
	count := p.InstructionCount()
	result := make([]Instruction, 0, count)
	for pc := 0; pc < count; pc++ {
		word := binary.BigEndian.Uint32(p.Code[pc*op.WordSize:])
		instr, ok := op.DecodeWord(word)
		if !ok {
			return nil, errz.New(errz.DecodeError, "unknown opcode %d at %d", word>>op.OpcodeOffset, pc)
		}
		result = append(result, Instruction{
			Offset:   pc,
			Block:    blocks[uint32(pc)],
			Opcode:   instr.Code,
			Operands: instr.Operands,
			Info:     describe(p, instr),
		})
	}
	return result, nil
}

func describe(p *bytecode.Program, instr op.Instruction) string {
	args := instr.Operands
	switch instr.Code {
	case op.LoadConst:
		if c, ok := p.Constant(args[1]); ok {
			return c.String()
		}
		return "?"
	case op.MakeThunk:
		if args[1] > 0 && int(args[1]) <= len(p.Thunks) {
			return fmt.Sprintf("thunk %d @%d", args[1], p.Thunks[args[1]-1])
		}
		return "?"
	case op.MakeFunc:
		if args[1] > 0 && int(args[1]) <= len(p.Functions) {
			fn := p.Functions[args[1]-1]
			return fmt.Sprintf("func %d/%d @%d", args[1], fn.NumArgs, fn.Offset)
		}
		return "?"
	}
	return ""
}

func blockLabels(p *bytecode.Program) map[uint32]string {
	names := globalNames(p)
	labels := map[uint32]string{0: "root"}
	for i, offset := range p.Thunks {
		labels[offset] = fmt.Sprintf("thunk %d", i+1)
	}
	for i, fn := range p.Functions {
		label := fmt.Sprintf("func %d", i+1)
		if name, ok := names[uint32(i+1)]; ok {
			label += " " + name
		}
		labels[fn.Offset] = label
	}
	return labels
}

// globalNames maps function indices to the names of the global functions
// they implement.
func globalNames(p *bytecode.Program) map[uint32]string {
	names := map[uint32]string{}
	for _, g := range p.Globals {
		if c, ok := p.Constant(g.Name); ok && c.Kind == bytecode.StringConstant {
			names[g.Function] = c.Str
		}
	}
	return names
}

// Print writes instructions as a table.
func Print(instructions []Instruction, w io.Writer) error {
	t := table.NewTable(w)
	t.WithHeader([]string{"OFFSET", "BLOCK", "OPCODE", "OPERANDS", "INFO"})
	t.WithHeaderAlignment([]table.Alignment{table.AlignCenter, table.AlignCenter, table.AlignCenter, table.AlignCenter, table.AlignCenter})
	t.WithColumnAlignment([]table.Alignment{table.AlignRight, table.AlignLeft, table.AlignLeft, table.AlignLeft, table.AlignLeft})
	for _, instr := range instructions {
		operands := make([]string, 0, len(instr.Operands))
		for i, kind := range op.GetInfo(instr.Opcode).Layout {
			if kind == op.RegAddr {
				operands = append(operands, "r"+strconv.Itoa(int(instr.Operands[i])))
			} else {
				operands = append(operands, strconv.Itoa(int(instr.Operands[i])))
			}
		}
		block := ""
		if instr.Block != "" {
			block = blockColor.Sprint(instr.Block)
		}
		t.Append([]string{
			strconv.Itoa(instr.Offset),
			block,
			opcodeColor.Sprint(instr.Opcode.String()),
			strings.Join(operands, " "),
			instr.Info,
		})
	}
	return t.Render()
}

// PrintHeader writes the section layout of a header.
func PrintHeader(h bytecode.Header, w io.Writer) error {
	fmt.Fprintf(w, "%s magic=%#08x version=%d\n", headerColor.Sprint("header"), h.Magic, h.Version)
	t := table.NewTable(w)
	t.WithHeader([]string{"SECTION", "OFFSET", "COUNT"})
	t.WithColumnAlignment([]table.Alignment{table.AlignLeft, table.AlignRight, table.AlignRight})
	for _, s := range h.Sections() {
		t.Append([]string{s.Name, strconv.Itoa(int(s.Offset)), strconv.Itoa(int(s.Count))})
	}
	return t.Render()
}

// PrintTables writes the constant pool and the thunk, function and global
// tables.
func PrintTables(p *bytecode.Program, w io.Writer) error {
	fmt.Fprintln(w, headerColor.Sprint("constants"))
	consts := table.NewTable(w)
	consts.WithHeader([]string{"INDEX", "KIND", "VALUE"})
	consts.WithColumnAlignment([]table.Alignment{table.AlignRight, table.AlignLeft, table.AlignLeft})
	for i, c := range p.Constants {
		consts.Append([]string{strconv.Itoa(i + 1), c.Kind.String(), c.String()})
	}
	if err := consts.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w, headerColor.Sprint("blocks"))
	names := globalNames(p)
	blocks := table.NewTable(w)
	blocks.WithHeader([]string{"BLOCK", "ARGS", "OFFSET", "GLOBAL"})
	blocks.WithColumnAlignment([]table.Alignment{table.AlignLeft, table.AlignRight, table.AlignRight, table.AlignLeft})
	for i, offset := range p.Thunks {
		blocks.Append([]string{fmt.Sprintf("thunk %d", i+1), "", strconv.Itoa(int(offset)), ""})
	}
	for i, fn := range p.Functions {
		blocks.Append([]string{
			fmt.Sprintf("func %d", i+1),
			strconv.Itoa(int(fn.NumArgs)),
			strconv.Itoa(int(fn.Offset)),
			names[uint32(i+1)],
		})
	}
	return blocks.Render()
}

// Dump disassembles a serialized program: header, tables and code.
func Dump(data []byte, w io.Writer) error {
	h, err := bytecode.ReadHeader(data)
	if err != nil {
		return err
	}
	p, err := bytecode.Unmarshal(data)
	if err != nil {
		return err
	}
	if err := PrintHeader(h, w); err != nil {
		return err
	}
	st := p.Stats()
	fmt.Fprintf(w, "%d instructions, %d constants, %d thunks, %d functions (%d global), %d bytes\n",
		st.InstructionCount, st.ConstantCount, st.ThunkCount, st.FunctionCount, st.GlobalCount, st.Size)
	if err := PrintTables(p, w); err != nil {
		return err
	}
	instructions, err := Disassemble(p)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, headerColor.Sprint("code"))
	return Print(instructions, w)
}
