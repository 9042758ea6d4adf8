package bytecode

// Stats contains statistics about a compiled program.
// This is useful for auditing programs before they are bundled.
type Stats struct {
	// InstructionCount is the total number of instructions.
	InstructionCount int

	// ConstantCount is the number of constants in the constant pool.
	ConstantCount int

	// ThunkCount is the number of deferred table and list bodies.
	ThunkCount int

	// FunctionCount is the number of functions, global ones included.
	FunctionCount int

	// GlobalCount is the number of global functions the program uses.
	GlobalCount int

	// Size is the size of the serialized program in bytes.
	Size int
}

// Stats returns statistics about the program.
func (p *Program) Stats() Stats {
	return Stats{
		InstructionCount: p.InstructionCount(),
		ConstantCount:    len(p.Constants),
		ThunkCount:       len(p.Thunks),
		FunctionCount:    len(p.Functions),
		GlobalCount:      len(p.Globals),
		Size:             p.Size(),
	}
}
