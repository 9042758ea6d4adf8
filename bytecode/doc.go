// Package bytecode defines the binary format shared by the Angi compiler and
// virtual machine.
//
// A compiled program is a single big-endian blob:
//
//	header     12 x u32: magic, version, then (offset, count) for the
//	           constants, thunks, functions, globals and code sections
//	constants  per entry: tag u8 (0 = int, 1 = string), then i64 or
//	           u32 length + UTF-8 bytes; 1-based indices in section order
//	thunks     per entry: u32 code offset, in instructions
//	functions  per entry: u32 argument count, u32 code offset
//	globals    per entry: u32 name constant index, u32 function index
//	code       per entry: one 32-bit instruction word
//	footer     u32 total length of the blob, footer included
//
// Section offsets in the header are absolute byte offsets; counts are entry
// counts. Code offsets stored in the thunk and function tables count
// instructions from the start of the code section, so the absolute byte
// offset of a thunk is stored*4 + code offset.
//
// The trailing length lets a loader find a blob appended to another file by
// reading backward from the end.
package bytecode
