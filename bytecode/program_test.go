package bytecode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/angi-lang/angi/errz"
	"github.com/stretchr/testify/require"
)

func sampleProgram() *Program {
	return &Program{
		Constants: []Constant{Int(3030), String("port"), String("html"), Int(-7)},
		Thunks:    []uint32{2, 3},
		Functions: []FunctionEntry{{NumArgs: 1, Offset: 4}},
		Globals:   []GlobalEntry{{Name: 3, Function: 1}},
		Code:      bytes.Repeat([]byte{6, 0, 0, 0}, 6),
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	p := sampleProgram()
	data, err := p.MarshalBinary()
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, p.Constants, got.Constants)
	require.Equal(t, p.Thunks, got.Thunks)
	require.Equal(t, p.Functions, got.Functions)
	require.Equal(t, p.Globals, got.Globals)
	require.Equal(t, p.Code, got.Code)
}

func TestHeaderOffsets(t *testing.T) {
	p := sampleProgram()
	data, err := p.MarshalBinary()
	require.NoError(t, err)

	h, err := ReadHeader(data)
	require.NoError(t, err)
	require.Equal(t, p.Header(), h)

	// 3030 and -7 take 9 bytes each, "port" and "html" take 9 each.
	require.Equal(t, uint32(HeaderSize), h.Constants.Offset)
	require.Equal(t, uint32(HeaderSize+36), h.Thunks.Offset)
	require.Equal(t, h.Thunks.Offset+2*ThunkEntrySize, h.Functions.Offset)
	require.Equal(t, h.Functions.Offset+FunctionEntrySize, h.Globals.Offset)
	require.Equal(t, h.Globals.Offset+GlobalEntrySize, h.Code.Offset)
	require.Equal(t, uint32(6), h.Code.Count)

	// The code section starts exactly where the header says it does.
	require.Equal(t, p.Code, data[h.Code.Offset:h.Code.Offset+24])
}

func TestFooterIsTotalLength(t *testing.T) {
	p := sampleProgram()
	data, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, p.Size())
	require.Equal(t, uint32(len(data)), binary.BigEndian.Uint32(data[len(data)-4:]))
}

func TestBadMagic(t *testing.T) {
	data, err := sampleProgram().MarshalBinary()
	require.NoError(t, err)

	inputs := [][]byte{
		nil,
		{0x41},
		{0, 0, 0, 0},
		append([]byte("ANGX"), data[4:]...),
		bytes.Repeat([]byte{0xFF}, 100),
	}
	for _, in := range inputs {
		require.NotPanics(t, func() {
			_, err := Unmarshal(in)
			require.True(t, errors.Is(err, errz.ErrFormat), "input %v", in)
		})
	}
}

func TestTruncatedAndCorrupt(t *testing.T) {
	data, err := sampleProgram().MarshalBinary()
	require.NoError(t, err)

	_, err = Unmarshal(data[:len(data)-1])
	require.Error(t, err)

	corrupt := append([]byte{}, data...)
	// Point the code section past the end of the data.
	binary.BigEndian.PutUint32(corrupt[40:], 1<<20)
	_, err = Unmarshal(corrupt)
	require.True(t, errors.Is(err, errz.ErrFormat))

	corrupt = append([]byte{}, data...)
	corrupt[HeaderSize] = 9 // unknown constant tag
	_, err = Unmarshal(corrupt)
	require.True(t, errors.Is(err, errz.ErrDecode))
}

func TestEmptyProgram(t *testing.T) {
	p := &Program{}
	data, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, HeaderSize+FooterSize)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	require.Empty(t, got.Constants)
	require.Equal(t, 0, got.InstructionCount())
}

func TestConstantLookup(t *testing.T) {
	p := sampleProgram()
	c, ok := p.Constant(2)
	require.True(t, ok)
	require.Equal(t, String("port"), c)
	_, ok = p.Constant(0)
	require.False(t, ok)
	_, ok = p.Constant(5)
	require.False(t, ok)
	require.Equal(t, `"port"`, c.String())
	require.Equal(t, "-7", p.Constants[3].String())
}

func TestReadTrailing(t *testing.T) {
	data, err := sampleProgram().MarshalBinary()
	require.NoError(t, err)
	file := append([]byte("#!/bin/runtime\x00\x01\x02"), data...)

	got, err := ReadTrailing(bytes.NewReader(file), int64(len(file)))
	require.NoError(t, err)
	require.Equal(t, data, got)

	_, err = ReadTrailing(bytes.NewReader([]byte{0, 0}), 2)
	require.Error(t, err)

	bad := []byte{1, 2, 3, 0, 0, 0, 200}
	_, err = ReadTrailing(bytes.NewReader(bad), int64(len(bad)))
	require.True(t, errors.Is(err, errz.ErrFormat))
}

func TestStats(t *testing.T) {
	p := sampleProgram()
	data, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, Stats{
		InstructionCount: 6,
		ConstantCount:    4,
		ThunkCount:       2,
		FunctionCount:    1,
		GlobalCount:      1,
		Size:             len(data),
	}, p.Stats())
}
