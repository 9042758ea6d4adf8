package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAllocation(t *testing.T) {
	var regs registers
	a, err := regs.alloc()
	require.NoError(t, err)
	b, err := regs.alloc()
	require.NoError(t, err)
	require.Equal(t, uint32(0), a)
	require.Equal(t, uint32(1), b)

	regs.pin(a)
	regs.free(a)
	regs.free(b)
	require.Equal(t, 1, regs.inUse())

	c, err := regs.alloc()
	require.NoError(t, err)
	require.Equal(t, uint32(1), c)

	regs.unpin(a)
	regs.free(a)
	regs.free(c)
	require.Equal(t, 0, regs.inUse())

	for i := 0; i < 16; i++ {
		_, err := regs.alloc()
		require.NoError(t, err)
	}
	_, err = regs.alloc()
	require.Error(t, err)
}
