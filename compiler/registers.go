package compiler

import (
	"github.com/angi-lang/angi/errz"
	"github.com/angi-lang/angi/op"
)

// registers tracks which of the VM registers hold live values.
type registers struct {
	used   [op.NumRegisters]bool
	pinned [op.NumRegisters]bool
}

// alloc returns the lowest free register.
func (r *registers) alloc() (uint32, error) {
	for i, used := range r.used {
		if !used {
			r.used[i] = true
			return uint32(i), nil
		}
	}
	return 0, errz.New(errz.RegisterOverflow, "all %d registers are in use", op.NumRegisters)
}

// free releases a register. Pinned registers stay allocated.
func (r *registers) free(reg uint32) {
	if int(reg) >= len(r.used) || r.pinned[reg] {
		return
	}
	r.used[reg] = false
}

func (r *registers) pin(reg uint32) {
	r.pinned[reg] = true
}

func (r *registers) unpin(reg uint32) {
	r.pinned[reg] = false
}

// inUse returns the number of allocated registers.
func (r *registers) inUse() int {
	n := 0
	for _, used := range r.used {
		if used {
			n++
		}
	}
	return n
}
