package server

import (
	"github.com/angi-lang/angi/archive"
	"github.com/angi-lang/angi/vm"
)

// OpenBundle loads the program of an archive and serves it with the
// archive's templates.
func OpenBundle(ex *archive.Extractor, vmOptions []vm.Option, options ...Option) (*Server, error) {
	code, err := ex.Entry(archive.BytecodeEntry)
	if err != nil {
		return nil, err
	}
	machine, err := vm.New(code, vmOptions...)
	if err != nil {
		return nil, err
	}
	options = append([]Option{WithAssets(ex)}, options...)
	return New(machine, options...)
}
