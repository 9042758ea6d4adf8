package vm

import "github.com/rs/zerolog"

// Option is a configuration function for a Virtual Machine.
type Option func(*VirtualMachine)

// WithLogger sets the logger. Instruction steps are logged at trace level
// and block entry and exit at debug level. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(vm *VirtualMachine) {
		vm.logger = logger
	}
}

// WithMaxCallDepth limits how many execution windows may be active at once.
// The default is MaxCallDepth.
func WithMaxCallDepth(depth int) Option {
	return func(vm *VirtualMachine) {
		vm.maxDepth = depth
	}
}

// WithObserver sets an observer for VM execution events.
func WithObserver(observer Observer) Option {
	return func(vm *VirtualMachine) {
		vm.observer = observer
	}
}
