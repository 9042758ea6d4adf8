// Package angi compiles Angi configuration programs and loads them into a
// virtual machine.
//
// A program is a single expression, usually a table:
//
//	{
//	    port = 3030;
//	    routes = [
//	        {path = "/"; handler = () => html("<h1>Hello</h1>");},
//	    ];
//	}
//
// Compile turns the source into a self-contained binary blob. Load compiles
// and returns a VirtualMachine ready to evaluate paths such as "routes" or
// "server.port".
package angi

import (
	"context"

	"github.com/angi-lang/angi/ast"
	"github.com/angi-lang/angi/builtins"
	"github.com/angi-lang/angi/bytecode"
	"github.com/angi-lang/angi/compiler"
	"github.com/angi-lang/angi/parser"
	"github.com/angi-lang/angi/vm"
	"github.com/rs/zerolog"
)

// Option configures compilation and loading.
type Option func(*options)

type options struct {
	filename     string
	library      map[string]*ast.Func
	noFolding    bool
	logger       *zerolog.Logger
	observer     vm.Observer
	maxCallDepth int
}

func collectOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) compilerOpts() ([]compiler.Option, error) {
	lib := o.library
	if lib == nil {
		var err error
		if lib, err = builtins.Functions(); err != nil {
			return nil, err
		}
	}
	opts := []compiler.Option{compiler.WithLibrary(lib)}
	if o.filename != "" {
		opts = append(opts, compiler.WithFilename(o.filename))
	}
	if o.noFolding {
		opts = append(opts, compiler.WithoutFolding())
	}
	return opts, nil
}

func (o *options) vmOpts() []vm.Option {
	var opts []vm.Option
	if o.logger != nil {
		opts = append(opts, vm.WithLogger(*o.logger))
	}
	if o.observer != nil {
		opts = append(opts, vm.WithObserver(o.observer))
	}
	if o.maxCallDepth > 0 {
		opts = append(opts, vm.WithMaxCallDepth(o.maxCallDepth))
	}
	return opts
}

// WithFilename sets the filename reported in error locations.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithLibrary replaces the global function library. By default the
// builtins library (html, json, text, ...) is used.
func WithLibrary(lib map[string]*ast.Func) Option {
	return func(o *options) {
		o.library = lib
	}
}

// WithoutFolding disables constant folding of integer arithmetic.
func WithoutFolding() Option {
	return func(o *options) {
		o.noFolding = true
	}
}

// WithLogger sets the logger of the loaded VirtualMachine.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithObserver sets an observer for VM execution events.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithMaxCallDepth limits the nesting of thunk and function calls.
func WithMaxCallDepth(depth int) Option {
	return func(o *options) {
		o.maxCallDepth = depth
	}
}

// Parse parses source into an expression tree.
func Parse(ctx context.Context, source string, opts ...Option) (ast.Expr, error) {
	o := collectOptions(opts...)
	var parserOpts []parser.Option
	if o.filename != "" {
		parserOpts = append(parserOpts, parser.WithFilename(o.filename))
	}
	return parser.Parse(ctx, source, parserOpts...)
}

// CompileProgram parses and compiles source into a Program.
func CompileProgram(ctx context.Context, source string, opts ...Option) (*bytecode.Program, error) {
	expr, err := Parse(ctx, source, opts...)
	if err != nil {
		return nil, err
	}
	compilerOpts, err := collectOptions(opts...).compilerOpts()
	if err != nil {
		return nil, err
	}
	compilerOpts = append(compilerOpts, compiler.WithSource(source))
	return compiler.New(compilerOpts...).Compile(expr)
}

// Compile parses and compiles source into the binary program format.
func Compile(ctx context.Context, source string, opts ...Option) ([]byte, error) {
	program, err := CompileProgram(ctx, source, opts...)
	if err != nil {
		return nil, err
	}
	return program.MarshalBinary()
}

// Check parses source and reports every unresolved name and arity problem
// without generating code.
func Check(ctx context.Context, source string, opts ...Option) error {
	expr, err := Parse(ctx, source, opts...)
	if err != nil {
		return err
	}
	compilerOpts, err := collectOptions(opts...).compilerOpts()
	if err != nil {
		return err
	}
	compilerOpts = append(compilerOpts, compiler.WithSource(source))
	return compiler.Check(expr, compilerOpts...)
}

// Load compiles source and loads it into a new VirtualMachine.
func Load(ctx context.Context, source string, opts ...Option) (*vm.VirtualMachine, error) {
	program, err := CompileProgram(ctx, source, opts...)
	if err != nil {
		return nil, err
	}
	return vm.NewFromProgram(program, collectOptions(opts...).vmOpts()...)
}

// Eval compiles source and evaluates a dotted path, returning a plain Go
// value with every nested thunk forced.
func Eval(ctx context.Context, source, path string, opts ...Option) (any, error) {
	machine, err := Load(ctx, source, opts...)
	if err != nil {
		return nil, err
	}
	value, err := machine.Eval(path)
	if err != nil {
		return nil, err
	}
	value, err = machine.Materialize(value)
	if err != nil {
		return nil, err
	}
	return value.Interface(), nil
}
