// Package compiler is used to compile an Angi abstract syntax tree (AST) into
// the corresponding bytecode.
//
// # Deferred Code Blocks
//
// Composite values are lazy. When a table or list appears as the value of a
// field or as a list item, the compiler does not emit its construction
// inline. Instead it registers a thunk and emits MAKETHUNK. The thunk's body
// is emitted after the root expression, each body ending with its own RETURN.
// Lambdas are handled the same way: MAKEFUNC refers to a function table
// entry whose body is emitted once the thunks are drained.
//
// Compiling a thunk or function body may discover more thunks and functions,
// so the compiler keeps draining both arenas until neither has pending work.
//
// # Registers
//
// There are 16 general purpose registers. Every compiled expression yields
// a register holding its result, and the consumer of that result frees it.
// Function parameters are loaded into registers that stay pinned until the
// function body is complete.
//
// Inside function bodies composite values are built eagerly, since a thunk
// forced after the call returns could no longer see the parameters.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/angi-lang/angi/ast"
	"github.com/angi-lang/angi/bytecode"
	"github.com/angi-lang/angi/errz"
	"github.com/angi-lang/angi/op"
)

// Compiler is used to compile Angi AST into its corresponding bytecode.
type Compiler struct {
	// Deduplicated constant pool, in insertion order
	constants  map[bytecode.Constant]uint32
	constOrder []bytecode.Constant

	// Deferred code blocks. The offsets are filled in as the bodies are
	// emitted.
	thunks    []*thunk
	functions []*function

	// Global function library, by name
	library map[string]*ast.Func

	// Global functions referenced by the program, mapped to their
	// function table index
	globals map[string]uint32

	regs registers

	// Instruction stream
	code []byte

	// Parameter bindings of the function body being compiled
	bindings map[string]uint32

	// Set while compiling a function body
	inFunction bool

	// Source filename and text, used for error locations
	filename string
	source   string
	lines    []string

	fold bool
}

type thunk struct {
	expr   ast.Expr
	offset uint32
}

type function struct {
	name   string
	node   *ast.Func
	offset uint32
}

// Option is a configuration function for a Compiler.
type Option func(*Compiler)

// WithLibrary sets the global functions available to calls.
func WithLibrary(fns map[string]*ast.Func) Option {
	return func(c *Compiler) {
		c.library = fns
	}
}

// WithFilename sets the file name reported in errors.
func WithFilename(filename string) Option {
	return func(c *Compiler) {
		c.filename = filename
	}
}

// WithSource sets the original source code, used for better error messages.
func WithSource(source string) Option {
	return func(c *Compiler) {
		c.source = source
	}
}

// WithoutFolding disables constant folding.
func WithoutFolding() Option {
	return func(c *Compiler) {
		c.fold = false
	}
}

// New creates and returns a new Compiler.
func New(options ...Option) *Compiler {
	c := &Compiler{
		constants: map[bytecode.Constant]uint32{},
		library:   map[string]*ast.Func{},
		globals:   map[string]uint32{},
		bindings:  map[string]uint32{},
		fold:      true,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.source != "" {
		c.lines = strings.Split(c.source, "\n")
	}
	return c
}

// Compile compiles the given AST node and returns the serialized program.
func Compile(node ast.Expr, options ...Option) ([]byte, error) {
	program, err := New(options...).Compile(node)
	if err != nil {
		return nil, err
	}
	return program.MarshalBinary()
}

// Compile checks and compiles the expression into a Program. A Compiler
// should only be used once.
func (c *Compiler) Compile(node ast.Expr) (*bytecode.Program, error) {
	if node == nil {
		return nil, errz.New(errz.UnexpectExpr, "nothing to compile")
	}
	if c.fold {
		node = Fold(node)
	}
	if err := c.check(node); err != nil {
		return nil, err
	}
	root, err := c.compileExpr(node, false)
	if err != nil {
		return nil, err
	}
	if err := c.emit(op.Return, root); err != nil {
		return nil, err
	}
	c.regs.free(root)
	if err := c.drain(); err != nil {
		return nil, err
	}
	return c.assemble(), nil
}

// drain emits the bodies of all pending thunks and functions.
func (c *Compiler) drain() error {
	nextThunk, nextFunc := 0, 0
	for nextThunk < len(c.thunks) || nextFunc < len(c.functions) {
		for ; nextThunk < len(c.thunks); nextThunk++ {
			if err := c.compileThunk(c.thunks[nextThunk]); err != nil {
				return err
			}
		}
		for ; nextFunc < len(c.functions); nextFunc++ {
			if err := c.compileFunction(c.functions[nextFunc]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Compiler) compileThunk(t *thunk) error {
	t.offset = c.position()
	reg, err := c.compileComposite(t.expr)
	if err != nil {
		return err
	}
	if err := c.emit(op.Return, reg); err != nil {
		return err
	}
	c.regs.free(reg)
	return nil
}

func (c *Compiler) compileFunction(fn *function) error {
	fn.offset = c.position()
	c.inFunction = true
	c.bindings = map[string]uint32{}
	defer func() {
		c.inFunction = false
		c.bindings = map[string]uint32{}
	}()

	var params []uint32
	for _, param := range fn.node.Params {
		reg, err := c.regs.alloc()
		if err != nil {
			return c.errorAt(param, errz.RegisterOverflow, "too many parameters in function %s", fn.label())
		}
		c.regs.pin(reg)
		c.bindings[param.Name] = reg
		params = append(params, reg)
		if err := c.emit(op.LoadArg, reg); err != nil {
			return err
		}
	}
	result, err := c.compileExpr(fn.node.Body, false)
	if err != nil {
		return err
	}
	if err := c.emit(op.Return, result); err != nil {
		return err
	}
	c.regs.free(result)
	for _, reg := range params {
		c.regs.unpin(reg)
		c.regs.free(reg)
	}
	return nil
}

func (fn *function) label() string {
	if fn.name != "" {
		return fn.name
	}
	return "<lambda>"
}

// compileExpr compiles node and returns the register holding its value.
// When deferred is set, tables and lists outside function bodies become
// thunks instead of being built in place.
func (c *Compiler) compileExpr(node ast.Expr, deferred bool) (uint32, error) {
	switch node := node.(type) {
	case *ast.Int:
		return c.loadConstant(node, bytecode.Int(node.Value))
	case *ast.String:
		return c.loadConstant(node, bytecode.String(node.Value))
	case *ast.Bool:
		var v int64
		if node.Value {
			v = 1
		}
		return c.loadConstant(node, bytecode.Int(v))
	case *ast.Ident:
		return c.compileIdent(node)
	case *ast.Prefix:
		return c.compilePrefix(node)
	case *ast.Infix:
		return c.compileInfix(node)
	case *ast.Table, *ast.List:
		if deferred && !c.inFunction {
			return c.compileDeferred(node)
		}
		return c.compileComposite(node)
	case *ast.Func:
		return c.compileFunc(node, "")
	case *ast.Call:
		return c.compileCall(node)
	default:
		return 0, c.errorAt(node, errz.UnexpectExpr, "unexpected expression %s", describe(node))
	}
}

func (c *Compiler) loadConstant(node ast.Node, value bytecode.Constant) (uint32, error) {
	reg, err := c.allocFor(node)
	if err != nil {
		return 0, err
	}
	return reg, c.emitAt(node, op.LoadConst, reg, c.constant(value))
}

func (c *Compiler) compileIdent(node *ast.Ident) (uint32, error) {
	reg, ok := c.bindings[node.Name]
	if !ok {
		return 0, c.errorAt(node, errz.NotFoundVariable, "variable %q not found", node.Name)
	}
	return reg, nil
}

func (c *Compiler) compilePrefix(node *ast.Prefix) (uint32, error) {
	switch node.Op {
	case "+":
		return c.compileExpr(node.X, false)
	case "-":
		zero, err := c.loadConstant(node, bytecode.Int(0))
		if err != nil {
			return 0, err
		}
		return c.binary(node, op.Sub, zero, node.X)
	default:
		return 0, c.errorAt(node, errz.UnexpectExpr, "unknown operator: %s", node.Op)
	}
}

func (c *Compiler) compileInfix(node *ast.Infix) (uint32, error) {
	code, ok := binaryOps[node.Op]
	if !ok {
		return 0, c.errorAt(node, errz.UnexpectExpr, "unknown operator: %s", node.Op)
	}
	lhs, err := c.compileExpr(node.X, false)
	if err != nil {
		return 0, err
	}
	return c.binary(node, code, lhs, node.Y)
}

var binaryOps = map[string]op.Code{
	"+": op.Add,
	"-": op.Sub,
	"*": op.Mul,
	"/": op.Div,
}

// binary compiles rhs and emits code with a fresh destination. Both
// operand registers are released.
func (c *Compiler) binary(node ast.Node, code op.Code, lhs uint32, rhs ast.Expr) (uint32, error) {
	right, err := c.compileExpr(rhs, false)
	if err != nil {
		return 0, err
	}
	dst, err := c.allocFor(node)
	if err != nil {
		return 0, err
	}
	if err := c.emitAt(node, code, dst, lhs, right); err != nil {
		return 0, err
	}
	c.regs.free(lhs)
	c.regs.free(right)
	return dst, nil
}

func (c *Compiler) compileDeferred(node ast.Expr) (uint32, error) {
	c.thunks = append(c.thunks, &thunk{expr: node})
	reg, err := c.allocFor(node)
	if err != nil {
		return 0, err
	}
	return reg, c.emitAt(node, op.MakeThunk, reg, uint32(len(c.thunks)))
}

// compileComposite builds a table or list in place. Nested composites are
// deferred.
func (c *Compiler) compileComposite(node ast.Expr) (uint32, error) {
	switch node := node.(type) {
	case *ast.Table:
		return c.compileTable(node)
	case *ast.List:
		return c.compileList(node)
	default:
		return c.compileExpr(node, false)
	}
}

func (c *Compiler) compileTable(node *ast.Table) (uint32, error) {
	table, err := c.allocFor(node)
	if err != nil {
		return 0, err
	}
	if err := c.emitAt(node, op.MakeTable, table); err != nil {
		return 0, err
	}
	for _, field := range node.Fields {
		key, err := c.loadConstant(field.Value, bytecode.String(field.Key()))
		if err != nil {
			return 0, err
		}
		value, err := c.compileExpr(field.Value, true)
		if err != nil {
			return 0, err
		}
		if err := c.emitAt(field.Value, op.SetAttr, table, key, value); err != nil {
			return 0, err
		}
		c.regs.free(key)
		c.regs.free(value)
	}
	return table, nil
}

func (c *Compiler) compileList(node *ast.List) (uint32, error) {
	list, err := c.allocFor(node)
	if err != nil {
		return 0, err
	}
	if err := c.emitAt(node, op.MakeList, list); err != nil {
		return 0, err
	}
	for _, item := range node.Items {
		value, err := c.compileExpr(item, true)
		if err != nil {
			return 0, err
		}
		if err := c.emitAt(item, op.AddList, list, value); err != nil {
			return 0, err
		}
		c.regs.free(value)
	}
	return list, nil
}

// compileFunc registers the function body for later emission and returns
// a register holding the function value.
func (c *Compiler) compileFunc(node *ast.Func, name string) (uint32, error) {
	index := c.addFunction(node, name)
	reg, err := c.allocFor(node)
	if err != nil {
		return 0, err
	}
	return reg, c.emitAt(node, op.MakeFunc, reg, index)
}

func (c *Compiler) addFunction(node *ast.Func, name string) uint32 {
	c.functions = append(c.functions, &function{name: name, node: node})
	return uint32(len(c.functions))
}

// compileCall pushes the arguments left to right, then calls either the
// bound variable holding a function or the named global function.
func (c *Compiler) compileCall(node *ast.Call) (uint32, error) {
	name := node.Fun.Name
	bound, isBound := c.bindings[name]
	if !isBound {
		fn, ok := c.library[name]
		if !ok {
			return 0, c.errorAt(node.Fun, errz.NotFoundFunction, "function %q not found", name)
		}
		if len(fn.Params) != len(node.Args) {
			return 0, c.errorAt(node, errz.ArityMismatch,
				"function %s takes %d argument(s) (%d given)", name, len(fn.Params), len(node.Args))
		}
		if _, ok := c.globals[name]; !ok {
			c.globals[name] = c.addFunction(fn, name)
		}
	}
	for _, arg := range node.Args {
		reg, err := c.compileExpr(arg, false)
		if err != nil {
			return 0, err
		}
		if err := c.emitAt(arg, op.PushArg, reg); err != nil {
			return 0, err
		}
		c.regs.free(reg)
	}
	callee := bound
	if !isBound {
		var err error
		if callee, err = c.loadConstant(node.Fun, bytecode.String(name)); err != nil {
			return 0, err
		}
	}
	dst, err := c.allocFor(node)
	if err != nil {
		return 0, err
	}
	if err := c.emitAt(node, op.Call, dst, callee); err != nil {
		return 0, err
	}
	c.regs.free(callee)
	return dst, nil
}

// constant interns value in the pool and returns its 1-based index.
func (c *Compiler) constant(value bytecode.Constant) uint32 {
	if idx, ok := c.constants[value]; ok {
		return idx
	}
	c.constOrder = append(c.constOrder, value)
	idx := uint32(len(c.constOrder))
	c.constants[value] = idx
	return idx
}

// position returns the index of the next instruction.
func (c *Compiler) position() uint32 {
	return uint32(len(c.code) / op.WordSize)
}

func (c *Compiler) emit(code op.Code, operands ...uint32) error {
	return c.emitAt(nil, code, operands...)
}

func (c *Compiler) emitAt(node ast.Node, code op.Code, operands ...uint32) error {
	word, err := op.Encode(code, operands...)
	if err != nil {
		if node != nil {
			if e, ok := err.(*errz.Error); ok {
				e.Location = c.location(node)
			}
		}
		return err
	}
	c.code = append(c.code, word[:]...)
	return nil
}

func (c *Compiler) allocFor(node ast.Node) (uint32, error) {
	reg, err := c.regs.alloc()
	if err != nil {
		return 0, c.errorAt(node, errz.RegisterOverflow,
			"expression needs more than %d registers", op.NumRegisters)
	}
	return reg, nil
}

// assemble builds the program from the emitted code and tables.
func (c *Compiler) assemble() *bytecode.Program {
	program := &bytecode.Program{Code: c.code}
	for _, t := range c.thunks {
		program.Thunks = append(program.Thunks, t.offset)
	}
	for _, fn := range c.functions {
		program.Functions = append(program.Functions, bytecode.FunctionEntry{
			NumArgs: uint32(len(fn.node.Params)),
			Offset:  fn.offset,
		})
	}
	// Names are interned before the pool is frozen.
	for name, index := range c.globals {
		program.Globals = append(program.Globals, bytecode.GlobalEntry{
			Name:     c.constant(bytecode.String(name)),
			Function: index,
		})
	}
	sort.Slice(program.Globals, func(i, j int) bool {
		return program.Globals[i].Function < program.Globals[j].Function
	})
	program.Constants = append([]bytecode.Constant(nil), c.constOrder...)
	return program
}

func (c *Compiler) location(node ast.Node) errz.SourceLocation {
	if node == nil {
		return errz.SourceLocation{}
	}
	pos := node.Pos()
	loc := errz.SourceLocation{
		Filename: pos.File,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
	}
	if loc.Filename == "" {
		loc.Filename = c.filename
	}
	if pos.Line >= 0 && pos.Line < len(c.lines) {
		loc.Source = c.lines[pos.Line]
	}
	return loc
}

func (c *Compiler) errorAt(node ast.Node, kind errz.Kind, format string, args ...any) *errz.Error {
	return errz.NewAt(kind, c.location(node), format, args...)
}

func describe(node ast.Node) string {
	if node == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T %s", node, node.String())
}
