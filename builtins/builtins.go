// Package builtins provides the global function library available to every
// program. The library is itself written in Angi: a table of lambdas that is
// embedded in the binary and parsed on first use.
package builtins

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/angi-lang/angi/ast"
	"github.com/angi-lang/angi/parser"
)

//go:embed global.ag
var globalSource string

// Handler kinds produced by the global functions, found in the `type` field
// of the returned table.
const (
	KindHTML         = "html"
	KindHTMLTemplate = "htmlTemplate"
	KindJSON         = "json"
	KindText         = "text"
	KindRedirect     = "redirect"
)

var (
	loadOnce sync.Once
	library  map[string]*ast.Func
	loadErr  error
)

// Functions returns the global function library keyed by function name. The
// returned map is a fresh copy; the function nodes are shared and must not be
// modified.
func Functions() (map[string]*ast.Func, error) {
	loadOnce.Do(func() {
		library, loadErr = Parse(context.Background(), globalSource, "global.ag")
	})
	if loadErr != nil {
		return nil, loadErr
	}
	out := make(map[string]*ast.Func, len(library))
	for name, fn := range library {
		out[name] = fn
	}
	return out, nil
}

// Source returns the embedded library source.
func Source() string {
	return globalSource
}

// Names returns the sorted names of the global functions.
func Names() []string {
	fns, err := Functions()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse reads a function library: a table whose lambda fields become named
// functions. Fields that are not lambdas are ignored.
func Parse(ctx context.Context, source, filename string) (map[string]*ast.Func, error) {
	expr, err := parser.Parse(ctx, source, parser.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	table, ok := expr.(*ast.Table)
	if !ok {
		return nil, fmt.Errorf("function library %s must be a table (got %s)", filename, expr.String())
	}
	fns := map[string]*ast.Func{}
	for _, field := range table.Fields {
		if fn, ok := field.Value.(*ast.Func); ok {
			fns[field.Key()] = fn
		}
	}
	return fns, nil
}
