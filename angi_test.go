package angi

import (
	"context"
	"errors"
	"testing"

	"github.com/angi-lang/angi/builtins"
	"github.com/angi-lang/angi/bytecode"
	"github.com/angi-lang/angi/errz"
	"github.com/angi-lang/angi/object"
	"github.com/angi-lang/angi/vm"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		input    string
		path     string
		expected any
	}{
		{`1 + 1`, "", int64(2)},
		{`{ a = 2 * (3 + 4); }`, "a", int64(14)},
		{`{ a = -7 / 2; }`, "a", int64(-3)},
		{`{ s = "hi"; }`, "s", "hi"},
		{`{ on = true; off = false; }`, "off", int64(0)},
		{`{ a.b.c = 1; }`, "a", map[string]any{"b": map[string]any{"c": int64(1)}}},
		{`{ xs = [1, [2, 3]]; }`, "xs", []any{int64(1), []any{int64(2), int64(3)}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := Eval(ctx, tt.input, tt.path)
			require.NoError(t, err)
			require.Equal(t, tt.expected, result)
		})
	}
}

func TestCompileAndLoad(t *testing.T) {
	ctx := context.Background()
	source := `{ port = 8080; page = () => html("<p>ok</p>"); }`
	data, err := Compile(ctx, source)
	require.NoError(t, err)
	h, err := bytecode.ReadHeader(data)
	require.NoError(t, err)
	require.Equal(t, bytecode.Magic, h.Magic)

	machine, err := vm.New(data)
	require.NoError(t, err)
	port, err := vm.Eval[int64](machine, "port")
	require.NoError(t, err)
	require.Equal(t, int64(8080), port)

	loaded, err := Load(ctx, source)
	require.NoError(t, err)
	page, err := vm.Eval[*object.Function](loaded, "page")
	require.NoError(t, err)
	result, err := vm.CallAs[*object.Table](loaded, page)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"type": "html", "html": "<p>ok</p>"}, result.Interface())
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, Check(ctx, `{ a = html("x"); }`))

	err := Check(ctx, `{ a = missing; b = nope(1); c = html(); }`, WithFilename("app.ag"))
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 3)
	require.True(t, errors.Is(merr.Errors[0], errz.ErrNotFoundVariable))
	require.Contains(t, err.Error(), "app.ag")
}

func TestCustomLibrary(t *testing.T) {
	ctx := context.Background()
	lib, err := builtins.Parse(ctx, `{ twice = (x) => x * 2; }`, "lib.ag")
	require.NoError(t, err)

	result, err := Eval(ctx, `{ f = () => twice(21); }`, "f", WithLibrary(lib))
	require.NoError(t, err)
	require.NotNil(t, result)

	_, err = Compile(ctx, `{ a = html("x"); }`, WithLibrary(lib))
	require.True(t, errors.Is(err, errz.ErrNotFoundFunction))
}

func TestMaxCallDepthOption(t *testing.T) {
	ctx := context.Background()
	lib, err := builtins.Parse(ctx, `{ loop = (x) => loop(x); }`, "lib.ag")
	require.NoError(t, err)
	machine, err := Load(ctx, `{ f = () => loop(1); }`, WithLibrary(lib), WithMaxCallDepth(10))
	require.NoError(t, err)
	f, err := vm.Eval[*object.Function](machine, "f")
	require.NoError(t, err)
	_, err = machine.Call(f)
	require.ErrorContains(t, err, "maximum call depth of 10 exceeded")
}

func TestParseError(t *testing.T) {
	_, err := Compile(context.Background(), `{ a = ; }`)
	require.Error(t, err)
}
