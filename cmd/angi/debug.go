package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/angi-lang/angi"
	"github.com/angi-lang/angi/archive"
	"github.com/angi-lang/angi/ast"
	"github.com/angi-lang/angi/dis"
	"github.com/angi-lang/angi/internal/lexer"
	"github.com/angi-lang/angi/internal/token"
	"github.com/angi-lang/angi/server"
	"github.com/angi-lang/angi/vm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newDebugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Inspect the stages of compilation",
	}

	lex := &cobra.Command{
		Use:   "lex [file]",
		Short: "Print the tokens of a program",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			return printTokens(cmd.OutOrStdout(), source, filename)
		},
	}
	addSourceFlags(lex)

	tree := &cobra.Command{
		Use:   "ast [file]",
		Short: "Print the syntax tree of a program",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			expr, err := angi.Parse(context.Background(), source, angi.WithFilename(filename))
			if err != nil {
				return err
			}
			ast.Walk(&treePrinter{w: cmd.OutOrStdout()}, expr)
			return nil
		},
	}
	addSourceFlags(tree)

	writebc := &cobra.Command{
		Use:   "writebc <file> <output>",
		Short: "Compile a program and write the bytecode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			code, err := angi.Compile(context.Background(), string(src), angi.WithFilename(filepath.Base(args[0])))
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], code, 0o644)
		},
	}

	readbc := &cobra.Command{
		Use:   "readbc <file>",
		Short: "Disassemble compiled bytecode, a bundle or a built executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if code, err := archive.Program(data); err == nil {
				data = code
			}
			return dis.Dump(data, cmd.OutOrStdout())
		},
	}

	run := &cobra.Command{
		Use:   "run <file>",
		Short: "Load compiled bytecode and print its routes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			machine, err := vm.NewFromFile(args[0], vm.WithLogger(log.Logger))
			if err != nil {
				return err
			}
			s, err := server.New(machine, server.WithLogger(log.Logger))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "port %d\n", s.Port())
			for _, route := range s.Routes() {
				fmt.Fprintf(w, "%-6s %-20s %s\n", route.Method, route.Path, route.Handler.Inspect())
			}
			return nil
		},
	}

	cmd.AddCommand(lex, tree, writebc, readbc, run)
	return cmd
}

func printTokens(w io.Writer, source, filename string) error {
	l := lexer.New(source, lexer.WithFile(filename))
	for {
		tok, err := l.Next()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-8s %-10s %q\n", tok.StartPosition, tok.Type, tok.Literal)
		if tok.Type == token.EOF {
			return nil
		}
	}
}

// treePrinter prints one indented line per node.
type treePrinter struct {
	w     io.Writer
	depth int
}

func (p *treePrinter) Visit(node ast.Node) ast.Visitor {
	if node == nil {
		return nil
	}
	name := strings.TrimPrefix(fmt.Sprintf("%T", node), "*ast.")
	text := node.String()
	if len(text) > 60 {
		text = text[:57] + "..."
	}
	fmt.Fprintf(p.w, "%s%s %s\n", strings.Repeat("  ", p.depth), name, text)
	return &treePrinter{w: p.w, depth: p.depth + 1}
}
