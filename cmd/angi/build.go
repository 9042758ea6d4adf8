package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/angi-lang/angi"
	"github.com/angi-lang/angi/archive"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runtimeName is the server executable that bundles are appended to.
const runtimeName = "angi-server"

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Compile a program into a self-contained server executable",
		Long: `Compile a program and append it, together with its templates, to a copy
of the angi-server runtime. The result runs without the source or the
template directory. With --bytecode only the compiled program is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			program, err := angi.CompileProgram(context.Background(), string(src), angi.WithFilename(filepath.Base(args[0])))
			if err != nil {
				return err
			}
			code, err := program.MarshalBinary()
			if err != nil {
				return err
			}
			st := program.Stats()
			log.Debug().
				Int("instructions", st.InstructionCount).
				Int("constants", st.ConstantCount).
				Int("thunks", st.ThunkCount).
				Int("functions", st.FunctionCount).
				Int("globals", st.GlobalCount).
				Msg("compiled")
			output, _ := cmd.Flags().GetString("output")
			bytecodeOnly, _ := cmd.Flags().GetBool("bytecode")
			if bytecodeOnly {
				if output == "" {
					output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".agc"
				}
				if err := os.WriteFile(output, code, 0o644); err != nil {
					return err
				}
				log.Info().Str("output", output).Int("bytes", len(code)).Msg("bytecode written")
				return nil
			}
			if output == "" {
				output = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			templates, _ := cmd.Flags().GetString("templates")
			payload, err := bundle(code, templates)
			if err != nil {
				return err
			}
			runtime, err := runtimePath(viper.GetString("runtime"))
			if err != nil {
				return err
			}
			exe, err := os.ReadFile(runtime)
			if err != nil {
				return fmt.Errorf("reading runtime: %w", err)
			}
			if err := os.WriteFile(output, append(exe, payload...), 0o755); err != nil {
				return err
			}
			log.Info().Str("output", output).Str("runtime", runtime).Int("bundle_bytes", len(payload)).Msg("executable written")
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output path")
	cmd.Flags().Bool("bytecode", false, "write only the compiled program")
	cmd.Flags().String("templates", "", "directory of HTML templates to bundle")
	cmd.Flags().String("runtime", "", "angi-server executable to append to (default: next to angi)")
	viper.BindPFlag("runtime", cmd.Flags().Lookup("runtime"))
	return cmd
}

// bundle builds the archive holding the program and its templates.
func bundle(code []byte, templates string) ([]byte, error) {
	a := archive.New()
	if err := a.Add(archive.BytecodeEntry, code); err != nil {
		return nil, err
	}
	if templates != "" {
		if err := a.AddDir(archive.TemplatePrefix, templates); err != nil {
			return nil, fmt.Errorf("bundling templates: %w", err)
		}
	}
	return a.Bytes()
}

func runtimePath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	self, err := os.Executable()
	if err != nil {
		return "", err
	}
	path := filepath.Join(filepath.Dir(self), runtimeName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%s runtime not found next to %s (use --runtime)", runtimeName, self)
	}
	return path, nil
}
