package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// setupLogger configures the global zerolog logger from the log-level and
// log-format settings.
func setupLogger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return zerolog.Nop(), err
	}
	format := viper.GetString("log-format")
	if format == "auto" {
		format = "json"
		if f, ok := w.(*os.File); ok && isTerminal(f) {
			format = "console"
		}
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: viper.GetBool("no-color")}
	}
	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	log.Logger = logger
	return logger, nil
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "source code to use instead of a file")
	cmd.Flags().Bool("stdin", false, "read source code from stdin")
}

// readSource returns the program source and its filename. The source comes
// from --code, --stdin or the first argument, exactly one of which must be
// given.
func readSource(cmd *cobra.Command, args []string) (string, string, error) {
	codeSet := cmd.Flags().Changed("code")
	stdinSet, _ := cmd.Flags().GetBool("stdin")
	pathSupplied := len(args) > 0
	count := 0
	for _, set := range []bool{codeSet, stdinSet, pathSupplied} {
		if set {
			count++
		}
	}
	if count > 1 {
		return "", "", errors.New("multiple input sources specified")
	}
	switch {
	case stdinSet:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", err
		}
		return string(data), "<stdin>", nil
	case pathSupplied:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return string(data), filepath.Base(args[0]), nil
	case codeSet:
		code, _ := cmd.Flags().GetString("code")
		return code, "<code>", nil
	}
	return "", "", errors.New("no input provided")
}
