// Command angi-server serves the program bundled into its own executable by
// "angi build".
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/angi-lang/angi/archive"
	"github.com/angi-lang/angi/server"
	"github.com/angi-lang/angi/vm"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "angi-server",
		Short:         "Serve the bundled Angi program",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			log.Logger = logger
			ex, err := openBundle(viper.GetString("bundle"))
			if err != nil {
				return fmt.Errorf("no bundled program found: %w", err)
			}
			s, err := server.OpenBundle(ex,
				[]vm.Option{vm.WithLogger(logger)},
				server.WithLogger(logger),
				server.WithHost(viper.GetString("host")),
				server.WithPort(viper.GetInt("port")))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.ListenAndServe(ctx)
		},
	}
	flags := cmd.Flags()
	flags.String("host", "", "interface to listen on")
	flags.Int("port", 0, "port to listen on (overrides the program's port)")
	flags.String("bundle", "", "read the bundle from this file instead of the executable")
	flags.String("log-level", "info", "log level")
	for _, name := range []string{"host", "port", "bundle", "log-level"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
	viper.SetEnvPrefix("angi")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	return cmd
}

func openBundle(path string) (*archive.Extractor, error) {
	if path == "" {
		return archive.OpenExecutable()
	}
	return archive.Open(path)
}

func newLogger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return zerolog.Nop(), err
	}
	logger := zerolog.New(os.Stderr)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(level).With().Timestamp().Logger(), nil
}
