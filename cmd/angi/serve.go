package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/angi-lang/angi"
	"github.com/angi-lang/angi/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <file>",
		Short: "Compile a program and serve its routes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			machine, err := angi.Load(context.Background(), string(src),
				angi.WithFilename(filepath.Base(args[0])),
				angi.WithLogger(log.Logger))
			if err != nil {
				return err
			}
			opts := []server.Option{
				server.WithLogger(log.Logger),
				server.WithHost(viper.GetString("host")),
				server.WithPort(viper.GetInt("port")),
			}
			if dir := viper.GetString("templates"); dir != "" {
				opts = append(opts, server.WithAssets(server.DirAssets(dir)))
			}
			s, err := server.New(machine, opts...)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.ListenAndServe(ctx)
		},
	}
	cmd.Flags().String("host", "", "interface to listen on")
	cmd.Flags().Int("port", 0, "port to listen on (overrides the program's port)")
	cmd.Flags().String("templates", "templates", "directory of HTML templates")
	viper.BindPFlag("host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("templates", cmd.Flags().Lookup("templates"))
	return cmd
}
