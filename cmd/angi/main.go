// Command angi compiles, checks, evaluates and serves Angi programs.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var red = color.New(color.FgRed).SprintFunc()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:           "angi",
		Short:         "Compile and serve Angi configuration programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfgFile); err != nil {
				return err
			}
			if viper.GetBool("no-color") {
				color.NoColor = true
			}
			_, err := setupLogger(cmd.ErrOrStderr())
			return err
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.angi.yaml)")
	flags.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "auto", "log format (auto, console, json)")
	flags.Bool("no-color", false, "disable colored output")
	viper.BindPFlag("log-level", flags.Lookup("log-level"))
	viper.BindPFlag("log-format", flags.Lookup("log-format"))
	viper.BindPFlag("no-color", flags.Lookup("no-color"))

	root.AddCommand(
		newBuildCmd(),
		newCheckCmd(),
		newEvalCmd(),
		newServeCmd(),
		newDebugCmd(),
		newVersionCmd(),
	)
	return root
}

// initConfig reads the optional config file and ANGI_ environment
// variables.
func initConfig(cfgFile string) error {
	viper.SetEnvPrefix("angi")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".angi")
		viper.SetConfigType("yaml")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "angi %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

func fatal(msg any) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		if friendly, ok := msg.(interface{ FriendlyErrorMessage() string }); ok {
			s = strings.TrimSuffix(friendly.FriendlyErrorMessage(), "\n")
		} else {
			s = msg.Error()
		}
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}
