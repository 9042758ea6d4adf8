package main

import (
	"context"
	"fmt"

	"github.com/angi-lang/angi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval [file]",
		Short: "Evaluate a program and print the value at a path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("path")
			value, err := angi.Eval(context.Background(), source, path, angi.WithFilename(filename))
			if err != nil {
				return err
			}
			if query, _ := cmd.Flags().GetString("query"); query != "" {
				if value, err = search(query, value); err != nil {
					return err
				}
			}
			format, _ := cmd.Flags().GetString("output")
			out, err := formatOutput(value, format, !viper.GetBool("no-color") && stdoutIsTerminal(cmd))
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().StringP("path", "p", "", "dotted path to evaluate (default is the whole program)")
	cmd.Flags().StringP("output", "o", "", "output format (json, yaml, text)")
	cmd.Flags().StringP("query", "q", "", "JMESPath query applied to the result")
	cmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return outputFormats, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
