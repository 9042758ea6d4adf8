package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/angi-lang/angi"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Report unresolved names and arity problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := readSource(cmd, args)
			if err != nil {
				return err
			}
			err = angi.Check(context.Background(), source, angi.WithFilename(filename))
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}
			var merr *multierror.Error
			if errors.As(err, &merr) {
				for _, e := range merr.Errors {
					fmt.Fprintln(cmd.ErrOrStderr(), red(e.Error()))
				}
				return fmt.Errorf("%d problem(s) found", len(merr.Errors))
			}
			return err
		},
	}
	addSourceFlags(cmd)
	return cmd
}
