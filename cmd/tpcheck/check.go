package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tpcheck/internal/api"
)

var (
	flagFix       bool
	flagFixUnsafe bool
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Lint TP program files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&flagFix, "fix", false, "request safe fix suggestions")
	checkCmd.Flags().BoolVar(&flagFixUnsafe, "fix-unsafe", false, "request fixes that may change behavior")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, _, client, err := setup()
	if err != nil {
		return err
	}

	opts := cfg.CheckOptions()
	if flagFix {
		opts.Fix = true
	}
	if flagFixUnsafe {
		opts.FixUnsafe = true
	}

	results := make([]api.DiagnosticBatch, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(8)
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			batch, err := client.Check(ctx, string(content), opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	errs := 0
	for i, path := range args {
		errs += printDiagnostics(os.Stdout, path, results[i].Diagnostics)
	}
	if errs > 0 {
		return fmt.Errorf("%d error(s) found", errs)
	}
	return nil
}
