package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tpcheck/internal/api"
)

var (
	flagSelect   []string
	flagIgnore   []string
	flagSeverity string
	flagStandard string
)

var complianceCmd = &cobra.Command{
	Use:   "compliance [files...]",
	Short: "Check TP program files against a compliance rule set",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompliance,
}

func init() {
	complianceCmd.Flags().StringSliceVar(&flagSelect, "select", nil, "rule ids to enable")
	complianceCmd.Flags().StringSliceVar(&flagIgnore, "ignore", nil, "rule ids to suppress")
	complianceCmd.Flags().StringVar(&flagSeverity, "severity", "", "minimum severity to report")
	complianceCmd.Flags().StringVar(&flagStandard, "standard", "", "compliance standard to apply")
}

func runCompliance(cmd *cobra.Command, args []string) error {
	cfg, _, client, err := setup()
	if err != nil {
		return err
	}

	opts := cfg.ComplianceOptions()
	if len(flagSelect) > 0 {
		opts.Select = flagSelect
	}
	if len(flagIgnore) > 0 {
		opts.Ignore = flagIgnore
	}
	if flagSeverity != "" {
		opts.Severity = flagSeverity
	}
	if flagStandard != "" {
		opts.Standard = flagStandard
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
			batch, err := client.Compliance(ctx, string(content), opts)
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
		return fmt.Errorf("%d violation(s) at error severity", errs)
	}
	return nil
}
