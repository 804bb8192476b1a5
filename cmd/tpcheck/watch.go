package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tpcheck/internal/api"
	"tpcheck/internal/document"
	"tpcheck/internal/lint"
	"tpcheck/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and lint TP program files as they change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, log, client, err := setup()
	if err != nil {
		return err
	}

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	store := document.NewStore(document.WithLogger(log))
	svc := lint.New(client, store, cfg.Debounce(),
		lint.WithLogger(log),
		lint.WithCheckOptions(cfg.CheckOptions()),
		lint.WithComplianceOptions(cfg.ComplianceOptions()),
		lint.WithApplyHandler(func(path string, diags []api.Diagnostic) {
			if len(diags) == 0 {
				fmt.Printf("%s: clean\n", path)
				return
			}
			printDiagnostics(os.Stdout, path, diags)
		}),
	)
	defer svc.Shutdown()

	w, err := watch.New(watch.WithExtensions(cfg.Watch.Extensions))
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "watching %s (server %s)\n", dir, cfg.Server.URL)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case path, ok := <-w.Events():
			if !ok {
				return nil
			}
			content, err := os.ReadFile(path)
			if err != nil {
				log.Warn("reading changed file", "path", path, "error", err)
				continue
			}
			if err := svc.Changed(path, string(content)); err != nil {
				log.Warn("scheduling check", "path", path, "error", err)
			}

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		}
	}
}
