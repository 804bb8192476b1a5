// Command tpcheck lints, formats, and compliance-checks FANUC TP programs
// against the remote analysis service.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tpcheck/internal/api"
	"tpcheck/internal/config"
	"tpcheck/internal/version"
)

var (
	flagConfig  string
	flagServer  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "tpcheck",
	Short:         "Remote analysis client for FANUC TP programs",
	Long:          "tpcheck sends TP program files to the remote analysis service for linting, formatting, and compliance checking.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version.Version,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", defaultConfigPath(), "path to tpcheck.toml")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "override the analysis server URL")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(complianceCmd)
	rootCmd.AddCommand(watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tpcheck:", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/tpcheck/tpcheck.toml"
	}
	return "tpcheck.toml"
}

// setup loads configuration, applies flag overrides, and builds the shared
// logger and client.
func setup() (config.Config, *slog.Logger, *api.Client, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, nil, nil, err
	}
	if flagServer != "" {
		cfg.Server.URL = flagServer
	}

	level := cfg.LogLevel()
	if flagVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := api.NewClient(cfg.Server.URL,
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(log),
	)
	return cfg, log, client, nil
}
