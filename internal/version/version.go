// Package version holds build identification for the tpcheck CLI.
package version

// These variables can be overridden at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)
