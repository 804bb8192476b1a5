package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"tpcheck/internal/api"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
	infoColor = color.New(color.FgCyan)
	hintColor = color.New(color.Faint)
)

func severityColor(s api.Severity) *color.Color {
	switch s {
	case api.SeverityError:
		return errColor
	case api.SeverityWarning:
		return warnColor
	case api.SeverityInformation:
		return infoColor
	default:
		return hintColor
	}
}

// formatDiagnostic renders one diagnostic as path:line:col: severity message
// (code). Line and column are converted to 1-based for display.
func formatDiagnostic(path string, d api.Diagnostic) string {
	out := fmt.Sprintf("%s:%d:%d: %s %s",
		path,
		d.Range.Start.Line+1,
		d.Range.Start.Character+1,
		d.Severity,
		d.Message,
	)
	if d.Code != nil {
		out += fmt.Sprintf(" (%v)", d.Code)
	}
	return out
}

// printDiagnostics writes a file's diagnostics sorted by position and
// returns the number of error-severity entries.
func printDiagnostics(w io.Writer, path string, diags []api.Diagnostic) int {
	sorted := make([]api.Diagnostic, len(diags))
	copy(sorted, diags)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Range.Start, sorted[j].Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Character < b.Character
	})

	errs := 0
	for _, d := range sorted {
		severityColor(d.Severity).Fprintln(w, formatDiagnostic(path, d))
		if d.Severity == api.SeverityError {
			errs++
		}
	}
	return errs
}
