package api

import (
	"net/url"
	"strconv"
	"strings"
)

// CheckOptions control the /check operation.
type CheckOptions struct {
	// LSP requests zero-based LSP-style positions in the response.
	LSP bool
	// Fix asks the server to include safe fix suggestions.
	Fix bool
	// FixUnsafe asks the server to include fixes that may change behavior.
	FixUnsafe bool
}

// DefaultCheckOptions returns the server's documented defaults.
func DefaultCheckOptions() CheckOptions {
	return CheckOptions{LSP: true}
}

func (o CheckOptions) values() url.Values {
	q := url.Values{}
	q.Set("lsp", strconv.FormatBool(o.LSP))
	q.Set("fix", strconv.FormatBool(o.Fix))
	q.Set("fix_unsafe", strconv.FormatBool(o.FixUnsafe))
	return q
}

// ComplianceOptions control the /compliance operation. Select and Ignore
// are rule identifiers; empty lists and empty strings are omitted from the
// query entirely rather than sent as empty parameters.
type ComplianceOptions struct {
	LSP      bool
	Select   []string
	Ignore   []string
	Severity string
	Standard string
}

// DefaultComplianceOptions returns the server's documented defaults.
func DefaultComplianceOptions() ComplianceOptions {
	return ComplianceOptions{LSP: true}
}

func (o ComplianceOptions) values() url.Values {
	q := url.Values{}
	q.Set("lsp", strconv.FormatBool(o.LSP))
	if len(o.Select) > 0 {
		q.Set("select", strings.Join(o.Select, ","))
	}
	if len(o.Ignore) > 0 {
		q.Set("ignore", strings.Join(o.Ignore, ","))
	}
	if o.Severity != "" {
		q.Set("severity", o.Severity)
	}
	if o.Standard != "" {
		q.Set("standard", o.Standard)
	}
	return q
}
