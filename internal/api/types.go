package api

// Position in a document expressed as zero-based line and character offset.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range in a document expressed as start and end positions.
// End is exclusive.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Severity of a diagnostic. The wire protocol uses the LSP numeric scale;
// no other values are valid.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the four defined severities.
func (s Severity) Valid() bool {
	return s >= SeverityError && s <= SeverityHint
}

// Diagnostic is a single finding reported by the remote service.
// Code, when present, is a string or an int.
type Diagnostic struct {
	Range    Range    `json:"range"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Code     any      `json:"code,omitempty"`
	Source   string   `json:"source,omitempty"`
}

// DiagnosticBatch is an ordered set of diagnostics as produced by a single
// response. Order is server-assigned and preserved.
type DiagnosticBatch struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// FormatResult holds the reformatted document content returned by /format.
type FormatResult struct {
	Content string `json:"content"`
}
