package api

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseDiagnosticsEmptyInput(t *testing.T) {
	log := discardLogger()

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		batch := ParseDiagnostics([]byte(input), log)
		if len(batch.Diagnostics) != 0 {
			t.Errorf("ParseDiagnostics(%q): got %d diagnostics, want 0", input, len(batch.Diagnostics))
		}
	}
}

func TestParseDiagnosticsMalformed(t *testing.T) {
	log := discardLogger()

	tests := []struct {
		name  string
		input string
	}{
		{"truncated", `{"diagnostics":[`},
		{"not an object", `[1,2,3]`},
		{"scalar", `42`},
		{"missing diagnostics", `{"results":[]}`},
		{"diagnostics not array", `{"diagnostics":{"a":1}}`},
		{"entry not object", `{"diagnostics":["oops"]}`},
		{"missing message", `{"diagnostics":[{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"severity":1}]}`},
		{"message not string", `{"diagnostics":[{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"severity":1,"message":7}]}`},
		{"severity out of range", `{"diagnostics":[{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"severity":5,"message":"x"}]}`},
		{"severity zero", `{"diagnostics":[{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"severity":0,"message":"x"}]}`},
		{"severity fractional", `{"diagnostics":[{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"severity":1.5,"message":"x"}]}`},
		{"severity string", `{"diagnostics":[{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"severity":"error","message":"x"}]}`},
		{"missing range", `{"diagnostics":[{"severity":1,"message":"x"}]}`},
		{"range missing end", `{"diagnostics":[{"range":{"start":{"line":0,"character":0}},"severity":1,"message":"x"}]}`},
		{"line not integer", `{"diagnostics":[{"range":{"start":{"line":1.2,"character":0},"end":{"line":2,"character":0}},"severity":1,"message":"x"}]}`},
		{"line negative", `{"diagnostics":[{"range":{"start":{"line":-1,"character":0},"end":{"line":2,"character":0}},"severity":1,"message":"x"}]}`},
		{"line string", `{"diagnostics":[{"range":{"start":{"line":"3","character":0},"end":{"line":4,"character":0}},"severity":1,"message":"x"}]}`},
		{"code wrong type", `{"diagnostics":[{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"severity":1,"message":"x","code":true}]}`},
		{"source wrong type", `{"diagnostics":[{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"severity":1,"message":"x","source":9}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := ParseDiagnostics([]byte(tt.input), log)
			if len(batch.Diagnostics) != 0 {
				t.Errorf("got %d diagnostics, want 0", len(batch.Diagnostics))
			}
		})
	}
}

// One malformed entry drops the whole batch, not just the bad entry.
func TestParseDiagnosticsAllOrNothing(t *testing.T) {
	input := `{"diagnostics":[
		{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":3}},"severity":1,"message":"good"},
		{"range":{"start":{"line":1,"character":0},"end":{"line":1,"character":3}},"severity":9,"message":"bad"}
	]}`

	batch := ParseDiagnostics([]byte(input), discardLogger())
	if len(batch.Diagnostics) != 0 {
		t.Errorf("got %d diagnostics, want 0 (batch must not be partially filtered)", len(batch.Diagnostics))
	}
}

func TestParseDiagnosticsWellFormed(t *testing.T) {
	input := `{"diagnostics":[
		{"range":{"start":{"line":3,"character":2},"end":{"line":3,"character":10}},
		 "severity":2,"message":"label unused","code":17,"source":"tp-lint"},
		{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":0}},
		 "severity":4,"message":"no header comment"}
	]}`

	batch := ParseDiagnostics([]byte(input), discardLogger())
	if len(batch.Diagnostics) != 2 {
		t.Fatalf("got %d diagnostics, want 2", len(batch.Diagnostics))
	}

	first := batch.Diagnostics[0]
	if first.Severity != SeverityWarning {
		t.Errorf("severity: got %v, want %v", first.Severity, SeverityWarning)
	}
	if first.Code != 17 {
		t.Errorf("code: got %v (%T), want 17", first.Code, first.Code)
	}
	if first.Source != "tp-lint" {
		t.Errorf("source: got %q", first.Source)
	}

	// Server order is preserved, not re-sorted: the second entry starts
	// earlier in the document but stays second.
	if batch.Diagnostics[1].Message != "no header comment" {
		t.Errorf("order not preserved: got %q second", batch.Diagnostics[1].Message)
	}
}

// Encoding a well-formed batch and decoding it through the validator yields
// an equal batch.
func TestParseDiagnosticsRoundTrip(t *testing.T) {
	original := DiagnosticBatch{Diagnostics: []Diagnostic{
		{
			Range:    Range{Start: Position{Line: 1, Character: 4}, End: Position{Line: 1, Character: 9}},
			Severity: SeverityError,
			Message:  "undefined position register",
			Code:     "TPP031",
			Source:   "tp-lint",
		},
		{
			Range:    Range{Start: Position{Line: 7, Character: 0}, End: Position{Line: 8, Character: 0}},
			Severity: SeverityInformation,
			Message:  "consider a comment",
		},
	}}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded := ParseDiagnostics(data, discardLogger())
	if !reflect.DeepEqual(decoded, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
}

func TestSeverityValid(t *testing.T) {
	for s := SeverityError; s <= SeverityHint; s++ {
		if !s.Valid() {
			t.Errorf("Severity(%d).Valid(): got false, want true", s)
		}
	}
	for _, s := range []Severity{0, 5, -1, 100} {
		if s.Valid() {
			t.Errorf("Severity(%d).Valid(): got true, want false", s)
		}
	}
}
