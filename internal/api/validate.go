package api

import (
	"bytes"
	"log/slog"
	"math"

	"github.com/tidwall/gjson"
)

// ParseDiagnostics interprets raw JSON as a diagnostic batch, validating the
// structure of every entry. It never fails: any non-conformance — wrong
// shape, wrong types, missing fields, out-of-range severity — drops the
// whole batch and yields an empty one, logging a warning. Partial batches
// are never produced; one malformed entry poisons the lot. Empty and
// whitespace-only input likewise yield an empty batch.
func ParseDiagnostics(data []byte, log *slog.Logger) DiagnosticBatch {
	if log == nil {
		log = slog.Default()
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return DiagnosticBatch{}
	}

	root := gjson.ParseBytes(trimmed)
	if !root.IsObject() {
		log.Warn("diagnostic payload is not an object, dropping batch")
		return DiagnosticBatch{}
	}

	list := root.Get("diagnostics")
	if !list.Exists() || !list.IsArray() {
		log.Warn("diagnostic payload has no diagnostics array, dropping batch")
		return DiagnosticBatch{}
	}

	entries := list.Array()
	out := make([]Diagnostic, 0, len(entries))
	for _, el := range entries {
		d, ok := parseDiagnostic(el)
		if !ok {
			log.Warn("malformed diagnostic entry, dropping batch", "entry", el.Raw)
			return DiagnosticBatch{}
		}
		out = append(out, d)
	}

	return DiagnosticBatch{Diagnostics: out}
}

func parseDiagnostic(v gjson.Result) (Diagnostic, bool) {
	if !v.IsObject() {
		return Diagnostic{}, false
	}

	rng, ok := parseRange(v.Get("range"))
	if !ok {
		return Diagnostic{}, false
	}

	sev := v.Get("severity")
	if !isInteger(sev) || !Severity(sev.Int()).Valid() {
		return Diagnostic{}, false
	}

	msg := v.Get("message")
	if msg.Type != gjson.String {
		return Diagnostic{}, false
	}

	d := Diagnostic{
		Range:    rng,
		Severity: Severity(sev.Int()),
		Message:  msg.String(),
	}

	if code := v.Get("code"); code.Exists() {
		switch {
		case code.Type == gjson.String:
			d.Code = code.String()
		case isInteger(code):
			d.Code = int(code.Int())
		default:
			return Diagnostic{}, false
		}
	}

	if src := v.Get("source"); src.Exists() {
		if src.Type != gjson.String {
			return Diagnostic{}, false
		}
		d.Source = src.String()
	}

	return d, true
}

func parseRange(v gjson.Result) (Range, bool) {
	if !v.IsObject() {
		return Range{}, false
	}
	start, ok := parsePosition(v.Get("start"))
	if !ok {
		return Range{}, false
	}
	end, ok := parsePosition(v.Get("end"))
	if !ok {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}

func parsePosition(v gjson.Result) (Position, bool) {
	if !v.IsObject() {
		return Position{}, false
	}
	line := v.Get("line")
	char := v.Get("character")
	if !isInteger(line) || !isInteger(char) || line.Int() < 0 || char.Int() < 0 {
		return Position{}, false
	}
	return Position{Line: int(line.Int()), Character: int(char.Int())}, true
}

// isInteger reports whether v is a JSON number with no fractional part.
func isInteger(v gjson.Result) bool {
	return v.Type == gjson.Number && v.Num == math.Trunc(v.Num)
}
