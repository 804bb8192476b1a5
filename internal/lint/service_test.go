package lint

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"tpcheck/internal/api"
	"tpcheck/internal/document"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAnalyzer scripts remote responses for tests.
type fakeAnalyzer struct {
	mu        sync.Mutex
	checks    []string // contents passed to Check
	batch     api.DiagnosticBatch
	err       error
	blocked   chan struct{} // when non-nil, Check blocks until closed
	started   chan struct{} // signalled when Check begins
	formatRes api.FormatResult
}

func (f *fakeAnalyzer) Check(ctx context.Context, content string, opts api.CheckOptions) (api.DiagnosticBatch, error) {
	f.mu.Lock()
	f.checks = append(f.checks, content)
	started := f.started
	blocked := f.blocked
	batch, err := f.batch, f.err
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if blocked != nil {
		<-blocked
	}
	return batch, err
}

func (f *fakeAnalyzer) Format(ctx context.Context, content string) (api.FormatResult, error) {
	return f.formatRes, f.err
}

func (f *fakeAnalyzer) Compliance(ctx context.Context, content string, opts api.ComplianceOptions) (api.DiagnosticBatch, error) {
	return f.batch, f.err
}

func (f *fakeAnalyzer) checkContents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.checks))
	copy(out, f.checks)
	return out
}

func errorBatch(msg string) api.DiagnosticBatch {
	return api.DiagnosticBatch{Diagnostics: []api.Diagnostic{{
		Range:    api.Range{End: api.Position{Character: 1}},
		Severity: api.SeverityError,
		Message:  msg,
	}}}
}

func TestChangedDebouncesToLastContent(t *testing.T) {
	fake := &fakeAnalyzer{batch: errorBatch("bad motion")}
	store := document.NewStore(document.WithLogger(testLogger()))
	svc := New(fake, store, 40*time.Millisecond, WithLogger(testLogger()))
	defer svc.Shutdown()

	if err := svc.Changed("a.ls", "draft one"); err != nil {
		t.Fatalf("Changed: %v", err)
	}
	if err := svc.Changed("a.ls", "draft two"); err != nil {
		t.Fatalf("Changed: %v", err)
	}

	time.Sleep(250 * time.Millisecond)

	checks := fake.checkContents()
	if len(checks) != 1 {
		t.Fatalf("checks: got %d, want 1 (%v)", len(checks), checks)
	}
	if checks[0] != "draft two" {
		t.Errorf("checked content: got %q, want %q", checks[0], "draft two")
	}

	diags := store.Diagnostics("a.ls")
	if len(diags) != 1 || diags[0].Message != "bad motion" {
		t.Errorf("diagnostics: got %+v", diags)
	}
}

func TestSavedDispatchesImmediately(t *testing.T) {
	fake := &fakeAnalyzer{batch: errorBatch("x")}
	store := document.NewStore(document.WithLogger(testLogger()))
	// Debounce far longer than the test: only immediate execution can pass.
	svc := New(fake, store, 10*time.Second, WithLogger(testLogger()))
	defer svc.Shutdown()

	if err := svc.Saved("a.ls", "saved"); err != nil {
		t.Fatalf("Saved: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(fake.checkContents()) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Saved did not dispatch before the debounce window")
}

func TestStaleResultDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	fake := &fakeAnalyzer{batch: errorBatch("stale finding"), blocked: release, started: started}
	store := document.NewStore(document.WithLogger(testLogger()))
	svc := New(fake, store, 10*time.Millisecond, WithLogger(testLogger()))
	defer svc.Shutdown()

	if err := svc.Changed("a.ls", "v1"); err != nil {
		t.Fatalf("Changed: %v", err)
	}
	<-started // dispatch captured version 1

	// The document changes while the response is in flight.
	if _, err := store.Update("a.ls", "v2"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	close(release)

	time.Sleep(100 * time.Millisecond)

	if diags := store.Diagnostics("a.ls"); len(diags) != 0 {
		t.Errorf("stale diagnostics applied: %+v", diags)
	}
}

func TestApplyHandlerNotified(t *testing.T) {
	fake := &fakeAnalyzer{batch: errorBatch("notify me")}
	store := document.NewStore(document.WithLogger(testLogger()))

	notified := make(chan []api.Diagnostic, 1)
	svc := New(fake, store, 10*time.Millisecond,
		WithLogger(testLogger()),
		WithApplyHandler(func(path string, diags []api.Diagnostic) {
			if path == "a.ls" {
				notified <- diags
			}
		}),
	)
	defer svc.Shutdown()

	if err := svc.Open("a.ls", "content"); err != nil {
		t.Fatalf("Open: %v", err)
	}

	select {
	case diags := <-notified:
		if len(diags) != 1 || diags[0].Message != "notify me" {
			t.Errorf("handler diagnostics: got %+v", diags)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("apply handler never called")
	}
}

func TestCloseDiscardsPendingWork(t *testing.T) {
	fake := &fakeAnalyzer{}
	store := document.NewStore(document.WithLogger(testLogger()))
	svc := New(fake, store, 50*time.Millisecond, WithLogger(testLogger()))
	defer svc.Shutdown()

	svc.Changed("a.ls", "content")
	svc.Close("a.ls")

	time.Sleep(200 * time.Millisecond)

	if got := fake.checkContents(); len(got) != 0 {
		t.Errorf("checks after Close: got %v, want none", got)
	}
	if _, ok := store.Get("a.ls"); ok {
		t.Error("document still tracked after Close")
	}
}

func TestRunCompliance(t *testing.T) {
	fake := &fakeAnalyzer{batch: errorBatch("rule violation")}
	store := document.NewStore(document.WithLogger(testLogger()))
	svc := New(fake, store, time.Second, WithLogger(testLogger()))
	defer svc.Shutdown()

	store.Open("a.ls", "content")

	batch, err := svc.RunCompliance(context.Background(), "a.ls")
	if err != nil {
		t.Fatalf("RunCompliance: %v", err)
	}
	if len(batch.Diagnostics) != 1 {
		t.Fatalf("batch: got %d diagnostics, want 1", len(batch.Diagnostics))
	}
	if diags := store.Diagnostics("a.ls"); len(diags) != 1 {
		t.Errorf("store diagnostics: got %+v", diags)
	}
}

func TestFormatPassesThrough(t *testing.T) {
	fake := &fakeAnalyzer{formatRes: api.FormatResult{Content: "/PROG A\n/END\n"}}
	store := document.NewStore(document.WithLogger(testLogger()))
	svc := New(fake, store, time.Second, WithLogger(testLogger()))
	defer svc.Shutdown()

	store.Open("a.ls", "messy")

	res, err := svc.Format(context.Background(), "a.ls")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if res.Content != "/PROG A\n/END\n" {
		t.Errorf("content: got %q", res.Content)
	}

	if _, err := svc.Format(context.Background(), "missing.ls"); err == nil {
		t.Error("Format of untracked document should fail")
	}
}
