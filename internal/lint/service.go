// Package lint wires the analysis pipeline together: change triggers flow
// through the per-key scheduler into the remote client, and accepted results
// land in the document store behind its version gate.
package lint

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tpcheck/internal/api"
	"tpcheck/internal/document"
	"tpcheck/internal/schedule"
)

// Analyzer is the remote-service surface the pipeline consumes.
// *api.Client satisfies it.
type Analyzer interface {
	Check(ctx context.Context, content string, opts api.CheckOptions) (api.DiagnosticBatch, error)
	Format(ctx context.Context, content string) (api.FormatResult, error)
	Compliance(ctx context.Context, content string, opts api.ComplianceOptions) (api.DiagnosticBatch, error)
}

var _ Analyzer = (*api.Client)(nil)

// ApplyHandler is notified after a diagnostic batch passes the version gate
// and is installed for a document.
type ApplyHandler func(path string, diagnostics []api.Diagnostic)

// Service orchestrates debounced checking of tracked documents.
type Service struct {
	analyzer Analyzer
	store    *document.Store
	sched    *schedule.Scheduler
	log      *slog.Logger

	check      api.CheckOptions
	compliance api.ComplianceOptions
	onApply    ApplyHandler
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithCheckOptions sets the options sent with every check request.
func WithCheckOptions(opts api.CheckOptions) ServiceOption {
	return func(s *Service) {
		s.check = opts
	}
}

// WithComplianceOptions sets the options sent with every compliance request.
func WithComplianceOptions(opts api.ComplianceOptions) ServiceOption {
	return func(s *Service) {
		s.compliance = opts
	}
}

// WithApplyHandler registers a callback for accepted diagnostic batches.
func WithApplyHandler(h ApplyHandler) ServiceOption {
	return func(s *Service) {
		s.onApply = h
	}
}

// New creates a service checking documents through analyzer after the given
// quiet period.
func New(analyzer Analyzer, store *document.Store, debounce time.Duration, opts ...ServiceOption) *Service {
	s := &Service{
		analyzer:   analyzer,
		store:      store,
		log:        slog.Default(),
		check:      api.DefaultCheckOptions(),
		compliance: api.DefaultComplianceOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sched = schedule.New(debounce, schedule.WithLogger(s.log))
	return s
}

// Store returns the underlying document store.
func (s *Service) Store() *document.Store {
	return s.store
}

// Open starts tracking a document and schedules an initial check.
func (s *Service) Open(path, content string) error {
	if err := s.store.Open(path, content); err != nil {
		return err
	}
	s.sched.Schedule(path, content, s.dispatchCheck(path))
	return nil
}

// Changed records new content for a document and schedules a debounced
// check. Unknown paths are opened implicitly, so watcher events for files
// that appeared after startup still get checked.
func (s *Service) Changed(path, content string) error {
	if _, err := s.store.Update(path, content); err != nil {
		if !errors.Is(err, document.ErrNotTracked) {
			return err
		}
		if err := s.store.Open(path, content); err != nil {
			return err
		}
	}
	s.sched.Schedule(path, content, s.dispatchCheck(path))
	return nil
}

// Saved records saved content and checks it immediately, bypassing the
// quiet period and superseding any in-flight check for the document.
func (s *Service) Saved(path, content string) error {
	if _, err := s.store.Update(path, content); err != nil {
		if !errors.Is(err, document.ErrNotTracked) {
			return err
		}
		if err := s.store.Open(path, content); err != nil {
			return err
		}
	}
	s.sched.ExecuteNow(path, content, s.dispatchCheck(path))
	return nil
}

// RunCompliance checks the document against the configured rule set and
// applies the result through the same version gate as regular checks.
func (s *Service) RunCompliance(ctx context.Context, path string) (api.DiagnosticBatch, error) {
	content, version, err := s.store.Snapshot(path)
	if err != nil {
		return api.DiagnosticBatch{}, err
	}

	batch, err := s.analyzer.Compliance(ctx, content, s.compliance)
	if err != nil {
		return api.DiagnosticBatch{}, err
	}

	if s.store.ApplyDiagnostics(path, version, batch) {
		s.notify(path)
	}
	return batch, nil
}

// Format returns the remote service's formatting of the document's current
// content. The caller decides whether to install the result.
func (s *Service) Format(ctx context.Context, path string) (api.FormatResult, error) {
	content, _, err := s.store.Snapshot(path)
	if err != nil {
		return api.FormatResult{}, err
	}
	return s.analyzer.Format(ctx, content)
}

// Close stops tracking a document: any pending or in-flight check is
// cancelled and its diagnostics are discarded.
func (s *Service) Close(path string) {
	s.sched.Teardown(path)
	s.store.Close(path)
}

// Shutdown tears down all scheduler state. The store is left intact for
// final reporting.
func (s *Service) Shutdown() {
	s.sched.Close()
}

// dispatchCheck returns the scheduler dispatch for one document. The
// document version is captured at dispatch time; the result is applied only
// if the version still matches on arrival.
func (s *Service) dispatchCheck(path string) schedule.DispatchFunc {
	return func(ctx context.Context, content string) {
		_, version, err := s.store.Snapshot(path)
		if err != nil {
			return // closed while scheduled
		}

		log := s.log.With("request_id", uuid.NewString(), "path", path, "version", version)

		batch, err := s.analyzer.Check(ctx, content, s.check)
		if err != nil {
			var apiErr *api.Error
			if errors.As(err, &apiErr) && apiErr.Kind == api.KindAborted {
				log.Debug("check superseded")
				return
			}
			log.Warn("check failed", "error", err, "retriable", api.IsRetriable(err))
			return
		}

		if !s.store.ApplyDiagnostics(path, version, batch) {
			log.Debug("stale check result dropped")
			return
		}
		log.Debug("diagnostics applied", "count", len(batch.Diagnostics))
		s.notify(path)
	}
}

func (s *Service) notify(path string) {
	if s.onApply != nil {
		s.onApply(path, s.store.Diagnostics(path))
	}
}
