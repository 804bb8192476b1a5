// Package document tracks the text documents the analysis pipeline operates
// on. Each document carries a monotonically increasing version, bumped on
// every content update, and the diagnostics most recently accepted for it.
//
// The store is the only place analysis results become visible. A result is
// applied through ApplyDiagnostics together with the version captured when
// its request was dispatched; if the document has changed since, the result
// is stale and silently dropped (observable only in debug logging). This
// guards against an edit racing a response and old findings describing new
// content.
package document

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"tpcheck/internal/api"
)

// Standard errors returned by the store.
var (
	// ErrNotTracked indicates the document is not in the store.
	ErrNotTracked = errors.New("document not tracked")

	// ErrAlreadyTracked indicates the document is already in the store.
	ErrAlreadyTracked = errors.New("document already tracked")
)

// Document is a tracked text document with its diagnostics.
type Document struct {
	Path    string
	Content string
	Version int64

	Diagnostics []api.Diagnostic

	// Aggregated counts by severity
	Errors   int
	Warnings int
	Infos    int
	Hints    int

	OpenedAt   time.Time
	ModifiedAt time.Time
	CheckedAt  time.Time
}

// Store holds tracked documents. All methods are safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
	log  *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for stale-drop observability.
func WithLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStore creates an empty document store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		docs: make(map[string]*Document),
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts tracking a document at version 1.
func (s *Store) Open(path, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[path]; exists {
		return ErrAlreadyTracked
	}

	now := time.Now()
	s.docs[path] = &Document{
		Path:       path,
		Content:    content,
		Version:    1,
		OpenedAt:   now,
		ModifiedAt: now,
	}
	return nil
}

// Update replaces a document's content and bumps its version. Returns the
// new version.
func (s *Store) Update(path, content string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		return 0, ErrNotTracked
	}

	doc.Content = content
	doc.Version++
	doc.ModifiedAt = time.Now()
	return doc.Version, nil
}

// Snapshot returns a document's current content and version. The version is
// what a dispatched operation later presents to ApplyDiagnostics.
func (s *Store) Snapshot(path string) (content string, version int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[path]
	if !ok {
		return "", 0, ErrNotTracked
	}
	return doc.Content, doc.Version, nil
}

// ApplyDiagnostics installs a batch produced against the given version.
// It reports false, leaving existing diagnostics untouched, when the
// document is gone or has changed since the version was captured.
func (s *Store) ApplyDiagnostics(path string, version int64, batch api.DiagnosticBatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[path]
	if !ok {
		s.log.Debug("diagnostics for untracked document dropped", "path", path)
		return false
	}
	if doc.Version != version {
		s.log.Debug("stale diagnostics dropped",
			"path", path, "result_version", version, "current_version", doc.Version)
		return false
	}

	doc.Diagnostics = make([]api.Diagnostic, len(batch.Diagnostics))
	copy(doc.Diagnostics, batch.Diagnostics)
	doc.CheckedAt = time.Now()

	doc.Errors, doc.Warnings, doc.Infos, doc.Hints = 0, 0, 0, 0
	for _, d := range doc.Diagnostics {
		switch d.Severity {
		case api.SeverityError:
			doc.Errors++
		case api.SeverityWarning:
			doc.Warnings++
		case api.SeverityInformation:
			doc.Infos++
		case api.SeverityHint:
			doc.Hints++
		}
	}
	return true
}

// Diagnostics returns a copy of the document's current diagnostics, or nil
// if the document is not tracked.
func (s *Store) Diagnostics(path string) []api.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[path]
	if !ok || len(doc.Diagnostics) == 0 {
		return nil
	}
	out := make([]api.Diagnostic, len(doc.Diagnostics))
	copy(out, doc.Diagnostics)
	return out
}

// Get returns a copy of the full document record.
func (s *Store) Get(path string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[path]
	if !ok {
		return Document{}, false
	}
	out := *doc
	out.Diagnostics = make([]api.Diagnostic, len(doc.Diagnostics))
	copy(out.Diagnostics, doc.Diagnostics)
	return out, true
}

// Close stops tracking a document. Closing an untracked path is a no-op.
func (s *Store) Close(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
}

// Paths returns the paths of all tracked documents.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.docs))
	for p := range s.docs {
		paths = append(paths, p)
	}
	return paths
}

// HasErrors reports whether a document has any error-severity diagnostics.
func (s *Store) HasErrors(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[path]
	return ok && doc.Errors > 0
}

// Summary is an aggregate view across all tracked documents.
type Summary struct {
	Documents int
	Errors    int
	Warnings  int
	Infos     int
	Hints     int
}

// Summarize returns aggregate diagnostic counts.
func (s *Store) Summarize() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{Documents: len(s.docs)}
	for _, doc := range s.docs {
		sum.Errors += doc.Errors
		sum.Warnings += doc.Warnings
		sum.Infos += doc.Infos
		sum.Hints += doc.Hints
	}
	return sum
}
