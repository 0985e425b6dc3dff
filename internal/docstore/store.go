// Package docstore holds the in-memory document collection and its
// request-status flags. All mutation goes through the defined transitions;
// readers get copies via Snapshot.
package docstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mkraev/docquery/internal/errs"
	"github.com/mkraev/docquery/internal/model"
)

// API is the subset of the transport client the store depends on.
type API interface {
	ListDocuments(ctx context.Context) ([]model.Document, error)
	UploadDocument(ctx context.Context, title, filename string, file io.Reader) (model.Document, error)
	DeleteDocument(ctx context.Context, id int64) error
	UpdateDocument(ctx context.Context, id int64, title string) (model.Document, error)
}

// Snapshot is a read-only copy of the collection and its status flags.
type Snapshot struct {
	Documents []model.Document
	Loading   bool
	Err       string
}

// Store owns the collection. Loading and error flags are shared across
// operations on the collection, not tracked per document; a single in-flight
// operation's state is visible globally until the next transition.
type Store struct {
	api API
	log *zap.Logger

	mu       sync.Mutex
	docs     []model.Document
	loading  bool
	errMsg   string
	selected int64 // id of the selected document, 0 when none

	// fetchSeq is the generation of the newest dispatched fetch. A resolving
	// fetch whose captured generation is stale commits nothing. Successful
	// mutations bump the generation too, so a fetch dispatched before a
	// delete/upload/rename can never commit its pre-mutation list over the
	// confirmed result.
	fetchSeq uint64

	closed bool // discarded stores drop all late-arriving results
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the structured logger (zap.NewNop by default).
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New constructs an empty store.
func New(api API, opts ...Option) *Store {
	s := &Store{api: api, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns a copy of the collection and flags.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]model.Document, len(s.docs))
	copy(docs, s.docs)
	return Snapshot{Documents: docs, Loading: s.loading, Err: s.errMsg}
}

// FetchAll replaces the whole collection with the server's list. On failure
// the previous collection is left untouched. Overlapping fetches are guarded
// by generation: only the newest dispatched fetch may commit.
func (s *Store) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.fetchSeq++
	seq := s.fetchSeq
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	docs, err := s.api.ListDocuments(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.fetchSeq {
		s.log.Debug("stale fetch discarded", zap.Uint64("seq", seq), zap.Uint64("newest", s.fetchSeq))
		return err
	}
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		return err
	}
	s.docs = docs
	return nil
}

// Upload sends the file and inserts the server-returned record at the front
// of the collection. Both a title and a file are required; missing input is
// rejected before any network call.
func (s *Store) Upload(ctx context.Context, title, filename string, file io.Reader) (model.Document, error) {
	if strings.TrimSpace(title) == "" || file == nil {
		return model.Document{}, fmt.Errorf("%w: both a title and a file are required", errs.ErrValidation)
	}

	if !s.begin() {
		return model.Document{}, nil
	}
	doc, err := s.api.UploadDocument(ctx, title, filename, file)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Document{}, err
	}
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		return model.Document{}, err
	}
	// identifiers stay unique: a re-uploaded id replaces the old record
	s.docs = append([]model.Document{doc}, without(s.docs, doc.ID)...)
	s.fetchSeq++ // invalidate in-flight fetches that predate the insert
	return doc, nil
}

// Remove deletes a document. The entry leaves the collection only after the
// server confirms; a failed delete keeps it visible. Deletes of different
// documents are independent.
func (s *Store) Remove(ctx context.Context, id int64) error {
	if !s.begin() {
		return nil
	}
	err := s.api.DeleteDocument(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return err
	}
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		return err
	}
	s.docs = without(s.docs, id)
	if s.selected == id {
		s.selected = 0
	}
	s.fetchSeq++ // a fetch dispatched before the delete must not resurrect the entry
	return nil
}

// Update renames a document and replaces the record in place with the
// server's response.
func (s *Store) Update(ctx context.Context, id int64, title string) (model.Document, error) {
	if strings.TrimSpace(title) == "" {
		return model.Document{}, fmt.Errorf("%w: a title is required", errs.ErrValidation)
	}

	if !s.begin() {
		return model.Document{}, nil
	}
	doc, err := s.api.UpdateDocument(ctx, id, title)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Document{}, err
	}
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		return model.Document{}, err
	}
	for i := range s.docs {
		if s.docs[i].ID == id {
			s.docs[i] = doc
			break
		}
	}
	s.fetchSeq++ // a fetch dispatched before the rename must not roll it back
	return doc, nil
}

// Select marks a document as the current Q&A target. Returns false when the
// id is not in the collection.
func (s *Store) Select(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].ID == id {
			s.selected = id
			return true
		}
	}
	return false
}

// ClearSelection drops the current selection.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = 0
}

// Selected returns the selected document, if any.
func (s *Store) Selected() (model.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == 0 {
		return model.Document{}, false
	}
	for i := range s.docs {
		if s.docs[i].ID == s.selected {
			return s.docs[i], true
		}
	}
	return model.Document{}, false
}

// Close marks the store discarded. In-flight operations resolve without
// committing anything.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// begin marks the operation in flight. Reports false when the store has been
// discarded, in which case nothing was marked and the caller must not proceed.
func (s *Store) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.loading = true
	s.errMsg = ""
	return true
}

func without(docs []model.Document, id int64) []model.Document {
	out := docs[:0:0]
	for _, d := range docs {
		if d.ID != id {
			out = append(out, d)
		}
	}
	return out
}
