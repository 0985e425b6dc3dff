// Package qa runs stateless per-question requests against a selected document.
package qa

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mkraev/docquery/internal/model"
)

// API is the subset of the transport client the asker depends on.
type API interface {
	Ask(ctx context.Context, documentID int64, question string) (string, error)
}

// Asker submits questions. It keeps no history and caches nothing; every
// exchange is scoped to the caller that created it.
type Asker struct {
	api API
	log *zap.Logger
}

// Option customizes an Asker.
type Option func(*Asker)

// WithLogger sets the structured logger (zap.NewNop by default).
func WithLogger(l *zap.Logger) Option {
	return func(a *Asker) { a.log = l }
}

// New constructs an Asker.
func New(api API, opts ...Option) *Asker {
	a := &Asker{api: api, log: zap.NewNop()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Ask submits one question against one document. Failures never escape as
// errors; they land in the exchange as a displayable string.
func (a *Asker) Ask(ctx context.Context, documentID int64, question string) model.QAExchange {
	ex := model.QAExchange{DocumentID: documentID, Question: question}
	if documentID == 0 || strings.TrimSpace(question) == "" {
		ex.Err = "a document and a non-empty question are required"
		return ex
	}

	answer, err := a.api.Ask(ctx, documentID, question)
	if err != nil {
		a.log.Debug("ask failed", zap.Int64("document_id", documentID), zap.Error(err))
		ex.Err = err.Error()
		return ex
	}
	ex.Answer = answer
	return ex
}
