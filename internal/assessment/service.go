// Package assessment owns the candidate credential lifecycle: issuing and
// reissuing access tokens, validating them, and the one-way transition from
// PENDING to a classification band.
//
// All cross-request races are settled by the store: a unique email constraint
// on insert and a status-guarded conditional update on every mutation.
package assessment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"candidate-assessment/internal/scoring"
	"candidate-assessment/internal/storage"
	"candidate-assessment/internal/token"
)

// Store is the persistence capability set the assessment flows rely on.
type Store interface {
	FindByNormalizedEmail(ctx context.Context, email string) (*storage.Candidate, error)
	FindByToken(ctx context.Context, token string) (*storage.Candidate, error)
	FindByID(ctx context.Context, id string) (*storage.Candidate, error)
	Insert(ctx context.Context, c *storage.Candidate) error
	ConditionalUpdate(ctx context.Context, id string, pre storage.Precondition, patch storage.Patch) (int64, error)
}

type Service struct {
	store    Store
	codec    *token.Codec
	bank     scoring.Bank
	settings Settings
	validate *validator.Validate
	logger   *zap.SugaredLogger
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

// WithClock overrides the time source, used by tests to pin expiry boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides candidate id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

func NewService(store Store, codec *token.Codec, bank scoring.Bank, settings Settings, logger *zap.SugaredLogger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Service{
		store:    store,
		codec:    codec,
		bank:     bank,
		settings: settings,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
		newID:    newCandidateID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Settings() Settings { return s.settings }

func (s *Service) Bank() scoring.Bank { return s.bank }

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// logTokenAction records a token lifecycle event with the token redacted.
func (s *Service) logTokenAction(action, tok string, kv ...interface{}) {
	s.logger.Infow("Token "+action, append([]interface{}{"token", token.Redact(tok)}, kv...)...)
}
