package assessment

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"candidate-assessment/internal/storage"
)

// Validation describes a token that may still be used to submit answers.
type Validation struct {
	Candidate      *storage.Candidate
	HoursOld       float64
	HoursRemaining float64
	IssuedAt       time.Time
}

// Validate checks a token in a fixed order: format, existence, status, age.
// Malformed tokens never reach the store.
func (s *Service) Validate(ctx context.Context, tok string) (*Validation, error) {
	tok = strings.TrimSpace(tok)
	if !s.codec.ValidFormat(tok) {
		return nil, validationError(ReasonInvalidFormat, "invalid token format")
	}

	c, err := s.store.FindByToken(ctx, tok)
	if errors.Is(err, storage.ErrNotFound) {
		s.logTokenAction("not found", tok)
		return nil, notFoundError("invalid or unknown token")
	}
	if err != nil {
		return nil, internalError(err, "find candidate by token")
	}

	return s.gate(c)
}

// gate applies the status and expiry checks to a candidate found by token.
func (s *Service) gate(c *storage.Candidate) (*Validation, error) {
	if c.Status.IsTerminal() {
		return nil, alreadyCompleted(c.Status)
	}

	issuedAt := c.TokenAnchor()
	age := s.clock().Sub(issuedAt)
	if age > s.settings.ExpiryWindow {
		s.logger.Infow("Token expired", "candidate_id", c.ID, "age", age.String())
		return nil, expiredError()
	}

	hoursOld := roundHours(age.Hours())
	return &Validation{
		Candidate:      c,
		HoursOld:       hoursOld,
		HoursRemaining: math.Max(0, roundHours(s.settings.ExpiryWindow.Hours()-hoursOld)),
		IssuedAt:       issuedAt,
	}, nil
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
