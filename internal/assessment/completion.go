package assessment

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"candidate-assessment/internal/scoring"
	"candidate-assessment/internal/storage"
)

// Submission is a candidate's answer set. Score and Status are what the client
// believes the result is; the server recomputes both and only logs disagreement.
type Submission struct {
	Token   string
	Answers scoring.Answers
	Score   *int
	Status  string
}

type Completion struct {
	Candidate *storage.Candidate
	Breakdown map[int]int
	Feedback  string
}

// Complete records the answers and moves the candidate from PENDING to a band.
// Only one submission per token can succeed; every later one sees a conflict.
func (s *Service) Complete(ctx context.Context, sub Submission) (*Completion, error) {
	tok := strings.TrimSpace(sub.Token)
	if !s.codec.ValidFormat(tok) {
		return nil, validationError(ReasonInvalidFormat, "invalid token format")
	}
	if err := s.checkAnswers(sub.Answers); err != nil {
		return nil, err
	}
	var claimed scoring.Band
	if sub.Status != "" {
		b, ok := scoring.ParseBand(sub.Status)
		if !ok {
			return nil, validationError(ReasonUnknownStatus, fmt.Sprintf("unknown status %q", sub.Status))
		}
		claimed = b
	}

	v, err := s.Validate(ctx, tok)
	if err != nil {
		return nil, err
	}
	c := v.Candidate

	score := scoring.ComputeScore(sub.Answers, s.bank)
	band := s.settings.Thresholds.Classify(score)
	if sub.Score != nil && *sub.Score != score {
		s.logger.Warnw("Client score disagrees with server score", "candidate_id", c.ID, "client", *sub.Score, "server", score)
	}
	if claimed != "" && claimed != band {
		s.logger.Warnw("Client status disagrees with server status", "candidate_id", c.ID, "client", claimed, "server", band)
	}

	now := s.clock()
	status := storage.Status(band)
	n, err := s.store.ConditionalUpdate(ctx, c.ID,
		storage.Precondition{Status: storage.StatusPending, AccessToken: tok},
		storage.Patch{
			Status:      &status,
			Score:       &score,
			Answers:     sub.Answers,
			CompletedAt: &now,
			ClearToken:  true,
			UpdatedAt:   now,
		},
	)
	if err != nil {
		return nil, internalError(err, "store completion")
	}
	if n == 0 {
		return nil, s.explainLostCompletion(ctx, c.ID)
	}

	s.logTokenAction("consumed", tok, "candidate_id", c.ID, "score", score, "status", band)

	c.Status = status
	c.Score = &score
	c.Answers = sub.Answers
	c.CompletedAt = &now
	c.UpdatedAt = now
	c.AccessToken = nil

	return &Completion{
		Candidate: c,
		Breakdown: scoring.Breakdown(sub.Answers, s.bank),
		Feedback:  band.Feedback(),
	}, nil
}

// explainLostCompletion reports why a guarded completion matched no row.
func (s *Service) explainLostCompletion(ctx context.Context, id string) error {
	c, err := s.store.FindByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return notFoundError("invalid or unknown token")
	}
	if err != nil {
		return internalError(err, "re-read candidate")
	}
	if c.Status.IsTerminal() {
		s.logger.Infow("Completion lost to concurrent submission", "candidate_id", id, "status", c.Status)
		return alreadyCompleted(c.Status)
	}
	// still PENDING means the token was rotated underneath us
	return notFoundError("invalid or unknown token")
}

func (s *Service) checkAnswers(answers scoring.Answers) error {
	if len(answers) == 0 {
		return validationError(ReasonMissingField, "answers are required")
	}
	for id, selected := range answers {
		seen := make(map[string]struct{}, len(selected))
		for _, opt := range selected {
			if _, dup := seen[opt]; dup {
				return validationError(ReasonTooManySelections, fmt.Sprintf("question %d: duplicate selection %q", id, opt))
			}
			seen[opt] = struct{}{}
		}
		if q, ok := s.bank.Question(id); ok && len(selected) > q.MaxChoices {
			return validationError(ReasonTooManySelections,
				fmt.Sprintf("question %d: at most %d selections allowed, got %d", id, q.MaxChoices, len(selected)))
		}
	}
	return nil
}
