package assessment

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"candidate-assessment/internal/storage"
)

// Action tells the caller what Resolve did with the email.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionReuse  Action = "REUSE"
	// ActionConflict is never set on a Resolution; Resolve reports it as an *Error of
	// KindConflict carrying the candidate's terminal status.
	ActionConflict Action = "CONFLICT"
)

const (
	resolveAttempts = 3
	maxNameLength   = 200
)

// Resolution is the outcome of a successful Resolve: a PENDING candidate and its fresh token.
type Resolution struct {
	Action      Action
	Candidate   *storage.Candidate
	AccessToken string
	AccessLink  string
}

func newCandidateID() string {
	return uuid.New().String()
}

// NormalizeEmail trims and lower-cases an email to its deduplication key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Resolve maps (name, email) onto at most one candidate row. A new email creates a
// PENDING candidate; a PENDING match gets a new token that invalidates the previous one;
// a completed match is rejected with a conflict carrying its status.
func (s *Service) Resolve(ctx context.Context, name, email string) (*Resolution, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if name == "" {
		return nil, validationError(ReasonMissingField, "name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, validationError(ReasonInvalidFormat, "name is too long")
	}
	if email == "" {
		return nil, validationError(ReasonMissingField, "email is required")
	}
	if err := s.validate.Var(email, "email,max=254"); err != nil {
		return nil, validationError(ReasonInvalidEmail, "email is invalid")
	}

	for attempt := 1; attempt <= resolveAttempts; attempt++ {
		existing, err := s.store.FindByNormalizedEmail(ctx, email)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			res, err := s.create(ctx, name, email)
			if errors.Is(err, storage.ErrDuplicateEmail) {
				// lost the insert race; the winner's row decides between REUSE and CONFLICT
				s.logger.Infow("Concurrent create detected, retrying as lookup", "email", email, "attempt", attempt)
				continue
			}
			return res, err

		case err != nil:
			return nil, internalError(err, "find candidate by email")

		case existing.Status.IsTerminal():
			s.logger.Infow("Candidate already completed", "candidate_id", existing.ID, "status", existing.Status)
			return nil, alreadyCompleted(existing.Status)

		default:
			res, err := s.reuse(ctx, existing, name)
			if errors.Is(err, errNotPending) {
				s.logger.Infow("Candidate changed during reissue, retrying", "candidate_id", existing.ID, "attempt", attempt)
				continue
			}
			return res, err
		}
	}

	return nil, internalError(errors.Newf("gave up after %d attempts", resolveAttempts), "resolve candidate")
}

var errNotPending = errors.New("candidate no longer pending")

func (s *Service) create(ctx context.Context, name, email string) (*Resolution, error) {
	now := s.clock()
	id := s.newID()

	tok, err := s.codec.Generate(id)
	if err != nil {
		return nil, internalError(err, "generate token")
	}

	c := &storage.Candidate{
		ID:            id,
		Name:          name,
		Email:         email,
		Status:        storage.StatusPending,
		AccessToken:   &tok,
		TokenIssuedAt: &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Insert(ctx, c); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, internalError(err, "insert candidate")
	}

	s.logTokenAction("issued", tok, "candidate_id", id, "action", ActionCreate)
	return &Resolution{
		Action:      ActionCreate,
		Candidate:   c,
		AccessToken: tok,
		AccessLink:  s.settings.AccessLink(tok),
	}, nil
}

func (s *Service) reuse(ctx context.Context, c *storage.Candidate, name string) (*Resolution, error) {
	var rename *string
	if c.Name != name {
		rename = &name
	}

	tok, issuedAt, err := s.issue(ctx, c.ID, rename)
	if err != nil {
		return nil, err
	}

	if rename != nil {
		c.Name = name
	}
	c.AccessToken = &tok
	c.TokenIssuedAt = &issuedAt
	c.UpdatedAt = issuedAt

	s.logTokenAction("reissued", tok, "candidate_id", c.ID, "action", ActionReuse)
	return &Resolution{
		Action:      ActionReuse,
		Candidate:   c,
		AccessToken: tok,
		AccessLink:  s.settings.AccessLink(tok),
	}, nil
}

// IssueToken replaces the access token of a PENDING candidate by id. The previous token
// stops working immediately, whether or not it was ever used.
func (s *Service) IssueToken(ctx context.Context, candidateID string) (*Resolution, error) {
	tok, _, err := s.issue(ctx, candidateID, nil)
	if errors.Is(err, errNotPending) {
		c, findErr := s.store.FindByID(ctx, candidateID)
		if errors.Is(findErr, storage.ErrNotFound) {
			return nil, &Error{Kind: KindNotFound, Reason: ReasonTokenNotFound, Message: "candidate not found"}
		}
		if findErr != nil {
			return nil, internalError(findErr, "find candidate by id")
		}
		return nil, alreadyCompleted(c.Status)
	}
	if err != nil {
		return nil, err
	}

	c, err := s.store.FindByID(ctx, candidateID)
	if err != nil {
		return nil, internalError(err, "reload reissued candidate")
	}
	s.logTokenAction("reissued", tok, "candidate_id", candidateID)
	return &Resolution{
		Action:      ActionReuse,
		Candidate:   c,
		AccessToken: tok,
		AccessLink:  s.settings.AccessLink(tok),
	}, nil
}

// issue writes a new token (and optionally a new name) guarded by status = PENDING.
func (s *Service) issue(ctx context.Context, candidateID string, rename *string) (string, time.Time, error) {
	tok, err := s.codec.Generate(candidateID)
	if err != nil {
		return "", time.Time{}, internalError(err, "generate token")
	}
	now := s.clock()

	n, err := s.store.ConditionalUpdate(ctx, candidateID,
		storage.Precondition{Status: storage.StatusPending},
		storage.Patch{Name: rename, AccessToken: &tok, TokenIssuedAt: &now, UpdatedAt: now},
	)
	if err != nil {
		return "", time.Time{}, internalError(err, "store reissued token")
	}
	if n == 0 {
		return "", time.Time{}, errNotPending
	}
	return tok, now, nil
}
