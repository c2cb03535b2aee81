package storage

import "time"

// Status is the persisted lifecycle state of a candidate.
// PENDING is the only non-terminal value; every other value is a classification band.
type Status string

const StatusPending Status = "PENDING"

// IsTerminal reports whether the candidate already completed the assessment.
func (s Status) IsTerminal() bool {
	return s != "" && s != StatusPending
}

// Answers maps a question id to the ordered option labels the candidate selected.
type Answers map[int][]string

// Candidate represents an assessment candidate row.
// AccessToken is never serialized; it is handed out only by the issue flow.
type Candidate struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Status        Status     `json:"status"`
	AccessToken   *string    `json:"-"`
	TokenIssuedAt *time.Time `json:"token_issued_at,omitempty"`
	Answers       Answers    `json:"answers,omitempty"`
	Score         *int       `json:"score,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// TokenAnchor returns the instant the current access token was issued,
// falling back to the row creation time for rows written before tokens were tracked.
func (c *Candidate) TokenAnchor() time.Time {
	if c.TokenIssuedAt != nil && !c.TokenIssuedAt.IsZero() {
		return *c.TokenIssuedAt
	}
	return c.CreatedAt
}

// Precondition guards a conditional update. Status is always required;
// AccessToken additionally pins the row to the token the caller validated.
type Precondition struct {
	Status      Status
	AccessToken string
}

// Patch lists the columns a conditional update writes. Nil fields are left untouched.
type Patch struct {
	Name          *string
	AccessToken   *string
	// ClearToken retires the live token into consumed_token.
	ClearToken    bool
	TokenIssuedAt *time.Time
	Status        *Status
	Score         *int
	Answers       Answers
	CompletedAt   *time.Time
	UpdatedAt     time.Time
}
