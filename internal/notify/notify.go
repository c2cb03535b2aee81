// Package notify delivers candidate access links. Delivery is best effort: a failed
// send is logged and dropped, and never affects the candidate state that triggered it.
package notify

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"candidate-assessment/internal/token"
)

// Invite is the message sent to a candidate after a token is issued or reissued.
type Invite struct {
	CandidateID string    `json:"candidate_id"`
	Name        string    `json:"name"`
	To          string    `json:"to"`
	AccessLink  string    `json:"access_link"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Notifier interface {
	SendInvite(ctx context.Context, inv Invite) error
}

// LogNotifier writes invites to the log instead of sending them. Used in development.
type LogNotifier struct {
	logger *zap.SugaredLogger
}

func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendInvite(_ context.Context, inv Invite) error {
	n.logger.Infow("Invite ready",
		"candidate_id", inv.CandidateID,
		"to", inv.To,
		"expires_at", inv.ExpiresAt.Format(time.RFC3339),
		"link_token", token.Redact(tokenFromLink(inv.AccessLink)),
	)
	return nil
}

func tokenFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}
