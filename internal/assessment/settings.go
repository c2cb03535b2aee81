package assessment

import (
	"net/url"
	"time"

	"github.com/cockroachdb/errors"

	"candidate-assessment/internal/scoring"
	"candidate-assessment/internal/token"
)

const DefaultExpiryWindow = 24 * time.Hour

// Settings is the immutable configuration shared by every assessment component.
type Settings struct {
	TokenPrefix     string
	TokenBodyLength int
	ExpiryWindow    time.Duration
	// AccessLinkBase is the form URL the token is appended to as ?token=.
	AccessLinkBase string
	Thresholds     scoring.Thresholds
}

func DefaultSettings() Settings {
	return Settings{
		TokenPrefix:     token.DefaultPrefix,
		TokenBodyLength: token.DefaultBodyLength,
		ExpiryWindow:    DefaultExpiryWindow,
		AccessLinkBase:  "http://localhost:5173/form",
		Thresholds:      scoring.DefaultThresholds(),
	}
}

func (s Settings) Validate() error {
	if s.ExpiryWindow <= 0 {
		return errors.New("expiry window must be positive")
	}
	if _, err := url.Parse(s.AccessLinkBase); err != nil || s.AccessLinkBase == "" {
		return errors.Newf("invalid access link base %q", s.AccessLinkBase)
	}
	return s.Thresholds.Validate()
}

// AccessLink builds the link mailed to the candidate.
func (s Settings) AccessLink(tok string) string {
	u, err := url.Parse(s.AccessLinkBase)
	if err != nil {
		return s.AccessLinkBase + "?token=" + url.QueryEscape(tok)
	}
	q := u.Query()
	q.Set("token", tok)
	u.RawQuery = q.Encode()
	return u.String()
}
