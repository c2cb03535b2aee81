package notify

import (
	"context"

	"github.com/cockroachdb/errors"

	httpclient "candidate-assessment/pkg/http"
)

// WebhookNotifier posts invites as JSON to an email relay.
type WebhookNotifier struct {
	client *httpclient.Client
	url    string
}

func NewWebhookNotifier(client *httpclient.Client, url string) *WebhookNotifier {
	return &WebhookNotifier{client: client, url: url}
}

func (n *WebhookNotifier) SendInvite(ctx context.Context, inv Invite) error {
	if err := n.client.PostJSON(ctx, n.url, inv); err != nil {
		return errors.Wrapf(err, "webhook invite for %s", inv.CandidateID)
	}
	return nil
}
