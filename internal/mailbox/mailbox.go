// Package mailbox fetches candidate billing messages from a connected mailbox.
package mailbox

import (
	"context"
	"fmt"

	"github.com/Veraticus/subscout/internal/common"
	"golang.org/x/oauth2"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Mailbox is the provider surface the fetcher needs: a query search returning
// message ids, and a full payload fetch by id.
type Mailbox interface {
	Search(ctx context.Context, query string, limit int64) ([]string, error)
	Get(ctx context.Context, id string) (*gmailv1.Message, error)
}

// GmailMailbox implements Mailbox over the Gmail API.
type GmailMailbox struct {
	svc  *gmailv1.Service
	user string
}

// NewGmailMailbox creates a Gmail-backed mailbox authenticated with an opaque
// access token. The token is obtained elsewhere; this package never refreshes it.
// Extra options are appended after the token source, so tests can point the
// client at a local endpoint.
func NewGmailMailbox(ctx context.Context, accessToken string, opts ...option.ClientOption) (*GmailMailbox, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: mailbox access token", common.ErrMissingConfig)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})

	clientOpts := append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := gmailv1.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return NewGmailMailboxFromService(svc), nil
}

// NewGmailMailboxFromService wraps an already configured Gmail service.
func NewGmailMailboxFromService(svc *gmailv1.Service) *GmailMailbox {
	return &GmailMailbox{svc: svc, user: "me"}
}

// Search lists up to limit message ids matching query.
func (m *GmailMailbox) Search(ctx context.Context, query string, limit int64) ([]string, error) {
	resp, err := m.svc.Users.Messages.List(m.user).
		Q(query).
		MaxResults(limit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		if msg == nil || msg.Id == "" {
			continue
		}
		ids = append(ids, msg.Id)
		if int64(len(ids)) >= limit {
			break
		}
	}
	return ids, nil
}

// Get fetches the full payload for one message.
func (m *GmailMailbox) Get(ctx context.Context, id string) (*gmailv1.Message, error) {
	msg, err := m.svc.Users.Messages.Get(m.user, id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return msg, nil
}

var _ Mailbox = (*GmailMailbox)(nil)
