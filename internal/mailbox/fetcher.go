package mailbox

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/model"
	"golang.org/x/sync/errgroup"
	gmailv1 "google.golang.org/api/gmail/v1"
)

// FetcherConfig bounds a single fetch.
type FetcherConfig struct {
	SearchKeywords     []string
	MaxMessages        int
	BodyTruncateLength int
}

// Fetcher turns a mailbox search into a bounded list of RawMessages.
type Fetcher struct {
	mailbox Mailbox
	logger  *slog.Logger
	now     func() time.Time
	cfg     FetcherConfig
}

// NewFetcher creates a fetcher over mb.
func NewFetcher(mb Mailbox, cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		mailbox: mb,
		cfg:     cfg,
		logger:  common.LoggerOrDefault(logger),
		now:     time.Now,
	}
}

// FetchFailedMessage is the single message shown when the mailbox cannot be read.
const FetchFailedMessage = "Could not read your mailbox. Reconnect your account and try again."

// Fetch searches for billing messages received in the last days and fetches
// every match concurrently. The returned slice follows search order.
// A failed search or payload fetch fails the whole call; an empty search does not.
func (f *Fetcher) Fetch(ctx context.Context, days int) ([]model.RawMessage, error) {
	query := BuildQuery(f.cfg.SearchKeywords, days)
	f.logger.Debug("searching mailbox", "query", query, "max", f.cfg.MaxMessages)

	ids, err := f.mailbox.Search(ctx, query, int64(f.cfg.MaxMessages))
	if err != nil {
		return nil, common.NewUserError(FetchFailedMessage,
			fmt.Errorf("%w: search: %w", common.ErrMailboxUnavailable, err))
	}
	if len(ids) > f.cfg.MaxMessages {
		ids = ids[:f.cfg.MaxMessages]
	}
	if len(ids) == 0 {
		return nil, nil
	}

	messages := make([]model.RawMessage, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			msg, err := f.mailbox.Get(gctx, id)
			if err != nil {
				return err
			}
			messages[i] = f.toRawMessage(id, msg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, common.NewUserError(FetchFailedMessage,
			fmt.Errorf("%w: fetch: %w", common.ErrMailboxUnavailable, err))
	}

	f.logger.Info("fetched messages", "count", len(messages))
	return messages, nil
}

func (f *Fetcher) toRawMessage(id string, msg *gmailv1.Message) model.RawMessage {
	raw := model.RawMessage{
		ID:      id,
		Subject: model.NoSubject,
	}
	if msg == nil {
		raw.ReceivedAt = f.now()
		return raw
	}
	if msg.Id != "" {
		raw.ID = msg.Id
	}
	raw.Snippet = html.UnescapeString(msg.Snippet)

	var dateHeader string
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "subject":
				if s := strings.TrimSpace(h.Value); s != "" {
					raw.Subject = s
				}
			case "date":
				dateHeader = h.Value
			}
		}
		raw.Body = common.TruncateRunes(messageBody(msg.Payload), f.cfg.BodyTruncateLength)
	}

	switch t, ok := parseDate(dateHeader); {
	case ok:
		raw.ReceivedAt = t
	case dateHeader != "" && msg.InternalDate > 0:
		raw.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	default:
		raw.ReceivedAt = f.now()
	}
	return raw
}
