package engine

import (
	"context"

	"github.com/Veraticus/subscout/internal/mailbox"
	"github.com/Veraticus/subscout/internal/review"
)

// MailboxFactory opens a mailbox for one scan from the caller's opaque access token.
type MailboxFactory func(ctx context.Context, accessToken string) (mailbox.Mailbox, error)

// Reviewer lets a user adjust a session before it is committed.
// Returning false abandons the session without committing anything.
type Reviewer interface {
	Review(ctx context.Context, session *review.Session) (bool, error)
}

// Stage names a step of the scan pipeline reported to progress hooks.
type Stage string

// Pipeline stages.
const (
	StageFetch    Stage = "fetch"
	StageExtract  Stage = "extract"
	StageClassify Stage = "classify"
)

// ProgressFunc is called as each stage starts and finishes.
type ProgressFunc func(stage Stage, done, total int)
