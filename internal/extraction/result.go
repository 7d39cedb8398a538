package extraction

import (
	"context"
	"time"

	"github.com/Veraticus/subscout/internal/model"
)

// ResultKind tags what a stage concluded about a message.
type ResultKind int

// Result kinds.
const (
	// Unextractable means the stage could not decide; the next stage runs.
	Unextractable ResultKind = iota
	// Extracted means the stage produced subscription fields.
	Extracted
	// Rejected means the stage decided the message is not a subscription.
	Rejected
)

func (k ResultKind) String() string {
	switch k {
	case Extracted:
		return "extracted"
	case Rejected:
		return "rejected"
	default:
		return "unextractable"
	}
}

// Fields are the subscription facts a stage pulled out of a message.
type Fields struct {
	BillingDate  time.Time
	MerchantName string
	Currency     string
	Frequency    model.BillingFrequency
	Amount       float64
	HasAmount    bool
}

// Result is a stage's verdict. Fields is only meaningful when Kind is Extracted.
type Result struct {
	Reason string
	Fields Fields
	Kind   ResultKind
}

// Terminal reports whether the chain should stop at this result.
func (r Result) Terminal() bool {
	return r.Kind != Unextractable
}

func extracted(f Fields) Result {
	return Result{Kind: Extracted, Fields: f}
}

func rejected(reason string) Result {
	return Result{Kind: Rejected, Reason: reason}
}

func unextractable(reason string) Result {
	return Result{Kind: Unextractable, Reason: reason}
}

// Stage is one link of the extraction chain.
type Stage interface {
	Name() model.ExtractionSource
	Extract(ctx context.Context, msg model.RawMessage) Result
}
