package model

import (
	"errors"
	"fmt"
)

// Classification describes how a candidate relates to the user's existing records.
type Classification string

// Classification constants.
const (
	ClassificationNew       Classification = "NEW"
	ClassificationDuplicate Classification = "DUPLICATE"
	ClassificationConflict  Classification = "CONFLICT"
)

// ErrInvalidClassification is returned when a classified candidate breaks its invariants.
var ErrInvalidClassification = errors.New("invalid classified candidate")

// ClassifiedCandidate is a candidate plus its reconciliation result.
type ClassifiedCandidate struct {
	MatchedRecord   *RecordSnapshot       `json:"matched_record,omitempty"`
	Classification  Classification        `json:"classification"`
	MatchedRecordID string                `json:"matched_record_id,omitempty"`
	Candidate       SubscriptionCandidate `json:"candidate"`
}

// Validate checks the classification invariants. A conflict must always carry
// the matched record id and snapshot.
func (c ClassifiedCandidate) Validate() error {
	switch c.Classification {
	case ClassificationNew:
		return nil
	case ClassificationDuplicate, ClassificationConflict:
		if c.MatchedRecordID == "" {
			return fmt.Errorf("%w: %s without matched record id", ErrInvalidClassification, c.Classification)
		}
		if c.MatchedRecord == nil {
			return fmt.Errorf("%w: %s without matched record snapshot", ErrInvalidClassification, c.Classification)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown classification %q", ErrInvalidClassification, c.Classification)
	}
}
