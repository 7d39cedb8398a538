package model

import (
	"fmt"
	"strings"
	"time"
)

// BillingFrequency describes how often a subscription charges.
type BillingFrequency string

// Billing frequency constants.
const (
	FrequencyMonthly BillingFrequency = "monthly"
	FrequencyYearly  BillingFrequency = "yearly"
	FrequencyOneTime BillingFrequency = "one_time"
)

// ParseBillingFrequency normalizes free-form frequency text into a BillingFrequency.
// Unknown values default to monthly.
func ParseBillingFrequency(s string) BillingFrequency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yearly", "annual", "annually", "year":
		return FrequencyYearly
	case "one_time", "one-time", "onetime", "once":
		return FrequencyOneTime
	default:
		return FrequencyMonthly
	}
}

// ExtractionSource records which extractor stage produced a candidate.
type ExtractionSource string

// Extraction sources.
const (
	SourceModel     ExtractionSource = "model"
	SourceHeuristic ExtractionSource = "heuristic"
)

// DefaultCurrency is used when neither the model nor the heuristic finds one.
const DefaultCurrency = "USD"

// SubscriptionCandidate is the extractor's output for one message.
// Candidates are created fresh per scan and never mutated.
type SubscriptionCandidate struct {
	BillingDate          time.Time        `json:"billing_date"`
	SourceMessageID      string           `json:"source_message_id"`
	MerchantName         string           `json:"merchant_name"`
	Currency             string           `json:"currency"`
	BillingFrequency     BillingFrequency `json:"billing_frequency"`
	Source               ExtractionSource `json:"source"`
	Amount               float64          `json:"amount"`
	ExtractionConfidence float64          `json:"extraction_confidence"`
}

// String returns a short human readable description.
func (c SubscriptionCandidate) String() string {
	return fmt.Sprintf("%s %.2f %s (%s)", c.MerchantName, c.Amount, c.Currency, c.BillingFrequency)
}
