package model

import "time"

// Subscription is a persisted subscription record owned by a user.
// Reconciliation treats it as read-only; only the commit path mutates it.
type Subscription struct {
	NextRenewalDate time.Time        `json:"next_renewal_date"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	Name            string           `json:"name"`
	Currency        string           `json:"currency"`
	BillingCycle    BillingFrequency `json:"billing_cycle"`
	Category        string           `json:"category"`
	SourceMessageID string           `json:"source_message_id,omitempty"` // Mailbox message that created the record
	Cost            float64          `json:"cost"`
}

// Snapshot captures the fields reconciliation reports back to the user.
func (s Subscription) Snapshot() *RecordSnapshot {
	return &RecordSnapshot{
		Name:     s.Name,
		Cost:     s.Cost,
		Currency: s.Currency,
	}
}

// RecordSnapshot is the matched record's state at classification time.
// It may be stale if the record is edited elsewhere during a scan.
type RecordSnapshot struct {
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Cost     float64 `json:"cost"`
}
