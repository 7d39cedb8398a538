// Package model defines the core domain models used throughout the application.
package model

import "time"

// NoSubject is the placeholder subject used when a message carries no Subject header.
const NoSubject = "(No Subject)"

// RawMessage is a single mailbox item fetched during a scan.
// It is never persisted beyond the lifetime of the scan that fetched it.
type RawMessage struct {
	ReceivedAt time.Time `json:"received_at"`
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Snippet    string    `json:"snippet"`
	Body       string    `json:"body"` // Decoded plain text, truncated
}
