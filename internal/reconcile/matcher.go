// Package reconcile classifies extracted candidates against a user's existing
// subscription records.
package reconcile

import (
	"strings"

	"github.com/Veraticus/subscout/internal/model"
)

// MatchResult identifies the record a candidate was matched to.
type MatchResult struct {
	Record *model.Subscription
	Found  bool
}

// Matcher decides which existing record, if any, a candidate refers to.
type Matcher interface {
	Match(candidate model.SubscriptionCandidate, records []model.Subscription) MatchResult
}

// SubstringMatcher matches when either name contains the other, ignoring case.
//
// A record created from the same source message always wins. Among several
// name matches an exact name wins, then the smallest record id.
type SubstringMatcher struct{}

// NewSubstringMatcher creates the default matcher.
func NewSubstringMatcher() SubstringMatcher {
	return SubstringMatcher{}
}

// Match implements Matcher.
func (SubstringMatcher) Match(candidate model.SubscriptionCandidate, records []model.Subscription) MatchResult {
	if candidate.SourceMessageID != "" {
		for i := range records {
			if records[i].SourceMessageID == candidate.SourceMessageID {
				return MatchResult{Record: &records[i], Found: true}
			}
		}
	}

	name := normalizeName(candidate.MerchantName)
	if name == "" {
		return MatchResult{}
	}

	var best *model.Subscription
	bestExact := false
	for i := range records {
		recordName := normalizeName(records[i].Name)
		if !NamesMatch(name, recordName) {
			continue
		}
		exact := name == recordName
		if best == nil || better(exact, records[i].ID, bestExact, best.ID) {
			best = &records[i]
			bestExact = exact
		}
	}
	if best == nil {
		return MatchResult{}
	}
	return MatchResult{Record: best, Found: true}
}

func better(exact bool, id string, bestExact bool, bestID string) bool {
	if exact != bestExact {
		return exact
	}
	return id < bestID
}

// NamesMatch reports bidirectional case-insensitive containment. Empty names
// never match.
func NamesMatch(a, b string) bool {
	a, b = normalizeName(a), normalizeName(b)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
