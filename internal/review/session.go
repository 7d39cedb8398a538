// Package review holds the user's per-candidate decisions between a scan and a commit.
package review

import (
	"errors"
	"fmt"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/model"
)

// Session errors.
var (
	ErrActionNotAllowed = errors.New("action can only be chosen for conflicts")
	ErrIndexOutOfRange  = errors.New("no candidate at index")
	ErrNotSelected      = errors.New("select the candidate before choosing an action")
)

// Entry pairs a classified candidate with the user's decision for it.
type Entry struct {
	Candidate model.ClassifiedCandidate `json:"candidate"`
	Decision  model.ResolutionDecision  `json:"decision"`
}

// DefaultDecision is the initial state for a candidate: new and conflicting
// candidates start selected, duplicates do not. Conflicts default to updating
// the matched record.
func DefaultDecision(c model.ClassifiedCandidate) model.ResolutionDecision {
	switch c.Classification {
	case model.ClassificationConflict:
		return model.ResolutionDecision{Selected: true, Action: model.ActionUpdateExisting}
	case model.ClassificationDuplicate:
		return model.ResolutionDecision{Selected: false, Action: model.ActionAddSeparate}
	default:
		return model.ResolutionDecision{Selected: true, Action: model.ActionAddSeparate}
	}
}

// Session is an ordered list of entries. Entries are copied in and out, so
// callers never share state with the session.
type Session struct {
	entries []Entry
}

// NewSession starts a session with default decisions.
func NewSession(classified []model.ClassifiedCandidate) *Session {
	entries := make([]Entry, len(classified))
	for i, c := range classified {
		entries[i] = Entry{Candidate: c, Decision: DefaultDecision(c)}
	}
	return &Session{entries: entries}
}

// NewSessionWithDecisions restores a session from explicit decisions aligned
// by index with classified.
func NewSessionWithDecisions(classified []model.ClassifiedCandidate, decisions []model.ResolutionDecision) (*Session, error) {
	if len(classified) != len(decisions) {
		return nil, fmt.Errorf("%w: %d candidates but %d decisions",
			common.ErrInvalidRequest, len(classified), len(decisions))
	}

	s := NewSession(classified)
	for i, d := range decisions {
		if err := validateDecision(classified[i], d); err != nil {
			return nil, fmt.Errorf("decision %d: %w", i, err)
		}
		s.entries[i].Decision = d
	}
	return s, nil
}

func validateDecision(c model.ClassifiedCandidate, d model.ResolutionDecision) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidRequest, err)
	}
	switch d.Action {
	case model.ActionAddSeparate, model.ActionSkip:
		return nil
	case model.ActionUpdateExisting:
		if c.Classification != model.ClassificationConflict {
			return fmt.Errorf("%w: %s on %s", ErrActionNotAllowed, d.Action, c.Classification)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", common.ErrInvalidRequest, d.Action)
	}
}

// Len returns the number of entries.
func (s *Session) Len() int {
	return len(s.entries)
}

// Entries returns a copy of every entry.
func (s *Session) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Entry returns a copy of entry i.
func (s *Session) Entry(i int) (Entry, error) {
	if err := s.check(i); err != nil {
		return Entry{}, err
	}
	return s.entries[i], nil
}

// Toggle flips whether entry i is selected.
func (s *Session) Toggle(i int) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.entries[i].Decision.Selected = !s.entries[i].Decision.Selected
	return nil
}

// SetAction chooses how a selected conflicting candidate is applied.
// A deselected entry keeps its action until it is selected again.
func (s *Session) SetAction(i int, action model.ResolutionAction) error {
	if err := s.check(i); err != nil {
		return err
	}
	if s.entries[i].Candidate.Classification != model.ClassificationConflict {
		return fmt.Errorf("%w: candidate %d is %s", ErrActionNotAllowed, i, s.entries[i].Candidate.Classification)
	}
	if !s.entries[i].Decision.Selected {
		return fmt.Errorf("%w: candidate %d", ErrNotSelected, i)
	}
	switch action {
	case model.ActionUpdateExisting, model.ActionAddSeparate, model.ActionSkip:
	default:
		return fmt.Errorf("%w: unknown action %q", common.ErrInvalidRequest, action)
	}
	s.entries[i].Decision.Action = action
	return nil
}

// SelectAll marks every entry selected.
func (s *Session) SelectAll() {
	for i := range s.entries {
		s.entries[i].Decision.Selected = true
	}
}

// DeselectAll clears every selection.
func (s *Session) DeselectAll() {
	for i := range s.entries {
		s.entries[i].Decision.Selected = false
	}
}

// Decisions returns the decisions in entry order.
func (s *Session) Decisions() []model.ResolutionDecision {
	out := make([]model.ResolutionDecision, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Decision
	}
	return out
}

// CommitSet returns the entries that will reach the record store.
func (s *Session) CommitSet() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Decision.Committable() {
			out = append(out, e)
		}
	}
	return out
}

// ImportAllNewSet is the bulk shortcut: every NEW candidate with its default
// decision. Duplicates and conflicts are never included.
func ImportAllNewSet(classified []model.ClassifiedCandidate) []Entry {
	out := make([]Entry, 0, len(classified))
	for _, c := range classified {
		if c.Classification == model.ClassificationNew {
			out = append(out, Entry{Candidate: c, Decision: DefaultDecision(c)})
		}
	}
	return out
}

// Summary counts entries by classification and selection.
type Summary struct {
	New         int `json:"new"`
	Duplicates  int `json:"duplicates"`
	Conflicts   int `json:"conflicts"`
	Selected    int `json:"selected"`
	Committable int `json:"committable"`
}

// Summary returns the current counts.
func (s *Session) Summary() Summary {
	var sum Summary
	for _, e := range s.entries {
		switch e.Candidate.Classification {
		case model.ClassificationNew:
			sum.New++
		case model.ClassificationDuplicate:
			sum.Duplicates++
		case model.ClassificationConflict:
			sum.Conflicts++
		}
		if e.Decision.Selected {
			sum.Selected++
		}
		if e.Decision.Committable() {
			sum.Committable++
		}
	}
	return sum
}

func (s *Session) check(i int) error {
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("%w %d", ErrIndexOutOfRange, i)
	}
	return nil
}
