package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/subscout/internal/engine"
	"github.com/Veraticus/subscout/internal/model"
	"github.com/Veraticus/subscout/internal/review"
)

const reviewHelp = `Commands:
  t <n>                     toggle candidate n
  a <n> update|add|skip     choose how conflict n is applied
  all | none                select or deselect every candidate
  c                         commit the selected candidates
  q                         quit without committing`

// ReviewPrompter walks a user through a review session on a terminal.
type ReviewPrompter struct {
	reader *NonBlockingReader
	writer io.Writer
}

// NewReviewPrompter creates a prompter with the given reader and writer.
func NewReviewPrompter(reader io.Reader, writer io.Writer) *ReviewPrompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &ReviewPrompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// Review shows the session and applies commands until the user commits or quits.
func (p *ReviewPrompter) Review(ctx context.Context, s *review.Session) (bool, error) {
	p.printf("%s\n", RenderSession(s))
	p.printf("%s\n\n", SubtleStyle.Render(reviewHelp))

	for {
		p.printf("%s", FormatPrompt("Review"))
		line, err := p.reader.ReadLine(ctx)
		switch {
		case errors.Is(err, ErrInputCancelled):
			return false, ctx.Err()
		case errors.Is(err, io.EOF):
			p.printf("\n%s\n", FormatInfo("No changes committed."))
			return false, nil
		case err != nil:
			return false, fmt.Errorf("failed to read command: %w", err)
		}

		done, proceed, cmdErr := p.apply(s, line)
		if cmdErr != nil {
			p.printf("%s\n", FormatError(cmdErr.Error()))
			continue
		}
		if done {
			return proceed, nil
		}
	}
}

// apply runs one command. done reports that the review is over.
func (p *ReviewPrompter) apply(s *review.Session, line string) (done, proceed bool, err error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false, false, nil
	}

	switch fields[0] {
	case "c", "commit":
		if s.Summary().Committable == 0 {
			p.printf("%s\n", FormatInfo("Nothing selected. No changes committed."))
			return true, false, nil
		}
		return true, true, nil
	case "q", "quit":
		p.printf("%s\n", FormatInfo("No changes committed."))
		return true, false, nil
	case "all":
		s.SelectAll()
	case "none":
		s.DeselectAll()
	case "t", "toggle":
		if len(fields) != 2 {
			return false, false, errors.New("usage: t <n>")
		}
		i, err := parseIndex(fields[1])
		if err != nil {
			return false, false, err
		}
		if err := s.Toggle(i); err != nil {
			return false, false, err
		}
	case "a", "action":
		if len(fields) != 3 {
			return false, false, errors.New("usage: a <n> update|add|skip")
		}
		i, err := parseIndex(fields[1])
		if err != nil {
			return false, false, err
		}
		action, ok := model.ParseResolutionAction(fields[2])
		if !ok {
			return false, false, fmt.Errorf("unknown action %q", fields[2])
		}
		if err := s.SetAction(i, action); err != nil {
			return false, false, err
		}
	case "?", "h", "help":
		p.printf("%s\n", reviewHelp)
		return false, false, nil
	default:
		return false, false, fmt.Errorf("unknown command %q, type ? for help", fields[0])
	}

	p.printf("%s\n", RenderSession(s))
	return false, false, nil
}

func (p *ReviewPrompter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.writer, format, args...)
}

// parseIndex converts a 1-based display number to a session index.
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a candidate number: %q", s)
	}
	return n - 1, nil
}

// RenderSession lists every entry with its selection and action.
func RenderSession(s *review.Session) string {
	var b strings.Builder
	for i, e := range s.Entries() {
		c := e.Candidate
		check := "[ ]"
		if e.Decision.Selected {
			check = "[x]"
		}
		fmt.Fprintf(&b, "%s %2d. %-10s %-28s %9.2f %s %-8s",
			check, i+1,
			FormatClassification(c.Classification),
			truncate(c.Candidate.MerchantName, 28),
			c.Candidate.Amount, c.Candidate.Currency,
			c.Candidate.BillingFrequency)
		if c.MatchedRecord != nil {
			fmt.Fprintf(&b, " %s", SubtleStyle.Render(fmt.Sprintf("(tracked: %s %.2f %s)",
				c.MatchedRecord.Name, c.MatchedRecord.Cost, c.MatchedRecord.Currency)))
		}
		if c.Classification == model.ClassificationConflict {
			fmt.Fprintf(&b, " → %s", BoldStyle.Render(actionLabel(e.Decision.Action)))
		}
		b.WriteString("\n")
	}

	sum := s.Summary()
	fmt.Fprintf(&b, "\n%d new, %d duplicate, %d conflict. %d selected.",
		sum.New, sum.Duplicates, sum.Conflicts, sum.Selected)
	return RenderBox("Discovered subscriptions", b.String())
}

// RenderCandidates lists classified candidates with their default decisions.
func RenderCandidates(classified []model.ClassifiedCandidate) string {
	return RenderSession(review.NewSession(classified))
}

func actionLabel(a model.ResolutionAction) string {
	switch a {
	case model.ActionUpdateExisting:
		return "update"
	case model.ActionAddSeparate:
		return "add"
	case model.ActionSkip:
		return "skip"
	default:
		return string(a)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RenderScanResult summarizes a finished scan.
func RenderScanResult(res *model.ScanResult) string {
	if res.Found == 0 {
		return FormatInfo(fmt.Sprintf("Scanned %d messages: %s.", res.Scanned, engine.NoBillsMessage))
	}
	return FormatSuccess(fmt.Sprintf("Scanned %d messages and found %d candidates.", res.Scanned, res.Found))
}

// RenderCommitResult reports only the aggregate count of applied changes.
func RenderCommitResult(res *engine.CommitResult) string {
	attempted := res.Applied + len(res.Failures)
	if len(res.Failures) == 0 {
		return FormatSuccess(fmt.Sprintf("Applied %d changes.", res.Applied))
	}
	return FormatWarning(fmt.Sprintf("Applied %d of %d changes.", res.Applied, attempted))
}

// RenderSubscriptions lists tracked records.
func RenderSubscriptions(subs []model.Subscription) string {
	if len(subs) == 0 {
		return FormatInfo("No subscriptions tracked yet.")
	}

	var b strings.Builder
	for _, s := range subs {
		fmt.Fprintf(&b, "%-28s %9.2f %s %-8s",
			truncate(s.Name, 28), s.Cost, s.Currency, s.BillingCycle)
		if !s.NextRenewalDate.IsZero() {
			fmt.Fprintf(&b, "  renews %s", s.NextRenewalDate.Format("Jan 2, 2006"))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%d subscriptions", len(subs))
	return RenderBox("Tracked subscriptions", b.String())
}
