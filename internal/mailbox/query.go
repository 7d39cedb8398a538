package mailbox

import (
	"fmt"
	"strings"
)

// BuildQuery combines the billing keywords into one Gmail search, matching each
// keyword in the subject or anywhere in the message, limited to the last days.
func BuildQuery(keywords []string, days int) string {
	terms := make([]string, 0, len(keywords)*2)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		quoted := quoteTerm(kw)
		terms = append(terms, "subject:"+quoted, quoted)
	}

	window := fmt.Sprintf("newer_than:%dd", days)
	if len(terms) == 0 {
		return window
	}
	return "(" + strings.Join(terms, " OR ") + ") " + window
}

func quoteTerm(kw string) string {
	kw = strings.ReplaceAll(kw, `"`, "")
	if strings.ContainsAny(kw, " \t") {
		return `"` + kw + `"`
	}
	return kw
}
