package extraction

import (
	"strings"

	"github.com/Veraticus/subscout/internal/model"
)

// KeywordGate is the cost-control filter that runs before any model call.
type KeywordGate struct {
	keywords []string
}

// NewKeywordGate creates a gate over the given terms, matched case-insensitively.
func NewKeywordGate(keywords []string) *KeywordGate {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &KeywordGate{keywords: lowered}
}

// Pass reports whether any keyword appears in the subject or snippet.
func (g *KeywordGate) Pass(msg model.RawMessage) bool {
	text := strings.ToLower(msg.Subject + " " + msg.Snippet)
	for _, kw := range g.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
