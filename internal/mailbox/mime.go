package mailbox

import (
	"encoding/base64"
	"html"
	"net/mail"
	"strings"
	"time"

	gmailv1 "google.golang.org/api/gmail/v1"
)

// extractPlainText walks the MIME tree depth-first and returns the first
// text/plain body found, decoded.
func extractPlainText(part *gmailv1.MessagePart) string {
	if part == nil {
		return ""
	}

	if strings.EqualFold(part.MimeType, "text/plain") && part.Body != nil && part.Body.Data != "" {
		return decodeBase64URL(part.Body.Data)
	}

	for _, sub := range part.Parts {
		if body := extractPlainText(sub); body != "" {
			return body
		}
	}
	return ""
}

// extractHTML returns the first text/html body in the tree.
func extractHTML(part *gmailv1.MessagePart) string {
	if part == nil {
		return ""
	}

	if strings.EqualFold(part.MimeType, "text/html") && part.Body != nil && part.Body.Data != "" {
		return decodeBase64URL(part.Body.Data)
	}

	for _, sub := range part.Parts {
		if body := extractHTML(sub); body != "" {
			return body
		}
	}
	return ""
}

// messageBody prefers the plain text part. HTML-only receipts are reduced to
// their visible text so the extractor still sees the amount.
func messageBody(part *gmailv1.MessagePart) string {
	if body := extractPlainText(part); body != "" {
		return body
	}
	if raw := extractHTML(part); raw != "" {
		return stripHTMLTags(raw)
	}
	return ""
}

var blockTags = []string{
	"<br>", "<br/>", "<br />", "</p>", "</div>", "</tr>", "</li>",
	"</h1>", "</h2>", "</h3>", "</h4>", "</h5>", "</h6>",
}

func stripHTMLTags(s string) string {
	for _, tag := range blockTags {
		s = strings.ReplaceAll(s, tag, "\n")
		s = strings.ReplaceAll(s, strings.ToUpper(tag), "\n")
	}

	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	out := html.UnescapeString(b.String())
	out = strings.ReplaceAll(out, "\u00a0", " ")
	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}

func decodeBase64URL(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail usually sends unpadded base64url.
		b, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(b)
}

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
}

// parseDate parses a Date header. ok is false when no layout matched.
func parseDate(h string) (time.Time, bool) {
	h = strings.TrimSpace(h)
	if h == "" {
		return time.Time{}, false
	}
	if t, err := mail.ParseDate(h); err == nil {
		return t.UTC(), true
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, h); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
