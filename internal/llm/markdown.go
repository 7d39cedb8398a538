package llm

import "strings"

// CleanMarkdownWrapper removes a surrounding ``` or ```json fence from a model
// response and trims whitespace. Text without a fence is returned trimmed.
func CleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		// Drop the language tag on the opening fence line.
		if tag := strings.TrimSpace(content[:nl]); !strings.ContainsAny(tag, "{[") {
			content = content[nl+1:]
		}
	}
	content = strings.TrimSpace(content)
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
