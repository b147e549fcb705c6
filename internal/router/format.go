package router

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)
	fenceRe      = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\\s*\\n?(.*?)\\n?```")
)

// OutputFormat describes optional post-processing of generated text.
type OutputFormat struct {
	Type       string `json:"type,omitempty"` // code, json, text
	StripThink bool   `json:"strip_think,omitempty"`
	MaxTokens  int    `json:"max_tokens,omitempty"`
}

// ShapeContent applies f to content and returns the result.
func ShapeContent(content string, f OutputFormat) string {
	if f.Type == "" && !f.StripThink && f.MaxTokens == 0 {
		return content
	}

	if f.StripThink {
		content = strings.TrimSpace(thinkBlockRe.ReplaceAllString(content, ""))
	}

	switch f.Type {
	case "code":
		content = StripCodeFences(content)
	case "json":
		content = ExtractJSON(content)
	case "text":
		content = stripMarkdown(content)
	}

	// Approximate token count as chars/4.
	if f.MaxTokens > 0 {
		maxChars := f.MaxTokens * 4
		if len(content) > maxChars {
			for maxChars > 0 && !utf8.RuneStart(content[maxChars]) {
				maxChars--
			}
			content = content[:maxChars] + "..."
		}
	}
	return content
}

// StripCodeFences returns the body of the first fenced block, or the trimmed
// input when there is none.
func StripCodeFences(content string) string {
	if m := fenceRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(content)
}

// ExtractJSON finds a JSON object or array inside content, unwrapping a
// markdown fence if present.
func ExtractJSON(content string) string {
	content = StripCodeFences(content)
	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return content
	}
	closer := byte('}')
	if content[start] == '[' {
		closer = ']'
	}
	if end := strings.LastIndexByte(content, closer); end > start {
		return content[start : end+1]
	}
	return content[start:]
}

func stripMarkdown(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		line = strings.ReplaceAll(line, "**", "")
		line = strings.ReplaceAll(line, "*", "")
		line = strings.ReplaceAll(line, "`", "")
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
