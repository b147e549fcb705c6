package router

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestShapeContentNoOp(t *testing.T) {
	in := "```go\nfmt.Println()\n```"
	if got := ShapeContent(in, OutputFormat{}); got != in {
		t.Errorf("expected no change, got %q", got)
	}
}

func TestShapeContentStripThink(t *testing.T) {
	got := ShapeContent("<think>internal reasoning</think>\nFinal answer", OutputFormat{StripThink: true})
	if strings.Contains(got, "<think>") {
		t.Error("think block should be stripped")
	}
	if got != "Final answer" {
		t.Errorf("got %q", got)
	}
}

func TestShapeContentCode(t *testing.T) {
	in := "Here you go:\n```tsx\nexport const A = () => null\n```\nEnjoy."
	if got := ShapeContent(in, OutputFormat{Type: "code"}); got != "export const A = () => null" {
		t.Errorf("got %q", got)
	}
}

func TestShapeContentMaxTokens(t *testing.T) {
	long := strings.Repeat("word ", 500)
	got := ShapeContent(long, OutputFormat{MaxTokens: 100})
	if len(got) > 403 {
		t.Errorf("expected truncated content, got %d chars", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("expected ellipsis at end of truncated content")
	}
}

func TestShapeContentMaxTokensKeepsRunesWhole(t *testing.T) {
	// MaxTokens 1 allows 4 bytes; in the first two inputs byte 4 is a
	// continuation byte.
	cases := map[string]string{
		"aééé":   "aé...",
		"世世":     "世...",
		"abcdéé": "abcd...",
	}
	for in, want := range cases {
		got := ShapeContent(in, OutputFormat{MaxTokens: 1})
		if !utf8.ValidString(got) {
			t.Errorf("%q: truncation split a rune: %q", in, got)
		}
		if got != want {
			t.Errorf("%q: got %q, want %q", in, got, want)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []string{
		"```json\n{\"key\":\"value\"}\n```",
		"Sure! {\"key\":\"value\"} Hope this helps.",
		"{\"key\":\"value\"}",
	}
	for _, in := range cases {
		var parsed map[string]string
		out := ExtractJSON(in)
		if err := json.Unmarshal([]byte(out), &parsed); err != nil {
			t.Errorf("%q: invalid JSON %q: %v", in, out, err)
			continue
		}
		if parsed["key"] != "value" {
			t.Errorf("%q: got %v", in, parsed)
		}
	}
}

func TestStripCodeFencesWithoutFence(t *testing.T) {
	if got := StripCodeFences("  plain  "); got != "plain" {
		t.Errorf("got %q", got)
	}
}

func TestShapeContentText(t *testing.T) {
	got := ShapeContent("# Title\n**bold** and `code`", OutputFormat{Type: "text"})
	if got != "Title\nbold and code" {
		t.Errorf("got %q", got)
	}
}
