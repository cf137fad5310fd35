// Package llmtext turns raw chat-model output into parseable JSON. Models
// wrap payloads in markdown fences, chat around them, or get cut off at the
// token limit; the helpers here strip the wrapping and patch up truncation so
// callers can unmarshal the result.
package llmtext

import (
	"encoding/json"
	"strings"
)

// Sanitize extracts the JSON document from a raw model response. Already
// valid input is returned as-is (after trimming). Otherwise it unwraps the
// first fenced code block, drops prose before the first {/[ and after the
// last }/], and falls back to Repair when the remainder still fails to parse.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	if json.Valid([]byte(s)) {
		return s
	}

	if inner, ok := firstFencedBlock(s); ok {
		s = strings.TrimSpace(inner)
	}

	// Leading prose ("Here is the JSON:").
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		if start := strings.IndexAny(s, "{["); start >= 0 {
			s = s[start:]
		}
	}

	// Trailing prose after the document.
	if !strings.HasSuffix(s, "}") && !strings.HasSuffix(s, "]") {
		if end := strings.LastIndexAny(s, "}]"); end >= 0 {
			s = s[:end+1]
		}
	}

	s = strings.TrimSpace(s)
	if json.Valid([]byte(s)) {
		return s
	}
	return Repair(s)
}

// firstFencedBlock returns the interior of the first ``` block. The opening
// fence may carry a "json" tag, and the closing fence may be missing when the
// response was truncated.
func firstFencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]
	if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
		rest = rest[4:]
	}
	rest = strings.TrimLeft(rest, " \t")
	switch {
	case strings.HasPrefix(rest, "\r\n"):
		rest = rest[2:]
	case strings.HasPrefix(rest, "\n"):
		rest = rest[1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return rest, true
}
