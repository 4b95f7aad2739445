package llm

import (
	"encoding/json"
	"log"
	"strings"
)

// ParseJSONResponse decodes a model reply that should be a JSON object.
// Models wrap JSON in markdown fences often enough that both fenced
// forms are tried before giving up with an empty map.
func ParseJSONResponse(text string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out
	}

	if body, ok := fencedBody(text, "```json"); ok {
		if err := json.Unmarshal([]byte(body), &out); err == nil {
			return out
		}
	} else if body, ok := fencedBody(text, "```"); ok {
		if err := json.Unmarshal([]byte(body), &out); err == nil {
			return out
		}
	}

	log.Printf("llm: response was not valid JSON")
	return map[string]any{}
}

// fencedBody returns the text between an opening fence and the next
// closing fence.
func fencedBody(text, fence string) (string, bool) {
	start := strings.Index(text, fence)
	if start == -1 {
		return "", false
	}
	start += len(fence)
	end := strings.Index(text[start:], "```")
	if end == -1 {
		return "", false
	}
	return text[start : start+end], true
}
