// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON decodes a JSON object from a model answer. Models wrap JSON
// in markdown fences or prose despite instructions, so the decoder first
// strips ```json fences, then falls back to the outermost brace pair
// (R5.4). An answer with no decodable object returns an error; callers
// degrade to their fallback decision.
func ParseJSON(answer string, out any) error {
	text := strings.TrimSpace(answer)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	if err := json.Unmarshal([]byte(text), out); err == nil {
		return nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), out); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no JSON object in oracle answer")
}
