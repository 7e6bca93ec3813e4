package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ParseItems extracts the structured items from raw model output. The output
// is expected to be a JSON array or object, but may be wrapped in code fences
// or surrounded by prose. The payload is located by scanning for the first
// bracket and decoding one syntactically balanced JSON value from there, so
// trailing prose or nested structures cannot mis-slice it. A single object is
// coerced into a one-element slice.
func ParseItems(raw string) ([]ExtractedItem, error) {
	clean := stripCodeFences(raw)

	start := bytes.IndexAny([]byte(clean), "[{")
	if start < 0 {
		return nil, NewParseError(errors.New("no JSON payload found in model output"))
	}

	dec := json.NewDecoder(strings.NewReader(clean[start:]))
	var payload json.RawMessage
	if err := dec.Decode(&payload); err != nil {
		return nil, NewParseError(err)
	}

	if payload[0] == '{' {
		var item ExtractedItem
		if err := json.Unmarshal(payload, &item); err != nil {
			return nil, NewParseError(err)
		}
		return []ExtractedItem{item}, nil
	}

	var items []ExtractedItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, NewParseError(err)
	}
	return items, nil
}

func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
