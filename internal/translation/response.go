package translation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse is returned when the model output is not valid JSON
var ErrMalformedResponse = errors.New("malformed model response")

// errNotArray marks a response that is valid JSON but not an array
var errNotArray = errors.New("response is not a JSON array")

// stripCodeFences removes markdown fences the model wraps around JSON
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	return content
}

// parseArray decodes content into its array elements
func parseArray(content string) ([]json.RawMessage, error) {
	data := bytes.TrimSpace([]byte(stripCodeFences(content)))
	if !json.Valid(data) {
		var probe any
		err := json.Unmarshal(data, &probe)
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if data[0] != '[' {
		return nil, errNotArray
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}
