package insight

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrGenerate is returned when the chat model call itself fails.
var ErrGenerate = errors.New("insight: generate failed")

// ErrMalformedOutput is returned when the model response is not the JSON
// object the prompt asked for.
var ErrMalformedOutput = errors.New("insight: malformed model output")

// parseJSON decodes a model response into T. Responses wrapped in ```json
// fences, or with prose around the object, are accepted.
func parseJSON[T any](output string) (*T, error) {
	out := new(T)
	if err := json.Unmarshal([]byte(output), out); err == nil {
		return out, nil
	}

	cleaned := stripFences(output)
	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return out, nil
	}

	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedOutput)
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return out, nil
}

// stripFences removes a leading ```json or ``` fence and a trailing ``` fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
