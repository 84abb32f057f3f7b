package classify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes a surrounding ```json fence if the model wrapped
// its answer despite instructions.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeResult turns raw model text into a Result or a *MalformedError;
// it never produces a partial record. Beyond JSON parsing it enforces the
// fields the caller can least afford to lose: itemName present, category
// within the closed enumeration, confidence within [0, 100].
func DecodeResult(provider, text string) (Result, error) {
	text = StripCodeFences(text)
	if text == "" {
		return Result{}, &MalformedError{Provider: provider, Reason: "empty response"}
	}

	var out Result
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return Result{}, &MalformedError{Provider: provider, Reason: "bad JSON: " + err.Error()}
	}

	if strings.TrimSpace(out.ItemName) == "" {
		return Result{}, &MalformedError{Provider: provider, Reason: "missing itemName"}
	}
	if !ValidCategory(out.Category) {
		return Result{}, &MalformedError{Provider: provider, Reason: fmt.Sprintf("category %q outside enumeration", out.Category)}
	}
	if out.Confidence < 0 || out.Confidence > 100 {
		return Result{}, &MalformedError{Provider: provider, Reason: fmt.Sprintf("confidence %d outside [0,100]", out.Confidence)}
	}
	return out, nil
}
