// Package interpret extracts structured results from free-form model
// replies. It handles fenced-code-block wrapping and one known model
// artifact (string values broken across lines) and otherwise leaves the
// reply alone: structurally invalid JSON is surfaced, never repaired.
package interpret

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sqlscribe/sqlscribe/internal/domain"
)

// previewLimit bounds the diagnostic preview attached to malformed
// responses.
const previewLimit = 500

// MalformedResponseError indicates the model replied but the text could not
// be parsed into the expected JSON shape. Raw always carries the original
// reply unmodified so the caller can show what the model actually said.
type MalformedResponseError struct {
	Raw     string
	Preview string
	Reason  string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed model response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func malformed(raw, reason string, err error) *MalformedResponseError {
	preview := raw
	if runes := []rune(preview); len(runes) > previewLimit {
		preview = string(runes[:previewLimit])
	}
	return &MalformedResponseError{Raw: raw, Preview: preview, Reason: reason, Err: err}
}

var jsonFence = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")

// ExtractJSON returns the interior of a ```json fenced block when the reply
// contains one, and the whole reply otherwise. Extraction is idempotent:
// already-bare JSON passes through unchanged.
func ExtractJSON(raw string) string {
	if m := jsonFence.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return strings.TrimSpace(raw)
}

var (
	brokenStringJoin = regexp.MustCompile(`"\s*\n\s+"`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// NormalizeMultiline repairs the most common model artifact in single-line
// JSON contracts: a string value broken across multiple physical lines.
// Adjacent quote-newline-quote sequences are joined, then all remaining
// newlines and whitespace runs collapse to single spaces.
//
// This is a heuristic pinned to exactly that artifact. It must not be
// extended to fix structurally invalid JSON, and it is not applied to
// dictionary payloads, whose descriptions may legitimately contain escaped
// newlines.
func NormalizeMultiline(candidate string) string {
	candidate = brokenStringJoin.ReplaceAllString(candidate, " ")
	candidate = strings.ReplaceAll(candidate, "\n", " ")
	return whitespaceRun.ReplaceAllString(candidate, " ")
}

// DecodeQueryResult parses a generation or repair reply. The sql key must
// be present (null is a valid value) along with explanation; isValid
// defaults to true when omitted.
func DecodeQueryResult(raw string) (*domain.GenerationResult, error) {
	candidate := NormalizeMultiline(ExtractJSON(raw))

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &keys); err != nil {
		return nil, malformed(raw, "invalid JSON", err)
	}
	if _, ok := keys["sql"]; !ok {
		return nil, malformed(raw, `missing required key "sql"`, nil)
	}
	if _, ok := keys["explanation"]; !ok {
		return nil, malformed(raw, `missing required key "explanation"`, nil)
	}

	result := domain.GenerationResult{IsValid: true, Warnings: []string{}}
	if err := json.Unmarshal(keys["sql"], &result.SQL); err != nil {
		return nil, malformed(raw, `key "sql" is neither a string nor null`, err)
	}
	if err := json.Unmarshal(keys["explanation"], &result.Explanation); err != nil {
		return nil, malformed(raw, `key "explanation" is not a string`, err)
	}
	if rawValid, ok := keys["isValid"]; ok {
		if err := json.Unmarshal(rawValid, &result.IsValid); err != nil {
			return nil, malformed(raw, `key "isValid" is not a boolean`, err)
		}
	}
	if rawWarnings, ok := keys["warnings"]; ok {
		if err := json.Unmarshal(rawWarnings, &result.Warnings); err != nil {
			return nil, malformed(raw, `key "warnings" is not a string array`, err)
		}
	}
	return &result, nil
}

// DecodeDictionary parses a dictionary-extraction reply. No multi-line
// normalization happens here: dictionary descriptions may contain embedded
// newlines, so the reply must already be valid JSON.
func DecodeDictionary(raw string) (*domain.FieldDictionary, error) {
	candidate := ExtractJSON(raw)

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &keys); err != nil {
		return nil, malformed(raw, "invalid JSON", err)
	}
	if _, ok := keys["tables"]; !ok {
		return nil, malformed(raw, `missing required key "tables"`, nil)
	}

	var dict domain.FieldDictionary
	if err := json.Unmarshal([]byte(candidate), &dict); err != nil {
		return nil, malformed(raw, "payload does not match the dictionary shape", err)
	}
	if dict.Tables == nil {
		return nil, malformed(raw, `key "tables" is not an array`, nil)
	}
	return &dict, nil
}

// DecodeSuggestions parses a query-suggestion reply.
func DecodeSuggestions(raw string) (*domain.SuggestionSet, error) {
	candidate := NormalizeMultiline(ExtractJSON(raw))

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &keys); err != nil {
		return nil, malformed(raw, "invalid JSON", err)
	}
	if _, ok := keys["suggestions"]; !ok {
		return nil, malformed(raw, `missing required key "suggestions"`, nil)
	}

	var set domain.SuggestionSet
	if err := json.Unmarshal([]byte(candidate), &set); err != nil {
		return nil, malformed(raw, "payload does not match the suggestion shape", err)
	}
	if set.Suggestions == nil {
		return nil, malformed(raw, `key "suggestions" is not an array`, nil)
	}
	return &set, nil
}
