package classifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Verdict is the classifier's importance decision for one message.
type Verdict struct {
	Important bool   `json:"important"`
	Reason    string `json:"reason"`
}

// rawVerdict uses pointers so that a missing field is distinguishable from
// a zero value. A response missing either required field is rejected, not
// defaulted.
type rawVerdict struct {
	Important *bool   `json:"important"`
	Reason    *string `json:"reason"`
}

// ParseVerdict decodes a model response into a Verdict. Models do not
// reliably return a bare JSON object: the response may wrap the object in
// a markdown code fence or surrounding prose, so after a direct decode
// fails the parser extracts the first balanced JSON object from the text
// and decodes that. An error means the response is unusable and the caller
// must fall back to the safe default verdict.
func ParseVerdict(raw string) (Verdict, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Verdict{}, fmt.Errorf("empty response")
	}

	if v, err := decodeVerdict(raw); err == nil {
		return v, nil
	}

	obj := extractJSONObject(raw)
	if obj == "" {
		return Verdict{}, fmt.Errorf("no JSON object in response")
	}
	v, err := decodeVerdict(obj)
	if err != nil {
		return Verdict{}, fmt.Errorf("embedded JSON object invalid: %w", err)
	}
	return v, nil
}

func decodeVerdict(s string) (Verdict, error) {
	var rv rawVerdict
	if err := json.Unmarshal([]byte(s), &rv); err != nil {
		return Verdict{}, err
	}
	if rv.Important == nil {
		return Verdict{}, fmt.Errorf("missing required field %q", "important")
	}
	if rv.Reason == nil {
		return Verdict{}, fmt.Errorf("missing required field %q", "reason")
	}
	return Verdict{Important: *rv.Important, Reason: *rv.Reason}, nil
}

// extractJSONObject returns the first balanced top-level {...} in s,
// or "" when none exists. Braces inside JSON strings are skipped.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
