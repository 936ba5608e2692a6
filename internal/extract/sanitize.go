package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// The model is asked for a bare JSON array but routinely wraps it in
// markdown fences, prepends prose, comments entries, or leaves trailing
// commas. Every repair here is best-effort string surgery; the only hard
// failure mode is "no array found", which the caller treats as an empty
// extraction, never a fatal error.

var (
	fenceLineRe     = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
	lineCommentRe   = regexp.MustCompile(`(?m)(^|[\s,\[{])//[^\n]*`)
	ellipsisRe      = regexp.MustCompile(`\.\.\.`)
	repeatCommaRe   = regexp.MustCompile(`,\s*,+`)
	leadingCommaRe  = regexp.MustCompile(`([\[{])\s*,`)
	trailingCommaRe = regexp.MustCompile(`,\s*([\]}])`)
)

// SanitizeResponse repairs a raw model response and slices out the JSON
// array between the first '[' and the last ']'. The second return is false
// when no array could be located.
func SanitizeResponse(raw string) (string, bool) {
	s := fenceLineRe.ReplaceAllString(raw, "")
	s = lineCommentRe.ReplaceAllString(s, "$1")
	s = ellipsisRe.ReplaceAllString(s, "")
	s = repeatCommaRe.ReplaceAllString(s, ",")
	s = leadingCommaRe.ReplaceAllString(s, "$1")
	// Run the trailing-comma pass until fixed point: removing one comma can
	// expose another ("1,,]" -> "1,]" -> "1]").
	for {
		next := trailingCommaRe.ReplaceAllString(s, "$1")
		if next == s {
			break
		}
		s = next
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// ParseArray parses sanitized text as a JSON array of objects. Non-object
// elements are skipped.
func ParseArray(clean string) ([]map[string]any, error) {
	var raw []any
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, fmt.Errorf("parse entity array: %w", err)
	}
	objects := make([]map[string]any, 0, len(raw))
	for _, el := range raw {
		if obj, ok := el.(map[string]any); ok {
			objects = append(objects, obj)
		}
	}
	return objects, nil
}
