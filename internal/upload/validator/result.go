package validator

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// extractWindow bounds how far into a reply the object scan will look
const extractWindow = 64 * 1024

// fallbackSummaryLen caps the raw text carried into a fallback summary
const fallbackSummaryLen = 500

// SeverityUnknown marks an outcome built from an unparseable reply
const SeverityUnknown = "unknown"

// Issue describes a single problem the model found in the data
type Issue struct {
	Row      int    `json:"row"`
	Column   string `json:"column"`
	Issue    string `json:"issue"`
	Severity string `json:"severity"`
}

// Outcome is the structured result of a validation run
type Outcome struct {
	ValidRows   int      `json:"valid_rows"`
	WarningRows int      `json:"warning_rows"`
	ErrorRows   int      `json:"error_rows"`
	Issues      []Issue  `json:"issues"`
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions"`
	Severity    string   `json:"severity"`
}

// ParseResponse interprets a model reply. It tries, in order: the whole
// reply (after stripping a markdown code fence) as JSON, then the first
// embedded JSON object containing "valid_rows", and finally a fallback
// outcome carrying the raw text as summary. It never fails.
func ParseResponse(content string) *Outcome {
	candidate := stripCodeFence(content)

	if out, ok := decodeOutcome(candidate); ok {
		return out
	}

	if obj := extractObject(content); obj != "" {
		if out, ok := decodeOutcome(obj); ok {
			return out
		}
	}

	return fallbackOutcome(content)
}

func decodeOutcome(s string) (*Outcome, bool) {
	var out Outcome
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, false
	}
	if !strings.Contains(s, "valid_rows") {
		return nil, false
	}
	if out.Issues == nil {
		out.Issues = []Issue{}
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	if out.Severity == "" {
		out.Severity = SeverityUnknown
	}
	return &out, true
}

// stripCodeFence unwraps ```json ... ``` (or bare ``` ... ```) blocks
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		first := strings.TrimSpace(trimmed[:nl])
		if first == "json" || first == "" {
			trimmed = trimmed[nl+1:]
		}
	}
	if end := strings.LastIndex(trimmed, "```"); end >= 0 {
		trimmed = trimmed[:end]
	}
	return strings.TrimSpace(trimmed)
}

// extractObject finds the first balanced JSON object mentioning
// "valid_rows" within the scan window.
func extractObject(s string) string {
	if len(s) > extractWindow {
		s = s[:extractWindow]
	}

	marker := strings.Index(s, `"valid_rows"`)
	if marker < 0 {
		return ""
	}

	start := strings.LastIndexByte(s[:marker], '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == '{':
			depth++
		case !inString && c == '}':
			depth--
			if depth == 0 {
				obj := s[start : i+1]
				if gjson.Valid(obj) {
					return obj
				}
				return ""
			}
		}
	}

	return ""
}

func fallbackOutcome(content string) *Outcome {
	summary := strings.TrimSpace(content)
	if len(summary) > fallbackSummaryLen {
		summary = summary[:fallbackSummaryLen]
	}
	return &Outcome{
		Issues:      []Issue{},
		Summary:     summary,
		Suggestions: []string{},
		Severity:    SeverityUnknown,
	}
}
