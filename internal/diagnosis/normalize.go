package diagnosis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	defaultIssue       = "Unknown Issue"
	defaultSeverity    = "Medium Severity"
	defaultDescription = "No description provided"

	fallbackIssue       = "Analysis Error"
	fallbackDescription = "Unable to parse AI response. Please try again with clearer information."

	unparsedConfidence = 50
)

// FallbackResult is substituted when no JSON object can be recovered from a
// model reply.
func FallbackResult() Result {
	return Result{
		DetectedIssue: fallbackIssue,
		Severity:      defaultSeverity,
		Description:   fallbackDescription,
	}
}

// Normalize coerces a raw model reply into a Result. It never fails.
func Normalize(raw string) Result {
	res, _ := normalize(raw)
	return res
}

// normalize also reports whether the fallback result was used.
func normalize(raw string) (Result, bool) {
	obj, ok := extractObject(raw)
	if !ok {
		return FallbackResult(), true
	}
	return Result{
		DetectedIssue:  textField(obj, "detected_issue", defaultIssue),
		Severity:       textField(obj, "severity", defaultSeverity),
		Description:    textField(obj, "description", defaultDescription),
		EstimatedPrice: priceField(obj["estimated_price"]),
		Confidence:     confidenceField(obj),
	}, false
}

// extractObject returns the first JSON object found in raw: the whole
// trimmed text if it is one, else the first balanced top-level {...} span
// that decodes as an object.
func extractObject(raw string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(raw)
	if obj, ok := decodeObject(trimmed); ok {
		return obj, true
	}
	for start := strings.IndexByte(trimmed, '{'); start >= 0; {
		end := matchBrace(trimmed, start)
		if end > start {
			if obj, ok := decodeObject(trimmed[start : end+1]); ok {
				return obj, true
			}
		}
		next := strings.IndexByte(trimmed[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

// matchBrace returns the index of the brace closing the one at start, or -1.
// Braces inside JSON string literals are ignored.
func matchBrace(s string, start int) int {
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
				return i
			}
		}
	}
	return -1
}

func decodeObject(s string) (map[string]any, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func textField(obj map[string]any, key, def string) string {
	switch v := obj[key].(type) {
	case nil:
		return def
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return def
		}
		return string(b)
	}
}

func confidenceField(obj map[string]any) int {
	v, present := obj["confidence"]
	if !present {
		return 0
	}
	switch c := v.(type) {
	case float64:
		return clampConfidence(math.Trunc(c))
	case string:
		return confidenceFromText(c)
	default:
		return unparsedConfidence
	}
}

// confidenceFromText parses the first run of ASCII digits in s.
func confidenceFromText(s string) int {
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return unparsedConfidence
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(s[start:end], 10, 64)
	if err != nil {
		return 100
	}
	return clampConfidence(float64(n))
}

func clampConfidence(f float64) int {
	switch {
	case f <= 0:
		return 0
	case f >= 100:
		return 100
	default:
		return int(f)
	}
}

func priceField(v any) Price {
	obj, ok := v.(map[string]any)
	if !ok {
		return Price{}
	}
	return Price{Low: amount(obj["low"]), High: amount(obj["high"])}
}

var amountReplacer = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", "USD", "", "usd", "", " ", "")

func amount(v any) float64 {
	switch a := v.(type) {
	case float64:
		return a
	case string:
		f, err := strconv.ParseFloat(amountReplacer.Replace(strings.TrimSpace(a)), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}
