package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrUnparseableVerdict is returned when a model response holds no usable
// JSON object.
var ErrUnparseableVerdict = errors.New("unparseable model verdict")

// RiskVerdict is the JSON verdict requested from the model for a risk
// assessment.
type RiskVerdict struct {
	RiskLevel      string   `json:"risk_level"`
	Confidence     float64  `json:"confidence"`
	Reasoning      string   `json:"reasoning"`
	Recommendation string   `json:"recommendation"`
	Flags          []string `json:"flags"`
}

// AuthenticityVerdict is the JSON verdict requested for an authenticity
// analysis of a target profile.
type AuthenticityVerdict struct {
	AuthenticityScore float64  `json:"authenticity_score"`
	Confidence        float64  `json:"confidence"`
	Indicators        []string `json:"indicators"`
	Reasoning         string   `json:"reasoning"`
}

// ParseRiskVerdict extracts a RiskVerdict from raw model output. Models wrap
// JSON in prose or code fences, so the first balanced object is taken.
// Missing keys get cautious defaults (yellow, confidence 0); out-of-range
// values are clamped. Returns ErrUnparseableVerdict when no object parses.
func ParseRiskVerdict(raw string) (*RiskVerdict, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return nil, ErrUnparseableVerdict
	}

	v := &RiskVerdict{}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return nil, ErrUnparseableVerdict
	}

	switch strings.ToLower(strings.TrimSpace(v.RiskLevel)) {
	case "green":
		v.RiskLevel = "green"
	case "red":
		v.RiskLevel = "red"
	default:
		// Missing or unrecognized level is treated as uncertainty.
		v.RiskLevel = "yellow"
	}
	v.Confidence = clamp01(v.Confidence)
	if v.Reasoning == "" {
		v.Reasoning = "no reasoning provided"
	}
	if v.Recommendation == "" {
		v.Recommendation = "proceed_with_caution"
	}
	return v, nil
}

// ParseAuthenticityVerdict extracts an AuthenticityVerdict from raw model
// output. Missing fields default to the neutral score (0.5) with zero
// confidence.
func ParseAuthenticityVerdict(raw string) (*AuthenticityVerdict, error) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return nil, ErrUnparseableVerdict
	}

	// Probe which keys are actually present so absent scores default to
	// neutral rather than zero.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &probe); err != nil {
		return nil, ErrUnparseableVerdict
	}

	v := &AuthenticityVerdict{AuthenticityScore: 0.5}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return nil, ErrUnparseableVerdict
	}
	if _, ok := probe["authenticity_score"]; !ok {
		v.AuthenticityScore = 0.5
	}
	v.AuthenticityScore = clamp01(v.AuthenticityScore)
	v.Confidence = clamp01(v.Confidence)
	return v, nil
}

// extractJSONObject finds the first balanced top-level JSON object in s.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
