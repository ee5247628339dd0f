package ai

import (
	"errors"
	"testing"
)

func TestParseRiskVerdict(t *testing.T) {
	v, err := ParseRiskVerdict(`{"risk_level": "green", "confidence": 0.85, "reasoning": "healthy", "recommendation": "proceed", "flags": ["ok"]}`)
	if err != nil {
		t.Fatalf("ParseRiskVerdict: %v", err)
	}
	if v.RiskLevel != "green" || v.Confidence != 0.85 || v.Reasoning != "healthy" {
		t.Errorf("verdict = %+v", v)
	}
	if len(v.Flags) != 1 || v.Flags[0] != "ok" {
		t.Errorf("flags = %v", v.Flags)
	}
}

func TestParseRiskVerdict_ExtractsFromProse(t *testing.T) {
	raw := "Sure! Here's my assessment:\n```json\n{\"risk_level\": \"red\", \"confidence\": 0.9, \"reasoning\": \"too fast\"}\n```\nLet me know if you need more."
	v, err := ParseRiskVerdict(raw)
	if err != nil {
		t.Fatalf("ParseRiskVerdict: %v", err)
	}
	if v.RiskLevel != "red" {
		t.Errorf("level = %s, want red", v.RiskLevel)
	}
}

func TestParseRiskVerdict_NestedBraces(t *testing.T) {
	raw := `{"risk_level": "green", "confidence": 1, "reasoning": "contains {braces} and \"quotes\""}`
	v, err := ParseRiskVerdict(raw)
	if err != nil {
		t.Fatalf("ParseRiskVerdict: %v", err)
	}
	if v.RiskLevel != "green" {
		t.Errorf("level = %s", v.RiskLevel)
	}
}

func TestParseRiskVerdict_LevelNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GREEN", "green"},
		{" Red ", "red"},
		{"YeLLoW", "yellow"},
		{"orange", "yellow"},
		{"", "yellow"},
	}
	for _, tt := range tests {
		v, err := ParseRiskVerdict(`{"risk_level": "` + tt.in + `", "confidence": 0.5}`)
		if err != nil {
			t.Fatalf("ParseRiskVerdict(%q): %v", tt.in, err)
		}
		if v.RiskLevel != tt.want {
			t.Errorf("level %q normalized to %s, want %s", tt.in, v.RiskLevel, tt.want)
		}
	}
}

func TestParseRiskVerdict_Defaults(t *testing.T) {
	v, err := ParseRiskVerdict(`{}`)
	if err != nil {
		t.Fatalf("ParseRiskVerdict: %v", err)
	}
	if v.RiskLevel != "yellow" {
		t.Errorf("missing level = %s, want yellow", v.RiskLevel)
	}
	if v.Reasoning != "no reasoning provided" {
		t.Errorf("reasoning = %q", v.Reasoning)
	}
	if v.Recommendation != "proceed_with_caution" {
		t.Errorf("recommendation = %q", v.Recommendation)
	}
}

func TestParseRiskVerdict_ClampsConfidence(t *testing.T) {
	v, _ := ParseRiskVerdict(`{"risk_level": "green", "confidence": 1.7}`)
	if v.Confidence != 1 {
		t.Errorf("confidence = %v, want clamped to 1", v.Confidence)
	}
	v, _ = ParseRiskVerdict(`{"risk_level": "green", "confidence": -0.2}`)
	if v.Confidence != 0 {
		t.Errorf("confidence = %v, want clamped to 0", v.Confidence)
	}
}

func TestParseRiskVerdict_Unparseable(t *testing.T) {
	for _, raw := range []string{
		"no json here at all",
		"",
		"{truncated",
		`{"risk_level": }`,
	} {
		if _, err := ParseRiskVerdict(raw); !errors.Is(err, ErrUnparseableVerdict) {
			t.Errorf("ParseRiskVerdict(%q) err = %v, want ErrUnparseableVerdict", raw, err)
		}
	}
}

func TestParseAuthenticityVerdict(t *testing.T) {
	v, err := ParseAuthenticityVerdict(`{"authenticity_score": 0.85, "confidence": 0.7, "indicators": ["real photos"], "reasoning": "consistent history"}`)
	if err != nil {
		t.Fatalf("ParseAuthenticityVerdict: %v", err)
	}
	if v.AuthenticityScore != 0.85 || v.Confidence != 0.7 {
		t.Errorf("verdict = %+v", v)
	}
	if len(v.Indicators) != 1 {
		t.Errorf("indicators = %v", v.Indicators)
	}
}

func TestParseAuthenticityVerdict_MissingScoreDefaultsNeutral(t *testing.T) {
	v, err := ParseAuthenticityVerdict(`{"confidence": 0.9, "reasoning": "no score given"}`)
	if err != nil {
		t.Fatalf("ParseAuthenticityVerdict: %v", err)
	}
	if v.AuthenticityScore != 0.5 {
		t.Errorf("missing score = %v, want neutral 0.5", v.AuthenticityScore)
	}

	// An explicit zero is a real verdict, not a missing field.
	v, err = ParseAuthenticityVerdict(`{"authenticity_score": 0, "confidence": 0.9}`)
	if err != nil {
		t.Fatalf("ParseAuthenticityVerdict: %v", err)
	}
	if v.AuthenticityScore != 0 {
		t.Errorf("explicit zero score = %v, want 0", v.AuthenticityScore)
	}
}

func TestParseAuthenticityVerdict_Clamps(t *testing.T) {
	v, _ := ParseAuthenticityVerdict(`{"authenticity_score": 1.4, "confidence": 2}`)
	if v.AuthenticityScore != 1 || v.Confidence != 1 {
		t.Errorf("verdict = %+v, want clamped to 1", v)
	}
}

func TestParseAuthenticityVerdict_Unparseable(t *testing.T) {
	if _, err := ParseAuthenticityVerdict("definitely human"); !errors.Is(err, ErrUnparseableVerdict) {
		t.Errorf("err = %v, want ErrUnparseableVerdict", err)
	}
}

func TestExtractJSONObject(t *testing.T) {
	obj, ok := extractJSONObject(`prefix {"a": {"b": 1}} suffix {"c": 2}`)
	if !ok {
		t.Fatal("object not found")
	}
	if obj != `{"a": {"b": 1}}` {
		t.Errorf("extracted %q", obj)
	}

	if _, ok := extractJSONObject("no braces"); ok {
		t.Error("found object in brace-free input")
	}
	if _, ok := extractJSONObject(`{"unterminated": "str`); ok {
		t.Error("found object in unterminated input")
	}
}
