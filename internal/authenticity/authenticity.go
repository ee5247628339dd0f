// Package authenticity scores target profiles for bot-likeness before the
// pipeline interacts with them.
//
// Two signals combine: pattern heuristics over the profile record (username
// shape, bio content, metric anomalies) and an LLM judgment. The blend is
// weighted 70% LLM / 30% patterns; when the LLM path fails the analyzer
// degrades to the neutral score instead of an optimistic one.
package authenticity

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// Level buckets an authenticity score.
type Level string

const (
	LevelGenuine       Level = "genuine"        // ≥0.8
	LevelLikelyGenuine Level = "likely_genuine" // ≥0.6
	LevelSuspicious    Level = "suspicious"     // ≥0.4
	LevelLikelyBot     Level = "likely_bot"     // ≥0.2
	LevelDefiniteBot   Level = "definite_bot"
)

// LevelOf converts a score into its level bucket.
func LevelOf(score float64) Level {
	switch {
	case score >= 0.8:
		return LevelGenuine
	case score >= 0.6:
		return LevelLikelyGenuine
	case score >= 0.4:
		return LevelSuspicious
	case score >= 0.2:
		return LevelLikelyBot
	default:
		return LevelDefiniteBot
	}
}

// Profile is the target account data under analysis.
type Profile struct {
	Username       string     `json:"username"`
	Bio            string     `json:"bio"`
	FollowerCount  int        `json:"followerCount"`
	FollowingCount int        `json:"followingCount"`
	PostCount      int        `json:"postCount"`
	EngagementRate float64    `json:"engagementRate"`
	HasProfilePic  bool       `json:"hasProfilePic"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

// Analysis is the combined verdict on a profile.
type Analysis struct {
	Username   string   `json:"username"`
	Score      float64  `json:"score"`
	Level      Level    `json:"level"`
	Confidence float64  `json:"confidence"`
	Flags      []string `json:"flags,omitempty"`
	Reasoning  string   `json:"reasoning"`

	// Degraded marks analyses where the LLM path failed and only the
	// pattern half contributed real signal.
	Degraded bool `json:"degraded"`
}

// Generator is the LLM capability the analyzer consumes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Username shapes typical of throwaway bot accounts.
var botUsernamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[a-z]+\d{4,8}$`),
	regexp.MustCompile(`^user\d+$`),
	regexp.MustCompile(`^\w+_\d+$`),
	regexp.MustCompile(`^[a-z]{8,12}\d{2,4}$`),
}

var botBioIndicators = []string{
	"dm for promo", "follow for follow", "f4f", "l4l",
	"click link", "free followers", "bot", "automation",
	"crypto", "investment opportunity", "make money fast",
}

// Metric anomaly thresholds.
const (
	suspiciousFollowRatio = 10.0
	perfectEngagement     = 0.95
	zeroEngagement        = 0.001
)

// Phase-specific minimum scores for interacting with a target. Early phases
// only touch accounts that look clearly human.
var phaseThresholds = map[string]float64{
	"phase_1": 0.7,
	"phase_2": 0.5,
	"phase_3": 0.3,
}

// Analyzer combines pattern heuristics with an LLM judgment.
type Analyzer struct {
	llm    Generator
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the analyzer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an authenticity analyzer.
func NewAnalyzer(llm Generator, opts ...Option) *Analyzer {
	a := &Analyzer{
		llm:    llm,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores a profile. Never returns an error: LLM failures degrade to
// the neutral 0.5 with zero confidence, leaving the pattern half intact.
func (a *Analyzer) Analyze(ctx context.Context, p *Profile) *Analysis {
	patternScore, flags := a.analyzePatterns(p)
	llmScore, confidence, reasoning, llmFlags, degraded := a.llmAnalysis(ctx, p)

	combined := llmScore*0.7 + patternScore*0.3
	flags = append(flags, llmFlags...)

	analysis := &Analysis{
		Username:   p.Username,
		Score:      combined,
		Level:      LevelOf(combined),
		Confidence: confidence,
		Flags:      flags,
		Reasoning:  reasoning,
		Degraded:   degraded,
	}
	a.logger.Debug("profile analyzed",
		"username", p.Username,
		"score", combined,
		"level", string(analysis.Level),
		"degraded", degraded,
	)
	return analysis
}

// ShouldInteract applies the phase threshold to a fresh analysis.
func (a *Analyzer) ShouldInteract(ctx context.Context, p *Profile, phase string) (bool, string) {
	analysis := a.Analyze(ctx, p)
	threshold, ok := phaseThresholds[phase]
	if !ok {
		threshold = 0.5
	}
	interact := analysis.Score >= threshold
	cmp := "<"
	if interact {
		cmp = ">="
	}
	return interact, fmt.Sprintf("authenticity score %.2f %s threshold %.2f for %s",
		analysis.Score, cmp, threshold, phase)
}

// analyzePatterns starts from full authenticity (1.0) and subtracts per
// detected anomaly, flooring at 0.
func (a *Analyzer) analyzePatterns(p *Profile) (float64, []string) {
	score := 1.0
	var flags []string

	if usernameScore(p.Username) < 0.5 {
		score -= 0.2
		flags = append(flags, fmt.Sprintf("suspicious username pattern: %s", p.Username))
	}

	bio := strings.ToLower(p.Bio)
	bioHits := 0
	for _, indicator := range botBioIndicators {
		if strings.Contains(bio, indicator) {
			bioHits++
		}
	}
	if bioHits > 0 {
		penalty := float64(bioHits) * 0.1
		if penalty > 0.3 {
			penalty = 0.3
		}
		score -= penalty
		flags = append(flags, fmt.Sprintf("bot-like bio content (%d indicators)", bioHits))
	}

	if p.FollowerCount > 0 {
		ratio := float64(p.FollowingCount) / float64(p.FollowerCount)
		if ratio > suspiciousFollowRatio {
			score -= 0.3
			flags = append(flags, fmt.Sprintf("suspicious follow ratio: %.1f", ratio))
		}
	}

	if p.FollowerCount > 1000 && p.PostCount == 0 {
		score -= 0.4
		flags = append(flags, "high followers but zero posts")
	}

	switch {
	case p.EngagementRate > perfectEngagement:
		score -= 0.2
		flags = append(flags, fmt.Sprintf("suspiciously high engagement: %.2f", p.EngagementRate))
	case p.EngagementRate < zeroEngagement && p.FollowerCount > 100:
		score -= 0.3
		flags = append(flags, fmt.Sprintf("suspiciously low engagement: %.4f", p.EngagementRate))
	}

	if !p.HasProfilePic {
		score -= 0.1
		flags = append(flags, "no profile picture")
	}

	if p.CreatedAt != nil {
		ageDays := int(a.now().Sub(*p.CreatedAt).Hours() / 24)
		if ageDays < 7 {
			score -= 0.2
			flags = append(flags, fmt.Sprintf("very new account (%d days)", ageDays))
		}
	}

	if score < 0 {
		score = 0
	}
	return score, flags
}

func usernameScore(username string) float64 {
	lower := strings.ToLower(username)
	for _, pattern := range botUsernamePatterns {
		if pattern.MatchString(lower) {
			return 0.3
		}
	}
	if len(username) > 15 {
		return 0.6
	}
	if strings.Count(username, "_") > 2 {
		return 0.5
	}
	digits := 0
	for _, r := range username {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if len(username) > 0 && float64(digits) > float64(len(username))*0.5 {
		return 0.4
	}
	return 1.0
}
