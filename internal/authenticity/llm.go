package authenticity

import (
	"context"
	"fmt"
	"strings"

	"github.com/socialseed/socialseed/internal/ai"
)

// llmAnalysis asks the provider chain for an authenticity verdict. On any
// failure it returns the neutral fallback (0.5 score, zero confidence) so
// the combined score stays cautious, never optimistic.
func (a *Analyzer) llmAnalysis(ctx context.Context, p *Profile) (score, confidence float64, reasoning string, flags []string, degraded bool) {
	raw, err := a.llm.Generate(ctx, buildProfilePrompt(p))
	if err != nil {
		a.logger.Warn("authenticity llm unavailable", "username", p.Username, "error", err)
		return 0.5, 0, "automated analysis unavailable, pattern signals only", nil, true
	}

	verdict, err := ai.ParseAuthenticityVerdict(raw)
	if err != nil {
		a.logger.Warn("authenticity verdict unparseable", "username", p.Username, "error", err)
		return 0.5, 0, "automated analysis unparseable, pattern signals only", nil, true
	}

	reasoning = verdict.Reasoning
	if reasoning == "" {
		reasoning = "no reasoning provided"
	}
	return verdict.AuthenticityScore, verdict.Confidence, reasoning, verdict.Indicators, false
}

func buildProfilePrompt(p *Profile) string {
	var b strings.Builder
	b.WriteString("You are a bot-detection analyst. Judge whether this social profile is an authentic human.\n\n")
	fmt.Fprintf(&b, "Profile:\n")
	fmt.Fprintf(&b, "- username: %s\n", p.Username)
	fmt.Fprintf(&b, "- bio: %s\n", p.Bio)
	fmt.Fprintf(&b, "- followers: %d, following: %d, posts: %d\n", p.FollowerCount, p.FollowingCount, p.PostCount)
	fmt.Fprintf(&b, "- engagement rate: %.4f\n", p.EngagementRate)
	fmt.Fprintf(&b, "- has profile picture: %t\n", p.HasProfilePic)

	b.WriteString("\nScore 0.0-0.2 definite bot, 0.2-0.4 likely bot, 0.4-0.6 suspicious, 0.6-0.8 likely human, 0.8-1.0 genuine.\n")
	b.WriteString("Respond with only a JSON object: ")
	b.WriteString(`{"authenticity_score": 0.0-1.0, "confidence": 0.0-1.0, "indicators": ["..."], "reasoning": "..."}`)
	return b.String()
}
