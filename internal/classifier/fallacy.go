package classifier

import (
	"context"
	"strings"

	"github.com/credence-io/credence/internal/domain"
)

// fallacyPattern maps a phrase to the fallacy it typically signals. Matching
// is substring-based over the lowercased argument text. Coarse on purpose:
// the output only nudges the logical-coherence sub-score, it never rejects
// an argument outright.
type fallacyPattern struct {
	phrases    []string
	fallacy    string
	severity   float64
	confidence float64
}

var fallacyPatterns = []fallacyPattern{
	{
		phrases:    []string{"everyone knows", "everybody agrees", "most people think", "it is common knowledge"},
		fallacy:    "appeal_to_popularity",
		severity:   0.5,
		confidence: 0.7,
	},
	{
		phrases:    []string{"experts say", "scientists agree", "authorities confirm"},
		fallacy:    "appeal_to_authority",
		severity:   0.3,
		confidence: 0.5,
	},
	{
		phrases:    []string{"you are an idiot", "only a fool", "anyone stupid enough", "idiots believe"},
		fallacy:    "ad_hominem",
		severity:   0.8,
		confidence: 0.8,
	},
	{
		phrases:    []string{"slippery slope", "will inevitably lead to", "it is only a matter of time before"},
		fallacy:    "slippery_slope",
		severity:   0.6,
		confidence: 0.6,
	},
	{
		phrases:    []string{"always", "never", "without exception", "in every case"},
		fallacy:    "overgeneralization",
		severity:   0.3,
		confidence: 0.4,
	},
	{
		phrases:    []string{"because i said so", "it just is", "obviously true"},
		fallacy:    "bare_assertion",
		severity:   0.7,
		confidence: 0.7,
	},
	{
		phrases:    []string{"either we", "the only alternative", "there are only two options"},
		fallacy:    "false_dilemma",
		severity:   0.6,
		confidence: 0.6,
	},
	{
		phrases:    []string{"correlation", "happened right after", "ever since"},
		fallacy:    "post_hoc",
		severity:   0.4,
		confidence: 0.4,
	},
}

// KeywordDetector scans argument text for phrases that signal common
// informal fallacies.
type KeywordDetector struct{}

func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{}
}

func (d *KeywordDetector) DetectFallacies(_ context.Context, text string) ([]domain.Fallacy, error) {
	lowered := strings.ToLower(text)

	var found []domain.Fallacy
	for _, p := range fallacyPatterns {
		for _, phrase := range p.phrases {
			if strings.Contains(lowered, phrase) {
				found = append(found, domain.Fallacy{
					Type:       p.fallacy,
					Severity:   p.severity,
					Confidence: p.confidence,
				})
				break
			}
		}
	}
	return found, nil
}
