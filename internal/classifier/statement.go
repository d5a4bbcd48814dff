package classifier

import (
	"context"
	"strings"

	"github.com/credence-io/credence/internal/domain"
)

// categorySignal maps phrase cues to an epistemic category. First match wins
// in priority order: forecasts and value judgments carry distinctive surface
// markers, so they are checked before the empirical default.
type categorySignal struct {
	category domain.EpistemicCategory
	cues     []string
}

var categorySignals = []categorySignal{
	{
		category: domain.CategoryForecast,
		cues: []string{
			"will ", "by 2030", "by 2040", "by 2050", "next year", "next decade",
			"is going to", "within the next", "in the future", "forecast", "predict",
		},
	},
	{
		category: domain.CategoryValue,
		cues: []string{
			"should ", "ought to", "is wrong", "is right", "is immoral", "is moral",
			"is unethical", "is ethical", "better than", "worse than", "is unfair",
			"is fair", "deserves", "must be allowed", "must be banned",
		},
	},
	{
		category: domain.CategorySpeculation,
		cues: []string{
			"consciousness", "afterlife", "meaning of life", "simulation",
			"god exists", "free will", "could in principle never",
		},
	},
}

// StatementClassifier buckets a belief statement into an epistemic category
// using surface cues. Statements with no cue default to empirical, the
// category with the highest knowability base.
type StatementClassifier struct{}

func NewStatementClassifier() *StatementClassifier {
	return &StatementClassifier{}
}

func (c *StatementClassifier) Classify(_ context.Context, statement string) (domain.EpistemicCategory, error) {
	lowered := strings.ToLower(statement)
	for _, sig := range categorySignals {
		for _, cue := range sig.cues {
			if strings.Contains(lowered, cue) {
				return sig.category, nil
			}
		}
	}
	return domain.CategoryEmpirical, nil
}
