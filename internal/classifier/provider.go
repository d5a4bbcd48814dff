package classifier

import (
	"context"
	"fmt"

	"github.com/credence-io/credence/internal/domain"
)

// Provider constants
const (
	ProviderKeyword = "keyword"
	ProviderMock    = "mock"
)

// NewFallacyDetector creates a detector based on the provider name.
func NewFallacyDetector(provider string) (domain.FallacyDetector, error) {
	switch provider {
	case ProviderKeyword:
		return NewKeywordDetector(), nil
	case ProviderMock:
		return NewMockDetector(nil), nil
	default:
		return nil, fmt.Errorf("unknown fallacy provider: %s (valid options: keyword, mock)", provider)
	}
}

// MockDetector returns a fixed result set, or an injected error, for tests.
type MockDetector struct {
	Fallacies []domain.Fallacy
	Err       error
}

func NewMockDetector(fallacies []domain.Fallacy) *MockDetector {
	return &MockDetector{Fallacies: fallacies}
}

func (d *MockDetector) DetectFallacies(_ context.Context, _ string) ([]domain.Fallacy, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Fallacies, nil
}
