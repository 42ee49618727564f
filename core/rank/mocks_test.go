package rank

import (
	"context"

	"newsfetch-api/core/interfaces"
)

// mockLLM is a mock implementation of the LLM interface
type mockLLM struct {
	available     bool
	scoreFunc     func(ctx context.Context, topic string, candidates []interfaces.RankCandidate) (map[int]float64, error)
	summarizeFunc func(ctx context.Context, topic string, items []interfaces.SummaryInput, maxBullets int) ([]string, error)
}

func (m *mockLLM) Available() bool { return m.available }

func (m *mockLLM) ScoreRelevance(ctx context.Context, topic string, candidates []interfaces.RankCandidate) (map[int]float64, error) {
	if m.scoreFunc != nil {
		return m.scoreFunc(ctx, topic, candidates)
	}
	return nil, nil
}

func (m *mockLLM) Summarize(ctx context.Context, topic string, items []interfaces.SummaryInput, maxBullets int) ([]string, error) {
	if m.summarizeFunc != nil {
		return m.summarizeFunc(ctx, topic, items, maxBullets)
	}
	return nil, nil
}

// mockLogger discards all log output
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields map[string]interface{}) {}
func (mockLogger) Info(msg string, fields map[string]interface{})  {}
func (mockLogger) Warn(msg string, fields map[string]interface{})  {}
func (mockLogger) Error(msg string, fields map[string]interface{}) {}
