package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ailurusbio/synvectordb/ai/core/llm"
)

// fakeLLM returns a scripted response or error and records the messages it
// received.
type fakeLLM struct {
	response string
	err      error
	messages [][]llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, messages []llm.Message) (string, *llm.LLMCallStats, error) {
	f.messages = append(f.messages, messages)
	if f.err != nil {
		return "", nil, f.err
	}
	return f.response, &llm.LLMCallStats{TotalTokens: 10}, nil
}

func (f *fakeLLM) ChatStream(_ context.Context, messages []llm.Message) (<-chan string, <-chan *llm.LLMCallStats, <-chan error) {
	f.messages = append(f.messages, messages)
	contentChan := make(chan string, 8)
	statsChan := make(chan *llm.LLMCallStats, 1)
	errChan := make(chan error, 1)
	if f.err != nil {
		errChan <- f.err
	} else {
		contentChan <- f.response
		statsChan <- &llm.LLMCallStats{TotalTokens: 10}
		errChan <- nil
	}
	close(contentChan)
	close(statsChan)
	close(errChan)
	return contentChan, statsChan, errChan
}

func TestParseOptimization(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		expectedStatus string
		expectedQuery  string
	}{
		{
			name:           "well formed json",
			content:        `{"optimized_query": "constitutive promoter E. coli", "explanation": "expanded", "key_terms": ["promoter"]}`,
			expectedStatus: OptimizeStatusSuccess,
			expectedQuery:  "constitutive promoter E. coli",
		},
		{
			name:           "markdown fenced json",
			content:        "```json\n{\"optimized_query\": \"fluorescent reporter protein\"}\n```",
			expectedStatus: OptimizeStatusSuccess,
			expectedQuery:  "fluorescent reporter protein",
		},
		{
			name:           "fence without language tag",
			content:        "```\n{\"optimized_query\": \"terminator sequence\"}\n```",
			expectedStatus: OptimizeStatusSuccess,
			expectedQuery:  "terminator sequence",
		},
		{
			name:           "broken json with salvageable query",
			content:        `{"optimized_query": "ribosome binding site", "explanation": "trailing garbage`,
			expectedStatus: OptimizeStatusPartial,
			expectedQuery:  "ribosome binding site",
		},
		{
			name:           "salvaged query decodes escapes",
			content:        `not json at all "optimized_query": "T7 \"strong\" promoter" more garbage`,
			expectedStatus: OptimizeStatusPartial,
			expectedQuery:  `T7 "strong" promoter`,
		},
		{
			name:           "prose response",
			content:        "I think you should search for promoters.",
			expectedStatus: OptimizeStatusError,
			expectedQuery:  "original query",
		},
		{
			name:           "valid json with empty optimized query",
			content:        `{"optimized_query": "  ", "explanation": "nothing"}`,
			expectedStatus: OptimizeStatusError,
			expectedQuery:  "original query",
		},
		{
			name:           "empty response",
			content:        "",
			expectedStatus: OptimizeStatusError,
			expectedQuery:  "original query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseOptimization("original query", tt.content)
			require.NotNil(t, result)
			assert.Equal(t, tt.expectedStatus, result.Status)
			assert.Equal(t, tt.expectedQuery, result.OptimizedQuery)
			assert.Equal(t, "original query", result.OriginalQuery)
			assert.NotEmpty(t, result.OptimizedQuery)
		})
	}
}

func TestParseOptimizationKeepsFilterFields(t *testing.T) {
	content := `{
		"optimized_query": "promoter",
		"include_types": ["promoter"],
		"exclude_types": ["plasmid"],
		"include_sources": ["igem"],
		"exclude_sources": ["lab"]
	}`
	result := parseOptimization("q", content)
	assert.Equal(t, OptimizeStatusSuccess, result.Status)
	assert.Equal(t, []string{"promoter"}, result.IncludeTypes)
	assert.Equal(t, []string{"plasmid"}, result.ExcludeTypes)
	assert.Equal(t, []string{"igem"}, result.IncludeSources)
	assert.Equal(t, []string{"lab"}, result.ExcludeSources)
}

func TestOptimizeWithoutLLM(t *testing.T) {
	o := NewOptimizer(nil, nil, nil)
	result := o.Optimize(context.Background(), "my query")
	assert.Equal(t, OptimizeStatusError, result.Status)
	assert.Equal(t, "my query", result.OptimizedQuery)
}

func TestOptimizeLLMError(t *testing.T) {
	o := NewOptimizer(&fakeLLM{err: errors.New("provider down")}, nil, nil)
	result := o.Optimize(context.Background(), "my query")
	assert.Equal(t, OptimizeStatusError, result.Status)
	assert.Equal(t, "my query", result.OptimizedQuery)
	assert.Equal(t, "my query", result.OriginalQuery)
}

func TestOptimizeSuccess(t *testing.T) {
	fake := &fakeLLM{response: `{"optimized_query": "rewritten"}`}
	o := NewOptimizer(fake, nil, nil)
	result := o.Optimize(context.Background(), "my query")
	assert.Equal(t, OptimizeStatusSuccess, result.Status)
	assert.Equal(t, "rewritten", result.OptimizedQuery)

	// The model sees the system prompt plus the raw user query.
	require.Len(t, fake.messages, 1)
	require.Len(t, fake.messages[0], 2)
	assert.Equal(t, "my query", fake.messages[0][1].Content)
}
