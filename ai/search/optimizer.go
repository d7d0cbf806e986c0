package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/time/rate"

	"github.com/ailurusbio/synvectordb/ai/core/llm"
	"github.com/ailurusbio/synvectordb/ai/metrics"
)

const optimizerSystemPrompt = `You are a query optimization assistant for a biological parts catalog.
Rewrite the user's search query to be more precise for semantic retrieval over part names, types, and descriptions.
Respond with ONLY a JSON object of this exact shape, no prose outside the JSON:
{
  "optimized_query": "<rewritten query>",
  "explanation": "<one sentence on what was changed>",
  "key_terms": ["<term>", ...],
  "organism": "<inferred organism or empty string>",
  "part_type": "<inferred part type or empty string>",
  "include_types": ["<part type>", ...],
  "exclude_types": ["<part type>", ...],
  "include_sources": ["<source collection>", ...],
  "exclude_sources": ["<source collection>", ...]
}`

// salvagePattern extracts the optimized query from a response whose JSON
// framing is broken but whose field content survived.
var salvagePattern = regexp.MustCompile(`"optimized_query"\s*:\s*"((?:[^"\\]|\\.)*)"`)

// Optimizer rewrites free-text queries through the language model. It never
// fails past its own boundary: every call yields a well-formed
// OptimizationResult, falling back to the original query on any error.
type Optimizer struct {
	llm     llm.Service
	limiter *rate.Limiter
	metrics *metrics.PrometheusExporter
}

// NewOptimizer creates an Optimizer. The limiter bounds how fast
// optimization requests hit the external provider; metrics may be nil.
func NewOptimizer(service llm.Service, limiter *rate.Limiter, exporter *metrics.PrometheusExporter) *Optimizer {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(5), 10)
	}
	return &Optimizer{
		llm:     service,
		limiter: limiter,
		metrics: exporter,
	}
}

// Optimize rewrites the query. The returned OptimizedQuery is never empty.
func (o *Optimizer) Optimize(ctx context.Context, query string) *OptimizationResult {
	result := o.optimize(ctx, query)
	if o.metrics != nil {
		o.metrics.ObserveOptimize(result.Status)
	}
	return result
}

func (o *Optimizer) optimize(ctx context.Context, query string) *OptimizationResult {
	fallback := &OptimizationResult{
		Status:         OptimizeStatusError,
		OriginalQuery:  query,
		OptimizedQuery: query,
	}

	if o.llm == nil {
		return fallback
	}
	if err := o.limiter.Wait(ctx); err != nil {
		slog.Warn("query optimization rate limit wait cancelled", "error", err)
		return fallback
	}

	content, _, err := o.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(optimizerSystemPrompt),
		llm.UserMessage(query),
	})
	if err != nil {
		slog.Warn("query optimization failed, using original query", "error", err)
		return fallback
	}

	return parseOptimization(query, content)
}

// parseOptimization is the two-stage decode: strict JSON first, then a
// best-effort salvage of the optimized query from the raw text.
func parseOptimization(query, content string) *OptimizationResult {
	raw := stripCodeFences(content)

	var decoded struct {
		OptimizedQuery string   `json:"optimized_query"`
		Explanation    string   `json:"explanation"`
		KeyTerms       []string `json:"key_terms"`
		Organism       string   `json:"organism"`
		PartType       string   `json:"part_type"`
		IncludeTypes   []string `json:"include_types"`
		ExcludeTypes   []string `json:"exclude_types"`
		IncludeSources []string `json:"include_sources"`
		ExcludeSources []string `json:"exclude_sources"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil && strings.TrimSpace(decoded.OptimizedQuery) != "" {
		return &OptimizationResult{
			Status:         OptimizeStatusSuccess,
			OriginalQuery:  query,
			OptimizedQuery: strings.TrimSpace(decoded.OptimizedQuery),
			Explanation:    decoded.Explanation,
			KeyTerms:       decoded.KeyTerms,
			Organism:       decoded.Organism,
			PartType:       decoded.PartType,
			IncludeTypes:   decoded.IncludeTypes,
			ExcludeTypes:   decoded.ExcludeTypes,
			IncludeSources: decoded.IncludeSources,
			ExcludeSources: decoded.ExcludeSources,
		}
	}

	if match := salvagePattern.FindStringSubmatch(raw); match != nil {
		var salvaged string
		if err := json.Unmarshal([]byte(`"`+match[1]+`"`), &salvaged); err == nil && strings.TrimSpace(salvaged) != "" {
			slog.Warn("query optimization response malformed, salvaged optimized query")
			return &OptimizationResult{
				Status:         OptimizeStatusPartial,
				OriginalQuery:  query,
				OptimizedQuery: strings.TrimSpace(salvaged),
			}
		}
	}

	slog.Warn("query optimization response unusable, using original query")
	return &OptimizationResult{
		Status:         OptimizeStatusError,
		OriginalQuery:  query,
		OptimizedQuery: query,
	}
}

// stripCodeFences unwraps a fenced block so that models that insist on
// markdown framing still decode.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line (```json).
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
