package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ailurusbio/synvectordb/ai/core/llm"
	"github.com/ailurusbio/synvectordb/ai/metrics"
	"github.com/ailurusbio/synvectordb/store"
)

const qaSystemPrompt = `You are an expert assistant for a catalog of biological parts (promoters, RBS, coding sequences, terminators, plasmid backbones).
Answer the user's question using ONLY the part information provided in the context.
If the context does not contain the information needed, say that the catalog does not cover it. Do not invent parts, sequences, or properties.
Keep answers concise and cite part names when you use them.`

// Engine answers questions grounded in retrieved parts, with optional
// streaming delivery and multi-turn history.
type Engine struct {
	searcher *Searcher
	llm      llm.Service
	model    string
	metrics  *metrics.PrometheusExporter
}

// NewEngine creates a QA engine. The model name is used for metrics labels
// only; exporter may be nil.
func NewEngine(searcher *Searcher, service llm.Service, model string, exporter *metrics.PrometheusExporter) *Engine {
	return &Engine{
		searcher: searcher,
		llm:      service,
		model:    model,
		metrics:  exporter,
	}
}

// Ask answers one question. Language-model failures never fail the call:
// the response then carries the error text as the answer and no sources.
// Only store and embedding initialization failures return an error.
func (e *Engine) Ask(ctx context.Context, req *AskRequest) (*AskResponse, error) {
	started := time.Now()

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	resp := &AskResponse{
		Question: req.Question,
		Sources:  []Result{},
	}

	provider, err := e.searcher.Provider(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "embedding provider unavailable")
	}
	vector, err := provider.Embed(ctx, req.Question)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed question")
	}

	mode := "catalog"
	var sources []Result
	if req.AdHoc.Consistent() {
		mode = "adhoc"
		for _, scored := range req.AdHoc.TopK(vector, topK) {
			sources = append(sources, Result{
				Name:             scored.part.Name,
				Type:             scored.part.Type,
				Description:      scored.part.Description,
				SourceCollection: scored.part.Source,
				Similarity:       scored.similarity,
			})
		}
	} else {
		if req.AdHoc != nil && !req.AdHoc.Consistent() {
			slog.Warn("ad-hoc dataset inconsistent, falling back to catalog",
				"parts", len(req.AdHoc.Parts),
				"embeddings", len(req.AdHoc.Embeddings),
			)
		}
		matches, err := e.searcher.store.SearchPartEmbeddings(ctx, &store.PartVectorSearch{
			Vector: vector,
			Limit:  topK,
		})
		if err != nil {
			e.observeQA(mode, "error", started)
			return nil, errors.Wrap(err, "vector search failed")
		}
		for _, match := range matches {
			sources = append(sources, toResult(match))
		}
	}

	messages := llm.FormatMessages(qaSystemPrompt, buildQAPrompt(req.Question, sources), historyMessages(req.ChatHistory))

	answer, stats, llmErr := e.complete(ctx, messages, req.StreamHandler)
	if llmErr != nil {
		slog.Error("QA model call failed", "error", llmErr)
		resp.Answer = llmErr.Error()
		resp.Sources = []Result{}
		resp.ExecutionTime = time.Since(started).Seconds()
		e.observeQA(mode, "error", started)
		return resp, nil
	}

	for i := range sources {
		sources[i].SampleSequence = SampleSequence(sources[i].Type)
	}

	resp.Answer = answer
	resp.Sources = sources
	resp.ExecutionTime = time.Since(started).Seconds()

	e.observeQA(mode, "ok", started)
	if e.metrics != nil && stats != nil {
		e.metrics.ObserveLLMCall(e.model, stats.PromptTokens, stats.CompletionTokens,
			time.Duration(stats.TotalDurationMs)*time.Millisecond)
	}
	return resp, nil
}

// complete runs the model call, streaming through the handler when one is
// supplied and accumulating the full answer either way.
func (e *Engine) complete(ctx context.Context, messages []llm.Message, handler StreamHandler) (string, *llm.LLMCallStats, error) {
	if e.llm == nil {
		return "", nil, errors.New("language model not configured, set the LLM API key")
	}

	if handler == nil {
		return e.llm.Chat(ctx, messages)
	}

	contentChan, statsChan, errChan := e.llm.ChatStream(ctx, messages)
	var answer strings.Builder
	for chunk := range contentChan {
		answer.WriteString(chunk)
		handler(chunk)
	}
	if err := <-errChan; err != nil {
		return "", nil, err
	}
	stats := <-statsChan
	return answer.String(), stats, nil
}

// maxHistoryTurns bounds how many prior turns reach the model. Older turns
// rarely add grounding and inflate token usage.
const maxHistoryTurns = 6

// historyMessages converts prior turns for the model, keeping role and
// content only. Sources and timestamps never reach the provider.
func historyMessages(history []ChatMessage) []llm.Message {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	messages := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		if turn.Role != "user" && turn.Role != "assistant" {
			continue
		}
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}

// buildQAPrompt concatenates retrieved parts into the grounding context
// followed by the question.
func buildQAPrompt(question string, sources []Result) string {
	var b strings.Builder
	if len(sources) == 0 {
		b.WriteString("Context: no matching parts were found in the catalog.\n")
	} else {
		b.WriteString("Context from the parts catalog:\n\n")
		for i, src := range sources {
			fmt.Fprintf(&b, "%d. Name: %s\n", i+1, src.Name)
			if src.Type != "" {
				fmt.Fprintf(&b, "   Type: %s\n", src.Type)
			}
			if src.SourceCollection != "" {
				fmt.Fprintf(&b, "   Source: %s\n", src.SourceCollection)
			}
			if src.Description != "" {
				fmt.Fprintf(&b, "   Description: %s\n", src.Description)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func (e *Engine) observeQA(mode, status string, started time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveQA(mode, status, time.Since(started))
}
