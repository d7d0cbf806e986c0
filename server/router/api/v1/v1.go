// Package v1 exposes the HTTP API: semantic search, question answering,
// parts browsing, and catalog statistics.
package v1

import (
	"log/slog"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/ailurusbio/synvectordb/ai"
	"github.com/ailurusbio/synvectordb/ai/core/embedding"
	"github.com/ailurusbio/synvectordb/ai/core/llm"
	"github.com/ailurusbio/synvectordb/ai/metrics"
	"github.com/ailurusbio/synvectordb/ai/search"
	"github.com/ailurusbio/synvectordb/internal/profile"
	"github.com/ailurusbio/synvectordb/store"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Metrics *metrics.PrometheusExporter

	Searcher *search.Searcher
	Engine   *search.Engine

	// adHocSessions holds uploaded datasets keyed by an unguessable ID.
	// Datasets are scoped to whoever holds the ID and never touch the store.
	adHocSessions sync.Map
}

// NewAPIV1Service wires the search and QA stack from the profile. When AI is
// disabled the browsing and stats endpoints still work; the vector endpoints
// answer 503.
func NewAPIV1Service(p *profile.Profile, st *store.Store, exporter *metrics.PrometheusExporter) *APIV1Service {
	service := &APIV1Service{
		Profile: p,
		Store:   st,
		Metrics: exporter,
	}

	aiConfig := ai.NewConfigFromProfile(p)
	if err := aiConfig.Validate(); err != nil {
		slog.Warn("AI configuration invalid, vector endpoints disabled", "error", err)
		return service
	}
	if !aiConfig.Enabled {
		slog.Info("AI disabled, vector endpoints unavailable")
		return service
	}

	var llmService llm.Service
	if aiConfig.LLM.APIKey != "" {
		var err error
		llmService, err = llm.NewService(&llm.Config{
			Provider:    aiConfig.LLM.Provider,
			Model:       aiConfig.LLM.Model,
			APIKey:      aiConfig.LLM.APIKey,
			BaseURL:     aiConfig.LLM.BaseURL,
			MaxTokens:   aiConfig.LLM.MaxTokens,
			Temperature: aiConfig.LLM.Temperature,
			Timeout:     aiConfig.LLM.Timeout,
		})
		if err != nil {
			slog.Warn("failed to initialize LLM service, optimization and QA degraded", "error", err)
		} else {
			slog.Info("LLM service initialized",
				"provider", aiConfig.LLM.Provider,
				"model", aiConfig.LLM.Model,
			)
		}
	}

	var optimizer *search.Optimizer
	if llmService != nil {
		optimizer = search.NewOptimizer(llmService, rate.NewLimiter(rate.Limit(5), 10), exporter)
	}

	embedCfg := embedding.Config{
		Provider:   aiConfig.Embedding.Provider,
		Model:      aiConfig.Embedding.Model,
		APIKey:     aiConfig.Embedding.APIKey,
		BaseURL:    aiConfig.Embedding.BaseURL,
		Dimensions: aiConfig.Embedding.Dimensions,
		Offline:    aiConfig.Embedding.Offline,
	}
	service.Searcher = search.NewSearcher(st, embedCfg, optimizer, exporter)
	service.Engine = search.NewEngine(service.Searcher, llmService, aiConfig.LLM.Model, exporter)

	return service
}

// RegisterRoutes mounts the API under /api/v1.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")

	g.POST("/tools/semantic_search", s.SemanticSearch)
	g.POST("/tools/ask", s.Ask)
	g.POST("/tools/adhoc_dataset", s.UploadAdHocDataset)
	g.DELETE("/tools/adhoc_dataset/:id", s.DeleteAdHocDataset)

	g.GET("/parts/:uid", s.GetPart)
	g.POST("/parts/search", s.SearchParts)

	g.GET("/stats", s.GetStats)
}
