package search

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ailurusbio/synvectordb/ai/core/embedding"
	"github.com/ailurusbio/synvectordb/ai/metrics"
	"github.com/ailurusbio/synvectordb/store"
)

const defaultTopK = 5

// Searcher composes query optimization, filter compilation, and vector
// search into one operation.
type Searcher struct {
	store     *store.Store
	embedCfg  embedding.Config
	registry  *embedding.Registry[embedding.Provider]
	optimizer *Optimizer
	metrics   *metrics.PrometheusExporter
}

// NewSearcher creates a Searcher. The embedding provider is loaded lazily on
// first use; optimizer and exporter may be nil.
func NewSearcher(st *store.Store, embedCfg embedding.Config, optimizer *Optimizer, exporter *metrics.PrometheusExporter) *Searcher {
	return &Searcher{
		store:     st,
		embedCfg:  embedCfg,
		registry:  embedding.NewRegistry[embedding.Provider](),
		optimizer: optimizer,
		metrics:   exporter,
	}
}

// Provider returns the process-wide embedding provider, initializing it on
// first call. Concurrent first calls collapse into one load.
func (s *Searcher) Provider(ctx context.Context) (embedding.Provider, error) {
	key := "embedding/" + s.embedCfg.Model
	if s.embedCfg.Offline {
		key = "embedding/local"
	}
	return s.registry.Get(ctx, key, func(_ context.Context) (embedding.Provider, error) {
		cfg := s.embedCfg
		return embedding.NewProvider(&cfg)
	})
}

// Search runs one semantic search. Optimization failures degrade to the
// original query; store failures are returned as errors.
func (s *Searcher) Search(ctx context.Context, req *QueryRequest) (*Response, error) {
	started := time.Now()

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	resp := &Response{
		Query:    req.Query,
		Optimize: req.Optimize,
		TopK:     topK,
		Filters: RequestFilters{
			Types:             req.Types,
			SourceCollections: req.SourceCollections,
		},
		Results: []Result{},
	}

	query := req.Query
	filters := Filters{
		Types:             req.Types,
		SourceCollections: req.SourceCollections,
	}

	if req.Optimize && s.optimizer != nil {
		opt := s.optimizer.Optimize(ctx, req.Query)
		resp.Optimization = opt
		// OptimizedQuery falls back to the original on failure, so this
		// substitution is always safe.
		query = opt.OptimizedQuery
		// Only optimizer exclusions are merged. Inferred inclusion filters
		// would over-constrain recall; similarity ranking handles inclusion.
		filters.ExcludeTypes = opt.ExcludeTypes
		filters.ExcludeSources = opt.ExcludeSources
	}

	provider, err := s.Provider(ctx)
	if err != nil {
		s.observeSearch(req, "error", started, 0)
		return nil, errors.Wrap(err, "embedding provider unavailable")
	}

	vector, err := provider.Embed(ctx, query)
	if err != nil {
		s.observeSearch(req, "error", started, 0)
		return nil, errors.Wrap(err, "failed to embed query")
	}

	matches, err := s.store.SearchPartEmbeddings(ctx, &store.PartVectorSearch{
		Vector:    vector,
		Limit:     topK,
		Predicate: filters.Compile(),
	})
	if err != nil {
		s.observeSearch(req, "error", started, 0)
		return nil, errors.Wrap(err, "vector search failed")
	}

	for _, match := range matches {
		resp.Results = append(resp.Results, toResult(match))
	}

	s.observeSearch(req, "ok", started, len(resp.Results))
	return resp, nil
}

// toResult maps a store row to a search result, passing the raw distance
// through untouched.
func toResult(match *store.PartWithDistance) Result {
	return Result{
		UID:              match.Part.UID,
		Name:             match.Part.Name,
		Type:             partType(match.Part),
		Description:      match.Part.Description,
		SourceCollection: match.Part.SourceCollection,
		SourceName:       match.Part.SourceName,
		Similarity:       match.Distance,
	}
}

// partType prefers the legacy flat type and falls back to the hierarchy for
// reclassified collections.
func partType(p *store.Part) string {
	if p.Type != "" {
		return p.Type
	}
	if p.TypeLevel2 != "" {
		return p.TypeLevel2
	}
	return p.TypeLevel1
}

func (s *Searcher) observeSearch(req *QueryRequest, status string, started time.Time, results int) {
	if s.metrics == nil {
		return
	}
	source := "catalog"
	if len(req.SourceCollections) == 1 {
		source = CanonicalSource(req.SourceCollections[0])
	} else if len(req.SourceCollections) > 1 {
		source = "multi"
	}
	s.metrics.ObserveSearch(source, req.Optimize, status, time.Since(started), results)
}
