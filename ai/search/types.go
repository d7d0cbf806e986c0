// Package search implements the retrieval and question answering engine:
// query optimization, filter compilation, vector search orchestration, and
// grounded conversational answers over the parts catalog.
package search

// QueryRequest is one semantic search call. Ephemeral, never persisted.
type QueryRequest struct {
	Query             string   `json:"query"`
	TopK              int      `json:"top_k"`
	Optimize          bool     `json:"optimize"`
	Types             []string `json:"types,omitempty"`
	SourceCollections []string `json:"source_collections,omitempty"`
}

// Result is one ranked match. Similarity is the raw nearest-neighbor
// distance: lower is more similar. It is never inverted or renormalized.
type Result struct {
	UID              string  `json:"uid,omitempty"`
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	Description      string  `json:"description"`
	SourceCollection string  `json:"source_collection"`
	SourceName       string  `json:"source_name"`
	Similarity       float64 `json:"similarity"`

	// SampleSequence is a representative sequence for the part type, fixed
	// reference data for display. It never affects ranking or grounding.
	SampleSequence string `json:"sample_sequence,omitempty"`
}

// RequestFilters echoes the caller's filters in the search response.
type RequestFilters struct {
	Types             []string `json:"types"`
	SourceCollections []string `json:"source_collections"`
}

// Response is the full semantic search response.
type Response struct {
	Query        string              `json:"query"`
	Optimize     bool                `json:"optimize"`
	TopK         int                 `json:"top_k"`
	Filters      RequestFilters      `json:"filters"`
	Results      []Result            `json:"results"`
	Optimization *OptimizationResult `json:"optimization,omitempty"`
}

// Optimization statuses.
const (
	OptimizeStatusSuccess = "success"
	// OptimizeStatusPartial means the structured decode failed but the
	// optimized query was salvaged from the raw response text.
	OptimizeStatusPartial = "partial_success"
	OptimizeStatusError   = "error"
)

// OptimizationResult is the outcome of one query optimization attempt.
// OptimizedQuery is never empty: on any failure it carries the original
// query verbatim.
type OptimizationResult struct {
	Status         string   `json:"status"`
	OriginalQuery  string   `json:"original_query"`
	OptimizedQuery string   `json:"optimized_query"`
	Explanation    string   `json:"explanation,omitempty"`
	KeyTerms       []string `json:"key_terms,omitempty"`
	Organism       string   `json:"organism,omitempty"`
	PartType       string   `json:"part_type,omitempty"`
	IncludeTypes   []string `json:"include_types,omitempty"`
	ExcludeTypes   []string `json:"exclude_types,omitempty"`
	IncludeSources []string `json:"include_sources,omitempty"`
	ExcludeSources []string `json:"exclude_sources,omitempty"`
}

// ChatMessage is one conversation turn. Only Role and Content are forwarded
// to the language model; Sources and Timestamp are display data.
type ChatMessage struct {
	Role      string   `json:"role"` // user, assistant
	Content   string   `json:"content"`
	Sources   []Result `json:"sources,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// StreamHandler receives incremental answer fragments during a streaming
// question answering call.
type StreamHandler func(chunk string)

// AskRequest is one question answering call.
type AskRequest struct {
	Question    string        `json:"question"`
	TopK        int           `json:"top_k"`
	ChatHistory []ChatMessage `json:"chat_history,omitempty"`

	// AdHoc replaces the main index for this call when set and consistent.
	AdHoc *AdHocDataset `json:"-"`

	// StreamHandler enables streaming delivery when non-nil.
	StreamHandler StreamHandler `json:"-"`
}

// AskResponse is the full question answering response. ExecutionTime is
// seconds of wall-clock time and is computed even when the model call fails.
type AskResponse struct {
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	Sources       []Result `json:"sources"`
	ExecutionTime float64  `json:"execution_time"`
}
