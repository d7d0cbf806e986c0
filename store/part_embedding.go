package store

import (
	"context"

	"github.com/pkg/errors"
)

// PartEmbedding represents the vector embedding of a part. Embeddings are
// written by the ingestion pipeline and immutable afterwards; a change to the
// part's embedded fields requires re-embedding by the external batch job.
type PartEmbedding struct {
	ID        int64
	PartUID   string
	Model     string
	Embedding []float32
	CreatedTs int64
}

// FindPartEmbedding is the find condition for part embeddings.
type FindPartEmbedding struct {
	PartUID *string
	Model   *string
}

// PartWithDistance is a vector search result. Distance is the raw
// nearest-neighbor distance from the index: lower is more similar. It is
// passed through to callers unchanged.
type PartWithDistance struct {
	Part     *Part
	Distance float64
}

// PartVectorSearch represents the options for part vector search.
type PartVectorSearch struct {
	Vector    []float32
	Limit     int
	Predicate Predicate // nil means unrestricted
}

// Validate validates the PartVectorSearch options.
func (o *PartVectorSearch) Validate() error {
	if len(o.Vector) == 0 {
		return errors.Errorf("vector cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 10
	}
	if o.Limit > 1000 {
		return errors.Errorf("limit too large (max 1000): %d", o.Limit)
	}
	return nil
}

func (s *Store) UpsertPartEmbedding(ctx context.Context, embedding *PartEmbedding) (*PartEmbedding, error) {
	return s.driver.UpsertPartEmbedding(ctx, embedding)
}

func (s *Store) ListPartEmbeddings(ctx context.Context, find *FindPartEmbedding) ([]*PartEmbedding, error) {
	return s.driver.ListPartEmbeddings(ctx, find)
}

// SearchPartEmbeddings performs nearest-neighbor search over stored part
// embeddings. Results are ordered by ascending distance; ties break on part
// UID so that repeated searches over a fixed snapshot return the same order.
func (s *Store) SearchPartEmbeddings(ctx context.Context, opts *PartVectorSearch) ([]*PartWithDistance, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.SearchPartEmbeddings(ctx, opts)
}
