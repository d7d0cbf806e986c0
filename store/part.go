package store

import (
	"context"
	"strings"
)

// Part represents a catalogued biological sequence record.
// Parts are created and updated by the external ingestion pipeline; the
// service only ever reads them.
type Part struct {
	ID  int64
	UID string

	Name  string
	Label string

	// Classification. Older collections carry only the flat Type field;
	// reclassified collections use the three-level hierarchy.
	Type       string
	TypeLevel1 string
	TypeLevel2 string
	TypeLevel3 string

	// Provenance
	SourceCollection string
	SourceName       string

	Description string
	Sequence    string // nucleotide/protein string, may be empty

	// Loader metadata used for embedding text construction.
	Organism         string
	ExpressionSystem string

	CreatedTs int64
	UpdatedTs int64
}

// SequenceLength returns the sequence length in bases. Derived on read,
// never persisted.
func (p *Part) SequenceLength() int {
	return len(p.Sequence)
}

// GCContent returns the GC percentage of the sequence, or 0 for an empty
// sequence. Derived on read, never persisted.
func (p *Part) GCContent() float64 {
	if len(p.Sequence) == 0 {
		return 0
	}
	gc := 0
	for _, c := range strings.ToUpper(p.Sequence) {
		if c == 'G' || c == 'C' {
			gc++
		}
	}
	return float64(gc) * 100.0 / float64(len(p.Sequence))
}

// EmbeddingText returns the canonical text a part's embedding is computed
// from. Any change to these fields requires re-embedding (an external batch
// job).
func (p *Part) EmbeddingText() string {
	fields := []string{
		p.Name,
		p.Description,
		p.TypeLevel1,
		p.TypeLevel2,
		p.TypeLevel3,
		p.Organism,
		p.ExpressionSystem,
	}
	nonEmpty := fields[:0]
	for _, f := range fields {
		if f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// FindPart is the find condition for parts.
type FindPart struct {
	ID               *int64
	UID              *string
	Name             *string // substring match
	Type             *string
	TypeLevel1       *string
	TypeLevel2       *string
	SourceCollection *string

	Limit  *int
	Offset *int
}

// UpsertPart creates a part or replaces an existing one with the same UID.
// Used by the catalog loader and by tests; the query path never writes.
func (s *Store) UpsertPart(ctx context.Context, part *Part) (*Part, error) {
	return s.driver.UpsertPart(ctx, part)
}

func (s *Store) GetPart(ctx context.Context, find *FindPart) (*Part, error) {
	list, err := s.driver.ListParts(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListParts(ctx context.Context, find *FindPart) ([]*Part, error) {
	return s.driver.ListParts(ctx, find)
}

func (s *Store) CountParts(ctx context.Context, find *FindPart) (int64, error) {
	return s.driver.CountParts(ctx, find)
}
