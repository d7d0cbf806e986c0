package search

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ailurusbio/synvectordb/ai/core/embedding"
)

// embedWorkers bounds concurrent embedding requests during dataset upload.
const embedWorkers = 4

// AdHocPart is one row of a user-uploaded dataset.
type AdHocPart struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Sequence    string `json:"sequence"`
	Source      string `json:"source"`
}

// AdHocDataset is a session-scoped set of parts with precomputed embeddings.
// It stands in for the main index during one conversation and is never
// written to the store or visible to other sessions.
type AdHocDataset struct {
	Parts      []AdHocPart
	Embeddings [][]float32
}

// Consistent reports whether every part has exactly one embedding. An
// inconsistent dataset is ignored and retrieval falls back to the main
// index.
func (d *AdHocDataset) Consistent() bool {
	return d != nil && len(d.Parts) > 0 && len(d.Parts) == len(d.Embeddings)
}

type scoredPart struct {
	part       AdHocPart
	similarity float64
}

// TopK returns the k parts most similar to the query vector by cosine
// similarity, sorted descending. Higher cosine similarity means closer, the
// opposite convention of index distance; callers must not mix the two.
func (d *AdHocDataset) TopK(query []float32, k int) []scoredPart {
	scored := make([]scoredPart, 0, len(d.Parts))
	for i, part := range d.Parts {
		scored = append(scored, scoredPart{
			part:       part,
			similarity: cosineSimilarity(query, d.Embeddings[i]),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].similarity > scored[j].similarity
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// embeddingText is the canonical text an ad-hoc part is embedded from.
func (p AdHocPart) embeddingText() string {
	return fmt.Sprintf("Name: %s\nType: %s\nDescription: %s", p.Name, p.Type, p.Description)
}

// LoadAdHocCSV reads an uploaded CSV into a dataset and embeds every row.
// Columns are positional: name, then optional type, description, sequence.
// The first row is treated as a header.
func LoadAdHocCSV(ctx context.Context, r io.Reader, provider embedding.Provider) (*AdHocDataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read csv")
	}
	if len(records) < 2 {
		return nil, errors.New("csv must contain a header row and at least one part")
	}

	parts := make([]AdHocPart, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) == 0 || record[0] == "" {
			continue
		}
		part := AdHocPart{Name: record[0], Source: "Uploaded CSV"}
		if len(record) > 1 {
			part.Type = record[1]
		}
		if len(record) > 2 {
			part.Description = record[2]
		}
		if len(record) > 3 {
			part.Sequence = record[3]
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return nil, errors.New("csv contains no usable parts")
	}

	embeddings := make([][]float32, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedWorkers)
	for i, part := range parts {
		g.Go(func() error {
			vector, err := provider.Embed(gctx, part.embeddingText())
			if err != nil {
				return errors.Wrapf(err, "failed to embed part %q", part.Name)
			}
			embeddings[i] = vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &AdHocDataset{Parts: parts, Embeddings: embeddings}, nil
}
