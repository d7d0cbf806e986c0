package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ailurusbio/synvectordb/internal/profile"
	"github.com/ailurusbio/synvectordb/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	}
	driver, err := NewDB(p)
	require.NoError(t, err)
	db := driver.(*DB)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedPart(t *testing.T, db *DB, part *store.Part, embedding []float32) {
	t.Helper()
	ctx := context.Background()
	_, err := db.UpsertPart(ctx, part)
	require.NoError(t, err)
	if embedding != nil {
		_, err = db.UpsertPartEmbedding(ctx, &store.PartEmbedding{
			PartUID:   part.UID,
			Model:     "test-model",
			Embedding: embedding,
		})
		require.NoError(t, err)
	}
}

func TestSQLiteIsInitialized(t *testing.T) {
	db := newTestDB(t)
	ok, err := db.IsInitialized(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLitePartRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedPart(t, db, &store.Part{
		UID:              "BBa_J23100",
		Name:             "J23100 promoter",
		TypeLevel1:       "DNA Elements",
		TypeLevel2:       "Regulatory",
		SourceCollection: "igem",
		Sequence:         "TTGACGGCTAGCTCAGTCCTAGGTACAGTGCTAGC",
	}, nil)

	uid := "BBa_J23100"
	parts, err := db.ListParts(ctx, &store.FindPart{UID: &uid})
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "J23100 promoter", parts[0].Name)
	assert.NotZero(t, parts[0].CreatedTs)

	// Upsert with the same uid replaces, not duplicates.
	seedPart(t, db, &store.Part{UID: "BBa_J23100", Name: "renamed"}, nil)
	count, err := db.CountParts(ctx, &store.FindPart{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	parts, err = db.ListParts(ctx, &store.FindPart{UID: &uid})
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "renamed", parts[0].Name)
}

func TestSQLitePartNameFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedPart(t, db, &store.Part{UID: "p1", Name: "strong promoter"}, nil)
	seedPart(t, db, &store.Part{UID: "p2", Name: "terminator"}, nil)

	name := "promoter"
	parts, err := db.ListParts(ctx, &store.FindPart{Name: &name})
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "p1", parts[0].UID)
}

func TestSQLiteEmbeddingRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	vec := []float32{0.25, -0.5, 1.0}
	seedPart(t, db, &store.Part{UID: "p1", Name: "one"}, vec)

	uid := "p1"
	embeddings, err := db.ListPartEmbeddings(ctx, &store.FindPartEmbedding{PartUID: &uid})
	require.NoError(t, err)
	require.Len(t, embeddings, 1)
	assert.Equal(t, vec, embeddings[0].Embedding)
}

func TestSQLiteVectorSearchOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// p1 aligns exactly with the query, p2 is orthogonal, p3 is opposite.
	seedPart(t, db, &store.Part{UID: "p1", Name: "aligned"}, []float32{1, 0})
	seedPart(t, db, &store.Part{UID: "p2", Name: "orthogonal"}, []float32{0, 1})
	seedPart(t, db, &store.Part{UID: "p3", Name: "opposite"}, []float32{-1, 0})

	results, err := db.SearchPartEmbeddings(ctx, &store.PartVectorSearch{
		Vector: []float32{1, 0},
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "p1", results[0].Part.UID)
	assert.Equal(t, "p2", results[1].Part.UID)
	assert.Equal(t, "p3", results[2].Part.UID)
	assert.InDelta(t, 0, results[0].Distance, 0.001)
	assert.InDelta(t, 1, results[1].Distance, 0.001)
	assert.InDelta(t, 2, results[2].Distance, 0.001)
}

func TestSQLiteVectorSearchDeterminism(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Identical vectors force tie-breaking on uid.
	for _, uid := range []string{"b", "c", "a"} {
		seedPart(t, db, &store.Part{UID: uid, Name: uid}, []float32{1, 1})
	}

	opts := func() *store.PartVectorSearch {
		return &store.PartVectorSearch{Vector: []float32{1, 0}, Limit: 10}
	}

	first, err := db.SearchPartEmbeddings(ctx, opts())
	require.NoError(t, err)
	second, err := db.SearchPartEmbeddings(ctx, opts())
	require.NoError(t, err)

	require.Len(t, first, 3)
	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].Part.UID, second[i].Part.UID)
		assert.Equal(t, first[i].Distance, second[i].Distance)
	}
	assert.Equal(t, "a", first[0].Part.UID)
}

func TestSQLiteVectorSearchPredicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedPart(t, db, &store.Part{UID: "p1", Name: "igem part", SourceCollection: "igem"}, []float32{1, 0})
	seedPart(t, db, &store.Part{UID: "p2", Name: "addgene part", SourceCollection: "addgene"}, []float32{1, 0})

	results, err := db.SearchPartEmbeddings(ctx, &store.PartVectorSearch{
		Vector:    []float32{1, 0},
		Limit:     10,
		Predicate: store.Cond{Field: "source_collection", Op: store.OpEq, Value: "igem"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].Part.UID)
}

func TestSQLiteVectorSearchLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedPart(t, db, &store.Part{UID: "p1"}, []float32{1, 0})
	seedPart(t, db, &store.Part{UID: "p2"}, []float32{0.9, 0.1})
	seedPart(t, db, &store.Part{UID: "p3"}, []float32{0, 1})

	results, err := db.SearchPartEmbeddings(ctx, &store.PartVectorSearch{
		Vector: []float32{1, 0},
		Limit:  2,
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSQLiteGetPartStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedPart(t, db, &store.Part{UID: "p1", TypeLevel1: "DNA Elements", TypeLevel2: "Regulatory", SourceCollection: "igem"}, nil)
	seedPart(t, db, &store.Part{UID: "p2", TypeLevel1: "DNA Elements", TypeLevel2: "Regulatory", SourceCollection: "igem"}, nil)
	seedPart(t, db, &store.Part{UID: "p3", TypeLevel1: "Protein", TypeLevel2: "Reporter", SourceCollection: "addgene"}, nil)

	stats, err := db.GetPartStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalParts)
	require.NotEmpty(t, stats.Categories)
	assert.Equal(t, "DNA Elements", stats.Categories[0].Name)
	assert.Equal(t, int64(2), stats.Categories[0].Count)
	require.NotEmpty(t, stats.TypeCombinations)
	assert.Equal(t, "Regulatory", stats.TypeCombinations[0].TypeLevel2)
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, 3.14159}
	out, err := blobToFloat32Array(float32ArrayToBLOB(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, out)

	_, err = blobToFloat32Array([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCosineDistance(t *testing.T) {
	d, err := cosineDistance([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0, d, 0.0001)

	d, err = cosineDistance([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 0.0001)

	// Zero vector is maximally distant rather than undefined.
	d, err = cosineDistance([]float32{1, 0}, []float32{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 0.0001)

	_, err = cosineDistance([]float32{1}, []float32{1, 0})
	assert.Error(t, err)
}
