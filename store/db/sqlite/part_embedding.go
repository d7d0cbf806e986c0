package sqlite

import (
	"context"
	"encoding/binary"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ailurusbio/synvectordb/store"
)

// Vectors are stored as little-endian float32 BLOBs. Similarity search is
// computed in the application layer: the candidate set is streamed from
// sqlite, filtered with the predicate evaluator, and ranked by cosine
// distance in Go. This keeps sqlite deployments free of native extensions.

func float32ArrayToBLOB(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf
}

func blobToFloat32Array(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, errors.Errorf("invalid BLOB length: %d", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}

// cosineDistance returns 1 - cosine similarity; lower is more similar.
func cosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Errorf("vector dimensions must match: %d != %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1, nil
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), nil
}

func (d *DB) UpsertPartEmbedding(ctx context.Context, embedding *store.PartEmbedding) (*store.PartEmbedding, error) {
	if embedding.CreatedTs == 0 {
		embedding.CreatedTs = time.Now().Unix()
	}
	stmt := `INSERT INTO part_embedding (part_uid, model, embedding, created_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (part_uid, model) DO UPDATE SET
			embedding = excluded.embedding`
	if _, err := d.db.ExecContext(ctx, stmt,
		embedding.PartUID,
		embedding.Model,
		float32ArrayToBLOB(embedding.Embedding),
		embedding.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert part embedding")
	}
	return embedding, nil
}

func (d *DB) ListPartEmbeddings(ctx context.Context, find *store.FindPartEmbedding) ([]*store.PartEmbedding, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.PartUID != nil {
		where, args = append(where, "part_uid = ?"), append(args, *find.PartUID)
	}
	if find.Model != nil {
		where, args = append(where, "model = ?"), append(args, *find.Model)
	}

	query := `SELECT id, part_uid, model, embedding, created_ts FROM part_embedding
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY part_uid`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list part embeddings")
	}
	defer rows.Close()

	list := []*store.PartEmbedding{}
	for rows.Next() {
		var embedding store.PartEmbedding
		var blob []byte
		if err := rows.Scan(
			&embedding.ID,
			&embedding.PartUID,
			&embedding.Model,
			&blob,
			&embedding.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan part embedding")
		}
		vec, err := blobToFloat32Array(blob)
		if err != nil {
			return nil, err
		}
		embedding.Embedding = vec
		list = append(list, &embedding)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) SearchPartEmbeddings(ctx context.Context, opts *store.PartVectorSearch) ([]*store.PartWithDistance, error) {
	query := `SELECT e.embedding, ` + qualifiedPartFields("p") + `
		FROM part_embedding e
		JOIN part p ON p.uid = e.part_uid`
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan part embeddings for search")
	}
	defer rows.Close()

	results := []*store.PartWithDistance{}
	for rows.Next() {
		var blob []byte
		dest := []any{&blob}
		var part store.Part
		dest = append(dest,
			&part.ID, &part.UID, &part.Name, &part.Label, &part.Type,
			&part.TypeLevel1, &part.TypeLevel2, &part.TypeLevel3,
			&part.SourceCollection, &part.SourceName, &part.Description,
			&part.Sequence, &part.Organism, &part.ExpressionSystem,
			&part.CreatedTs, &part.UpdatedTs,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "failed to scan part embedding row")
		}

		if !store.MatchPredicate(opts.Predicate, &part) {
			continue
		}

		vec, err := blobToFloat32Array(blob)
		if err != nil {
			return nil, err
		}
		distance, err := cosineDistance(opts.Vector, vec)
		if err != nil {
			return nil, err
		}
		results = append(results, &store.PartWithDistance{Part: &part, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Ascending distance; tie-break on uid for a deterministic order across
	// repeated searches of the same snapshot.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Part.UID < results[j].Part.UID
	})

	if opts.Limit < len(results) {
		results = results[:opts.Limit]
	}
	return results, nil
}

func qualifiedPartFields(alias string) string {
	fields := strings.Split(partFields, ",")
	for i, f := range fields {
		fields[i] = alias + "." + strings.TrimSpace(f)
	}
	return strings.Join(fields, ", ")
}
