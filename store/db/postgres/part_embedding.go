package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/ailurusbio/synvectordb/store"
)

func (d *DB) UpsertPartEmbedding(ctx context.Context, embedding *store.PartEmbedding) (*store.PartEmbedding, error) {
	if embedding.CreatedTs == 0 {
		embedding.CreatedTs = time.Now().Unix()
	}
	stmt := `
		INSERT INTO part_embedding (part_uid, model, embedding, created_ts)
		VALUES (` + placeholders(4) + `)
		ON CONFLICT (part_uid, model)
		DO UPDATE SET embedding = EXCLUDED.embedding
		RETURNING id
	`
	vector := pgvector.NewVector(embedding.Embedding)
	if err := d.db.QueryRowContext(ctx, stmt,
		embedding.PartUID,
		embedding.Model,
		vector,
		embedding.CreatedTs,
	).Scan(&embedding.ID); err != nil {
		return nil, errors.Wrap(err, "failed to upsert part embedding")
	}
	return embedding, nil
}

func (d *DB) ListPartEmbeddings(ctx context.Context, find *store.FindPartEmbedding) ([]*store.PartEmbedding, error) {
	where, args := []string{"TRUE"}, []any{}
	if find.PartUID != nil {
		where, args = append(where, "part_uid = "+placeholder(len(args)+1)), append(args, *find.PartUID)
	}
	if find.Model != nil {
		where, args = append(where, "model = "+placeholder(len(args)+1)), append(args, *find.Model)
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
		var vector pgvector.Vector
		if err := rows.Scan(
			&embedding.ID,
			&embedding.PartUID,
			&embedding.Model,
			&vector,
			&embedding.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan part embedding")
		}
		embedding.Embedding = vector.Slice()
		list = append(list, &embedding)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// SearchPartEmbeddings runs nearest-neighbor search with pgvector's cosine
// distance operator. The predicate tree is rendered to parameterized SQL.
func (d *DB) SearchPartEmbeddings(ctx context.Context, opts *store.PartVectorSearch) ([]*store.PartWithDistance, error) {
	vector := pgvector.NewVector(opts.Vector)
	args := []any{vector}

	predSQL, args, err := renderPredicate(opts.Predicate, args)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + qualify("p", partFields) + `, e.embedding <=> $1 AS distance
		FROM part_embedding e
		JOIN part p ON p.uid = e.part_uid
		WHERE ` + predSQL + `
		ORDER BY distance ASC, p.uid ASC
		LIMIT ` + placeholder(len(args)+1)
	args = append(args, opts.Limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search part embeddings")
	}
	defer rows.Close()

	results := []*store.PartWithDistance{}
	for rows.Next() {
		var part store.Part
		var distance float64
		if err := rows.Scan(
			&part.ID,
			&part.UID,
			&part.Name,
			&part.Label,
			&part.Type,
			&part.TypeLevel1,
			&part.TypeLevel2,
			&part.TypeLevel3,
			&part.SourceCollection,
			&part.SourceName,
			&part.Description,
			&part.Sequence,
			&part.Organism,
			&part.ExpressionSystem,
			&part.CreatedTs,
			&part.UpdatedTs,
			&distance,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan part search row")
		}
		results = append(results, &store.PartWithDistance{Part: &part, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func qualify(alias, fields string) string {
	parts := strings.Split(fields, ",")
	for i, f := range parts {
		parts[i] = alias + "." + strings.TrimSpace(f)
	}
	return strings.Join(parts, ", ")
}

// predicateFields is the whitelist of part columns a predicate may reference.
var predicateFields = map[string]bool{
	"name":              true,
	"type":              true,
	"type_level_1":      true,
	"type_level_2":      true,
	"type_level_3":      true,
	"source_collection": true,
	"source_name":       true,
}

// renderPredicate renders a predicate tree to a parameterized SQL fragment.
// A nil predicate renders to TRUE (unrestricted).
func renderPredicate(pred store.Predicate, args []any) (string, []any, error) {
	if pred == nil {
		return "TRUE", args, nil
	}
	switch node := pred.(type) {
	case store.Cond:
		return renderCond(node, args)
	case *store.Cond:
		return renderCond(*node, args)
	case store.And:
		return renderJunction(node.Preds, " AND ", "TRUE", args)
	case *store.And:
		return renderJunction(node.Preds, " AND ", "TRUE", args)
	case store.Or:
		return renderJunction(node.Preds, " OR ", "FALSE", args)
	case *store.Or:
		return renderJunction(node.Preds, " OR ", "FALSE", args)
	case store.Not:
		inner, args, err := renderPredicate(node.Pred, args)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + inner + ")", args, nil
	case *store.Not:
		return renderPredicate(store.Not{Pred: node.Pred}, args)
	default:
		return "", nil, errors.Errorf("unsupported predicate node: %T", pred)
	}
}

func renderJunction(preds []store.Predicate, sep, empty string, args []any) (string, []any, error) {
	if len(preds) == 0 {
		return empty, args, nil
	}
	fragments := make([]string, 0, len(preds))
	for _, child := range preds {
		fragment, newArgs, err := renderPredicate(child, args)
		if err != nil {
			return "", nil, err
		}
		fragments = append(fragments, fragment)
		args = newArgs
	}
	return "(" + strings.Join(fragments, sep) + ")", args, nil
}

func renderCond(c store.Cond, args []any) (string, []any, error) {
	if !predicateFields[c.Field] {
		return "", nil, errors.Errorf("predicate references unknown field: %s", c.Field)
	}
	column := "p." + c.Field

	switch c.Op {
	case store.OpEq:
		args = append(args, c.Value)
		return column + " = " + placeholder(len(args)), args, nil
	case store.OpNe:
		args = append(args, c.Value)
		return column + " != " + placeholder(len(args)), args, nil
	case store.OpLike:
		args = append(args, "%"+c.Value+"%")
		return column + " ILIKE " + placeholder(len(args)), args, nil
	case store.OpIn, store.OpNotIn:
		if len(c.Values) == 0 {
			// Empty IN matches nothing, empty NOT IN matches everything.
			if c.Op == store.OpIn {
				return "FALSE", args, nil
			}
			return "TRUE", args, nil
		}
		slots := make([]string, 0, len(c.Values))
		for _, v := range c.Values {
			args = append(args, v)
			slots = append(slots, placeholder(len(args)))
		}
		op := "IN"
		if c.Op == store.OpNotIn {
			op = "NOT IN"
		}
		return column + " " + op + " (" + strings.Join(slots, ", ") + ")", args, nil
	default:
		return "", nil, errors.Errorf("unsupported predicate operator: %s", c.Op)
	}
}
