package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ailurusbio/synvectordb/store"
)

const partFields = `id, uid, name, label, type, type_level_1, type_level_2, type_level_3,
	source_collection, source_name, description, sequence, organism, expression_system,
	created_ts, updated_ts`

func (d *DB) UpsertPart(ctx context.Context, part *store.Part) (*store.Part, error) {
	now := time.Now().Unix()
	if part.CreatedTs == 0 {
		part.CreatedTs = now
	}
	part.UpdatedTs = now

	stmt := `
		INSERT INTO part (
			uid, name, label, type, type_level_1, type_level_2, type_level_3,
			source_collection, source_name, description, sequence, organism,
			expression_system, created_ts, updated_ts
		)
		VALUES (` + placeholders(15) + `)
		ON CONFLICT (uid) DO UPDATE SET
			name = EXCLUDED.name,
			label = EXCLUDED.label,
			type = EXCLUDED.type,
			type_level_1 = EXCLUDED.type_level_1,
			type_level_2 = EXCLUDED.type_level_2,
			type_level_3 = EXCLUDED.type_level_3,
			source_collection = EXCLUDED.source_collection,
			source_name = EXCLUDED.source_name,
			description = EXCLUDED.description,
			sequence = EXCLUDED.sequence,
			organism = EXCLUDED.organism,
			expression_system = EXCLUDED.expression_system,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt,
		part.UID,
		part.Name,
		part.Label,
		part.Type,
		part.TypeLevel1,
		part.TypeLevel2,
		part.TypeLevel3,
		part.SourceCollection,
		part.SourceName,
		part.Description,
		part.Sequence,
		part.Organism,
		part.ExpressionSystem,
		part.CreatedTs,
		part.UpdatedTs,
	).Scan(&part.ID); err != nil {
		return nil, errors.Wrap(err, "failed to upsert part")
	}
	return part, nil
}

func partWhere(find *store.FindPart) ([]string, []any) {
	where, args := []string{"TRUE"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.Name != nil {
		where, args = append(where, "name ILIKE "+placeholder(len(args)+1)), append(args, "%"+*find.Name+"%")
	}
	if find.Type != nil {
		where, args = append(where, "type = "+placeholder(len(args)+1)), append(args, *find.Type)
	}
	if find.TypeLevel1 != nil {
		where, args = append(where, "type_level_1 = "+placeholder(len(args)+1)), append(args, *find.TypeLevel1)
	}
	if find.TypeLevel2 != nil {
		where, args = append(where, "type_level_2 = "+placeholder(len(args)+1)), append(args, *find.TypeLevel2)
	}
	if find.SourceCollection != nil {
		where, args = append(where, "source_collection = "+placeholder(len(args)+1)), append(args, *find.SourceCollection)
	}

	return where, args
}

func (d *DB) ListParts(ctx context.Context, find *store.FindPart) ([]*store.Part, error) {
	where, args := partWhere(find)

	query := "SELECT " + partFields + " FROM part WHERE " + strings.Join(where, " AND ") + " ORDER BY uid"
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET " + placeholder(len(args)+1)
			args = append(args, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list parts")
	}
	defer rows.Close()

	list := []*store.Part{}
	for rows.Next() {
		var part store.Part
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
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan part")
		}
		list = append(list, &part)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) CountParts(ctx context.Context, find *store.FindPart) (int64, error) {
	where, args := partWhere(find)

	var count int64
	query := "SELECT COUNT(*) FROM part WHERE " + strings.Join(where, " AND ")
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count parts")
	}
	return count, nil
}
