package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ailurusbio/synvectordb/store"
)

func (d *DB) GetPartStats(ctx context.Context) (*store.PartStats, error) {
	stats := &store.PartStats{}

	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM part").Scan(&stats.TotalParts); err != nil {
		return nil, errors.Wrap(err, "failed to count parts")
	}

	var err error
	if stats.Categories, err = d.groupCount(ctx, "type_level_1"); err != nil {
		return nil, err
	}
	if stats.SubTypes, err = d.groupCount(ctx, "type_level_2"); err != nil {
		return nil, err
	}
	if stats.Sources, err = d.groupCount(ctx, "source_collection"); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT type_level_1, type_level_2, COUNT(*) AS count
		FROM part
		WHERE type_level_1 != '' AND type_level_2 != ''
		GROUP BY type_level_1, type_level_2
		ORDER BY count DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query type combinations")
	}
	defer rows.Close()

	for rows.Next() {
		var combo store.TypeCombination
		if err := rows.Scan(&combo.TypeLevel1, &combo.TypeLevel2, &combo.Count); err != nil {
			return nil, errors.Wrap(err, "failed to scan type combination")
		}
		stats.TypeCombinations = append(stats.TypeCombinations, combo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// groupCount aggregates part counts grouped by a fixed column. The column
// name comes from a compile-time constant list, never from user input.
func (d *DB) groupCount(ctx context.Context, column string) ([]store.NameCount, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+column+`, COUNT(*) AS count
		FROM part
		WHERE `+column+` != ''
		GROUP BY `+column+`
		ORDER BY count DESC`)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to group parts by %s", column)
	}
	defer rows.Close()

	list := []store.NameCount{}
	for rows.Next() {
		var nc store.NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, errors.Wrap(err, "failed to scan group count")
		}
		list = append(list, nc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
