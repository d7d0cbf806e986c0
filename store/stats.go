package store

import "context"

// NameCount is a grouped aggregate row.
type NameCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// TypeCombination is a type_level_1/type_level_2 pair aggregate.
type TypeCombination struct {
	TypeLevel1 string `json:"type_level_1"`
	TypeLevel2 string `json:"type_level_2"`
	Count      int64  `json:"count"`
}

// PartStats are the aggregate counts served by the stats endpoint.
type PartStats struct {
	TotalParts       int64             `json:"total_parts"`
	Categories       []NameCount       `json:"categories"`
	SubTypes         []NameCount       `json:"sub_types"`
	Sources          []NameCount       `json:"sources"`
	TypeCombinations []TypeCombination `json:"type_combinations"`
}

func (s *Store) GetPartStats(ctx context.Context) (*PartStats, error) {
	return s.driver.GetPartStats(ctx)
}
