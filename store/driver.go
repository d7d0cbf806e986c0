package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for database drivers.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)
	Migrate(ctx context.Context) error

	// Part model
	UpsertPart(ctx context.Context, part *Part) (*Part, error)
	ListParts(ctx context.Context, find *FindPart) ([]*Part, error)
	CountParts(ctx context.Context, find *FindPart) (int64, error)

	// Part embedding model
	UpsertPartEmbedding(ctx context.Context, embedding *PartEmbedding) (*PartEmbedding, error)
	ListPartEmbeddings(ctx context.Context, find *FindPartEmbedding) ([]*PartEmbedding, error)
	SearchPartEmbeddings(ctx context.Context, opts *PartVectorSearch) ([]*PartWithDistance, error)

	// Aggregates
	GetPartStats(ctx context.Context) (*PartStats, error)
}
