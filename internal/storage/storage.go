// Package storage defines the fact persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"neubott/internal/model"
)

var (
	// ErrNotFound is returned when a lookup yields no facts.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateContent is returned when a fact with identical content exists.
	ErrDuplicateContent = errors.New("duplicate content")
)

// Facts is the interface for all fact persistence operations.
//
// Every guild-scoped query returns only facts visible in that guild: global
// facts plus the ones added in the guild itself.
type Facts interface {
	CreateFact(ctx context.Context, f *model.Fact) error
	ListVisibleFacts(ctx context.Context, guildID string) ([]model.Fact, error)
	FindFactsByContent(ctx context.Context, guildID, content string) ([]model.Fact, error)
	SearchFacts(ctx context.Context, guildID, substring string) ([]model.Fact, error)
	LatestFact(ctx context.Context) (*model.Fact, error)
	DeleteFacts(ctx context.Context, ids []int64) (int64, error)
	CountFacts(ctx context.Context) (int64, error)

	Close() error
}
