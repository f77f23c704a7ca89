package repository

import (
	"context"

	"fable/internal/story"
)

// Store persists generated stories and regenerated catalog variants.
// Implementations decide the order GetAll returns stories in; the
// repository preserves it when merging.
type Store interface {
	Put(ctx context.Context, st *story.Story) error
	GetAll(ctx context.Context) ([]*story.Story, error)
	Delete(ctx context.Context, id string) error
}
