package repository

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence collaborator for one entity type. Get returns nil
// without an error when the entity does not exist.
type Store[T any] interface {
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	Exists(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
	Save(ctx context.Context, entity *T) (int64, error)
	SaveMultiple(ctx context.Context, entities []*T) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	List(ctx context.Context, limit, offset int) ([]T, error)
}
