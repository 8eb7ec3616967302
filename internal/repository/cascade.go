package repository

import (
	"context"
	"log/slog"

	"chat-gateway/internal/result"

	"github.com/google/uuid"
)

// entityService implements get/save/delete for one entity type. Saves insert
// the entities that are not yet persisted and then hand every owned child to
// the child service in a single batch.
type entityService[T any] struct {
	name  string
	store Store[T]
	id    func(*T) uuid.UUID

	childName string
	children  func(ctx context.Context, parents []*T) result.Result[bool]
}

func (s *entityService[T]) Get(ctx context.Context, id uuid.UUID) result.Result[*T] {
	entity, err := s.store.Get(ctx, id)
	if err != nil {
		slog.Error("error getting entity", "entity", s.name, "id", id, "operation", "Get", "error", err)
		return result.Err[*T](result.Wrap(result.Persistence, err, "failed to get %s %v", s.name, id))
	}
	return result.Ok(entity)
}

func (s *entityService[T]) List(ctx context.Context, limit, offset int) result.Result[[]T] {
	entities, err := s.store.List(ctx, limit, offset)
	if err != nil {
		slog.Error("error listing entities", "entity", s.name, "operation", "List", "error", err)
		return result.Err[[]T](result.Wrap(result.Persistence, err, "failed to list %s", s.name))
	}
	return result.Ok(entities)
}

func (s *entityService[T]) Save(ctx context.Context, entity *T) result.Result[bool] {
	if entity == nil {
		return result.Err[bool](result.NewError(result.Validation, "%s is required", s.name))
	}
	id := s.id(entity)

	found, err := s.store.Exists(ctx, []uuid.UUID{id})
	if err != nil {
		slog.Error("error checking entity existence", "entity", s.name, "id", id, "operation", "Save", "error", err)
		return result.Err[bool](result.Wrap(result.Persistence, err, "failed to save %s %v", s.name, id))
	}

	if found[id] {
		slog.Debug("entity already persisted, skipping insert", "entity", s.name, "id", id)
	} else {
		rows, err := s.store.Save(ctx, entity)
		if err != nil {
			slog.Error("error saving entity", "entity", s.name, "id", id, "operation", "Save", "error", err)
			return result.Err[bool](result.Wrap(result.Persistence, err, "failed to save %s %v", s.name, id))
		}
		if rows == 0 {
			slog.Error("no rows affected saving entity", "entity", s.name, "id", id, "operation", "Save")
			return result.Err[bool](result.NewError(result.Persistence, "failed to save %s %v", s.name, id))
		}
	}

	return s.cascade(ctx, []*T{entity}, id.String())
}

func (s *entityService[T]) SaveMultiple(ctx context.Context, entities []*T) result.Result[bool] {
	if len(entities) == 0 {
		return result.Ok(true)
	}

	ids := make([]uuid.UUID, 0, len(entities))
	for _, entity := range entities {
		ids = append(ids, s.id(entity))
	}

	found, err := s.store.Exists(ctx, ids)
	if err != nil {
		slog.Error("error checking entity existence", "entity", s.name, "count", len(ids), "operation", "SaveMultiple", "error", err)
		return result.Err[bool](result.Wrap(result.Persistence, err, "failed to save %d %s", len(ids), s.name))
	}

	fresh := make([]*T, 0, len(entities))
	for i, entity := range entities {
		if !found[ids[i]] {
			fresh = append(fresh, entity)
		}
	}

	if len(fresh) > 0 {
		rows, err := s.store.SaveMultiple(ctx, fresh)
		if err != nil {
			slog.Error("error saving entities", "entity", s.name, "count", len(fresh), "operation", "SaveMultiple", "error", err)
			return result.Err[bool](result.Wrap(result.Persistence, err, "failed to save %d %s", len(fresh), s.name))
		}
		if rows == 0 {
			slog.Error("no rows affected saving entities", "entity", s.name, "count", len(fresh), "operation", "SaveMultiple")
			return result.Err[bool](result.NewError(result.Persistence, "failed to save %d %s", len(fresh), s.name))
		}
	}

	parent := ids[0].String()
	if len(ids) > 1 {
		parent = "batch"
	}
	return s.cascade(ctx, entities, parent)
}

func (s *entityService[T]) Delete(ctx context.Context, id uuid.UUID) result.Result[bool] {
	rows, err := s.store.Delete(ctx, id)
	if err != nil {
		slog.Error("error deleting entity", "entity", s.name, "id", id, "operation", "Delete", "error", err)
		return result.Err[bool](result.Wrap(result.Persistence, err, "failed to delete %s %v", s.name, id))
	}
	if rows == 0 {
		return result.Err[bool](result.NewError(result.NotFound, "%s %v not found", s.name, id))
	}
	return result.Ok(true)
}

func (s *entityService[T]) cascade(ctx context.Context, parents []*T, parent string) result.Result[bool] {
	if s.children == nil {
		return result.Ok(true)
	}

	res := s.children(ctx, parents)
	if res.HasErrors() {
		slog.Error("error saving children", "entity", s.name, "id", parent, "child", s.childName, "errors", res.Messages())
		return result.Err[bool](result.Concat(
			[]result.ErrorDetail{result.NewError(result.Persistence, "failed to save %s for %s %s", s.childName, s.name, parent)},
			res.Errors(),
		)...)
	}
	return result.Ok(true)
}
