package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultListLimit = 100

// GormStore persists a single entity type. Only the base rows are written,
// owned children are left to the caller.
type GormStore[T any] struct {
	db     *gorm.DB
	scopes []func(*gorm.DB) *gorm.DB
}

// NewGormStore creates a store whose reads apply the given scopes, which is
// where preloads of owned collections go.
func NewGormStore[T any](db *gorm.DB, scopes ...func(*gorm.DB) *gorm.DB) *GormStore[T] {
	return &GormStore[T]{db: db, scopes: scopes}
}

// Get returns nil without an error if no entity has the given id.
func (s *GormStore[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	err := Conn(ctx, s.db).Scopes(s.scopes...).First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting %T %v: %w", entity, id, err)
	}
	return &entity, nil
}

func (s *GormStore[T]) Exists(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	found := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var existing []uuid.UUID
	if err := Conn(ctx, s.db).Model(new(T)).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return nil, fmt.Errorf("error checking existence of %T: %w", new(T), err)
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

func (s *GormStore[T]) Save(ctx context.Context, entity *T) (int64, error) {
	res := Conn(ctx, s.db).Omit(clause.Associations).Create(entity)
	if res.Error != nil {
		return 0, fmt.Errorf("error saving %T: %w", entity, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore[T]) SaveMultiple(ctx context.Context, entities []*T) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}
	res := Conn(ctx, s.db).Omit(clause.Associations).Create(&entities)
	if res.Error != nil {
		return 0, fmt.Errorf("error saving %d %T: %w", len(entities), entities[0], res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore[T]) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := Conn(ctx, s.db).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return 0, fmt.Errorf("error deleting %T %v: %w", new(T), id, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore[T]) List(ctx context.Context, limit, offset int) ([]T, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var entities []T
	err := Conn(ctx, s.db).
		Scopes(s.scopes...).
		Order("creation_time DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).
		Error
	if err != nil {
		return nil, fmt.Errorf("error listing %T: %w", entities, err)
	}
	return entities, nil
}

func PreloadConversations(db *gorm.DB) *gorm.DB {
	return db.Preload("Conversations", func(db *gorm.DB) *gorm.DB {
		return db.Order("creation_time ASC")
	})
}

func PreloadQuestions(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("turn_index ASC")
		}).
		Preload("Questions.Answer")
}

func PreloadAnswer(db *gorm.DB) *gorm.DB {
	return db.Preload("Answer")
}
