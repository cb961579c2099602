package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Repository is a generic CRUD repository bound to one open transaction.
// relation names the many-to-many collection hydrated on single-entity reads;
// list reads stay flat. sensitive columns are never used as lookup keys.
type Repository[T any] struct {
	tx        *gorm.DB
	relation  string
	sensitive map[string]bool
}

func NewRepository[T any](tx *gorm.DB, relation string, sensitive ...string) *Repository[T] {
	s := make(map[string]bool, len(sensitive))
	for _, col := range sensitive {
		s[col] = true
	}
	return &Repository[T]{tx: tx, relation: relation, sensitive: s}
}

// Add creates the entity after checking that no row already matches its
// populated scalar columns. The pre-check gives a friendly Conflict error;
// the unique index on the table is what actually closes the race.
func (r *Repository[T]) Add(ctx context.Context, entity *T) (*T, error) {
	filters, err := r.scalarValues(ctx, entity)
	if err != nil {
		return nil, err
	}

	var existing T
	err = r.tx.WithContext(ctx).Where(filters).First(&existing).Error
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := r.tx.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, translate(err)
	}
	return r.reload(ctx, entity)
}

// FindAll returns every entity of the type without hydrating relations.
func (r *Repository[T]) FindAll(ctx context.Context) ([]T, error) {
	var entities []T
	if err := r.tx.WithContext(ctx).Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// FindOne returns the entity matching all given column=value filters, with
// its relation collection hydrated. Sensitive columns are stripped from the
// filters before matching.
func (r *Repository[T]) FindOne(ctx context.Context, filters map[string]any) (*T, error) {
	lookup := make(map[string]any, len(filters))
	for col, val := range filters {
		if r.sensitive[col] {
			continue
		}
		lookup[col] = val
	}

	entity := new(T)
	q := r.tx.WithContext(ctx)
	if r.relation != "" {
		q = q.Preload(r.relation)
	}
	if err := q.Where(lookup).First(entity).Error; err != nil {
		return nil, translate(err)
	}
	return entity, nil
}

// UpdateOne merges the given fields into the entity. Omitted fields keep
// their prior values. A field name that is not a mutable column of the
// entity fails with ErrInvalidField before anything is written; the primary
// key and the creation timestamp are never mutable.
func (r *Repository[T]) UpdateOne(ctx context.Context, id uint, fields map[string]any) (*T, error) {
	columns, err := r.mutableColumns()
	if err != nil {
		return nil, err
	}
	for col := range fields {
		if !columns[col] {
			return nil, fmt.Errorf("%w: %s", ErrInvalidField, col)
		}
	}

	entity := new(T)
	if err := r.tx.WithContext(ctx).First(entity, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	if len(fields) > 0 {
		if err := r.tx.WithContext(ctx).Model(entity).Updates(fields).Error; err != nil {
			return nil, translate(err)
		}
	}
	return r.reload(ctx, entity)
}

// RemoveOne deletes the entity and returns its pre-delete snapshot with the
// relation collection hydrated.
func (r *Repository[T]) RemoveOne(ctx context.Context, id uint) (*T, error) {
	entity, err := r.FindOne(ctx, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if r.relation != "" {
		if err := r.tx.WithContext(ctx).Model(entity).Association(r.relation).Clear(); err != nil {
			return nil, err
		}
	}
	if err := r.tx.WithContext(ctx).Delete(entity).Error; err != nil {
		return nil, translate(err)
	}
	return entity, nil
}

// reload fetches the entity again with its relation hydrated, so callers
// never see a partially loaded collection.
func (r *Repository[T]) reload(ctx context.Context, entity *T) (*T, error) {
	sch, err := r.schema()
	if err != nil {
		return nil, err
	}
	id, zero := sch.PrioritizedPrimaryField.ValueOf(ctx, reflect.ValueOf(entity).Elem())
	if zero {
		return entity, nil
	}
	return r.FindOne(ctx, map[string]any{"id": id})
}

// scalarValues extracts the populated non-key scalar columns of the entity,
// excluding sensitive ones, for the Add equality pre-check.
func (r *Repository[T]) scalarValues(ctx context.Context, entity *T) (map[string]any, error) {
	sch, err := r.schema()
	if err != nil {
		return nil, err
	}
	values := make(map[string]any)
	rv := reflect.ValueOf(entity).Elem()
	for _, field := range sch.Fields {
		if field.PrimaryKey || field.DBName == "" || r.sensitive[field.DBName] {
			continue
		}
		val, zero := field.ValueOf(ctx, rv)
		if zero {
			continue
		}
		values[field.DBName] = val
	}
	return values, nil
}

// mutableColumns is the set of columns an update may name. Primary keys and
// auto-set creation timestamps are excluded.
func (r *Repository[T]) mutableColumns() (map[string]bool, error) {
	sch, err := r.schema()
	if err != nil {
		return nil, err
	}
	columns := make(map[string]bool, len(sch.FieldsByDBName))
	for name, field := range sch.FieldsByDBName {
		if field.PrimaryKey || field.AutoCreateTime > 0 {
			continue
		}
		columns[name] = true
	}
	return columns, nil
}

func (r *Repository[T]) schema() (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: r.tx}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, fmt.Errorf("parse model schema: %w", err)
	}
	return stmt.Schema, nil
}
