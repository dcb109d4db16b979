package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

func (q *QueryBuilder[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.timeout > 0 {
		return context.WithTimeout(ctx, q.timeout)
	}
	return ctx, func() {}
}

func (q *QueryBuilder[T]) run(ctx context.Context, fn func() error) error {
	if !q.retry {
		return fn()
	}
	return WithRetry(ctx, fn)
}

// All executes the query and returns all matching records
func (q *QueryBuilder[T]) All(ctx context.Context) ([]T, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	data := []T{}
	if q.hasEmptyIn() {
		return data, nil
	}

	err := q.run(ctx, func() error {
		data = data[:0] // Reset on retry
		return q.applySelect(q.db.NewSelect().Model(&data), true).Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute select query: %w (took %v)", err, time.Since(start))
	}

	return data, nil
}

// First returns the first matching record, or nil when nothing matches
func (q *QueryBuilder[T]) First(ctx context.Context) (*T, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	if q.hasEmptyIn() {
		return nil, nil
	}

	var data T
	err := q.run(ctx, func() error {
		return q.applySelect(q.db.NewSelect().Model(&data), true).Limit(1).Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to execute first query: %w (took %v)", err, time.Since(start))
	}

	return &data, nil
}

// Count returns the number of matching records, ignoring ordering and paging
func (q *QueryBuilder[T]) Count(ctx context.Context) (int, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	if q.hasEmptyIn() {
		return 0, nil
	}

	var count int
	err := q.run(ctx, func() error {
		var err error
		count, err = q.applySelect(q.db.NewSelect().Model((*T)(nil)), false).Count(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to execute count query: %w (took %v)", err, time.Since(start))
	}

	return count, nil
}

// Exists checks if any records match the query
func (q *QueryBuilder[T]) Exists(ctx context.Context) (bool, error) {
	count, err := q.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert inserts data and fills in its generated primary key
func (q *QueryBuilder[T]) Insert(ctx context.Context, data *T) (*T, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	err := q.run(ctx, func() error {
		_, err := q.db.NewInsert().Model(data).Returning("*").Exec(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute insert query: %w (took %v)", err, time.Since(start))
	}

	return data, nil
}

// Update sets the given columns on every matching record and returns the affected count
func (q *QueryBuilder[T]) Update(ctx context.Context, values map[string]any) (int, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	if len(values) == 0 || q.hasEmptyIn() {
		return 0, nil
	}
	if len(q.wheres) == 0 {
		return 0, errors.New("refusing to update without conditions")
	}

	var affected int64
	err := q.run(ctx, func() error {
		query := q.db.NewUpdate().Model((*T)(nil))
		for column, value := range values {
			query = query.Set("? = ?", bun.Ident(column), value)
		}
		res, err := q.applyUpdate(query).Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to execute update query: %w (took %v)", err, time.Since(start))
	}

	return int(affected), nil
}

// Delete removes every matching record and returns the affected count
func (q *QueryBuilder[T]) Delete(ctx context.Context) (int, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	if q.hasEmptyIn() {
		return 0, nil
	}
	if len(q.wheres) == 0 {
		return 0, errors.New("refusing to delete without conditions")
	}

	var affected int64
	err := q.run(ctx, func() error {
		res, err := q.applyDelete(q.db.NewDelete().Model((*T)(nil))).Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to execute delete query: %w (took %v)", err, time.Since(start))
	}

	return int(affected), nil
}
