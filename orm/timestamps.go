package orm

import (
	"context"
	"time"
)

// Clock tells Create, CreateAll, Upsert and Update what time it is.
type Clock interface {
	Now() time.Time
}

type clockKey struct{}

// WithClock returns a context whose writes are stamped with c.Now()
// instead of time.Now(), e.g. a fixed clock in tests.
func WithClock(ctx context.Context, c Clock) context.Context {
	return context.WithValue(ctx, clockKey{}, c)
}

func now(ctx context.Context) time.Time {
	if c, ok := ctx.Value(clockKey{}).(Clock); ok {
		return c.Now()
	}
	return time.Now()
}

// TimestampFunc sets a created-at or updated-at field of *T.
// ormproxy generates one per timestamp column.
type TimestampFunc[T any] func(t *T, now time.Time)

// RegisterTimestamps registers the created-at columns and the setters that
// stamp timestamps on insert and update. Either setter may be nil.
// Created-at columns are never overwritten by Upsert.
func (q *Query[T]) RegisterTimestamps(createdCols []string, setCreatedAt, setUpdatedAt TimestampFunc[T]) {
	q.createdCols = createdCols
	q.setCreatedAt = setCreatedAt
	q.setUpdatedAt = setUpdatedAt
}

// stampCreate sets both timestamps of a new row to the same instant.
func (q *Query[T]) stampCreate(ctx context.Context, t *T) {
	ts := now(ctx)
	if q.setCreatedAt != nil {
		q.setCreatedAt(t, ts)
	}
	if q.setUpdatedAt != nil {
		q.setUpdatedAt(t, ts)
	}
}

func (q *Query[T]) stampUpdate(ctx context.Context, t *T) {
	if q.setUpdatedAt != nil {
		q.setUpdatedAt(t, now(ctx))
	}
}
