package orm

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/mickamy/ormproxy/scope"
)

// HasManyConfig describes one has-many relationship instance: the owner's
// key, how to stamp it on new rows, and the behaviour mixed into its proxy.
type HasManyConfig[T any] struct {
	// Name identifies the association in diagnostics. Defaults to the
	// target table name.
	Name string

	// ForeignKey is the column on the target table referencing the owner.
	ForeignKey string

	// OwnerKey is the owner's primary key value.
	OwnerKey any

	// AssignOwner sets the foreign key field of a new row to OwnerKey.
	AssignOwner func(t *T)

	// Extensions are mixed into the proxy in order; later ones shadow
	// earlier ones.
	Extensions []Extension[T]

	// CollectionMethods are added to DefaultCollectionMethods.
	CollectionMethods CollectionMethods[T]

	// QueryMethods are added to the model's query methods.
	QueryMethods QueryMethods[T]

	// Validate runs before a row is inserted through the association.
	Validate func(t *T) error

	// BeforeDestroy runs for each row removed by Destroy or DestroyAll.
	// Delete and DeleteAll skip it.
	BeforeDestroy func(ctx context.Context, t *T) error

	// Equal compares rows for CollectionProxy.Equal. Defaults to
	// reflect.DeepEqual.
	Equal func(a, b T) bool
}

// Association holds the state of one has-many relationship: its scope and
// the rows loaded from it. The rows are cached until Reload or a bulk
// destroy/delete.
//
// An Association is not safe for concurrent use.
type Association[T any] struct {
	cfg    HasManyConfig[T]
	scope  *Query[T]
	loaded bool
	target []T

	collection CollectionMethods[T]
	queries    QueryMethods[T]
}

// NewHasMany returns an unloaded Association over the rows of base whose
// foreign key column equals cfg.OwnerKey.
func NewHasMany[T any](base *Query[T], cfg HasManyConfig[T]) *Association[T] {
	if cfg.Name == "" {
		cfg.Name = base.Table()
	}
	return &Association[T]{
		cfg:        cfg,
		scope:      base.Scopes(scope.Eq(cfg.ForeignKey, cfg.OwnerKey)),
		collection: resolveCollectionMethods(cfg.CollectionMethods),
		queries:    ResolveQueryMethods(cfg.QueryMethods),
	}
}

// Name returns the association name.
func (a *Association[T]) Name() string { return a.cfg.Name }

// String describes the association without loading it,
// e.g. "posts[user_id=1]".
func (a *Association[T]) String() string {
	return fmt.Sprintf("%s[%s=%v]", a.cfg.Name, a.cfg.ForeignKey, a.cfg.OwnerKey)
}

// Scope returns the unexecuted query for the associated rows.
func (a *Association[T]) Scope() *Query[T] { return a.scope }

// Loaded reports whether the target has been loaded since the last Reload.
func (a *Association[T]) Loaded() bool { return a.loaded }

// LoadTarget loads the associated rows unless already loaded and returns
// them. On error nothing is cached and Loaded stays false.
func (a *Association[T]) LoadTarget(ctx context.Context) ([]T, error) {
	if a.loaded {
		return a.target, nil
	}
	rows, err := a.scope.All(ctx)
	if err != nil {
		return nil, err
	}
	a.target = rows
	a.loaded = true
	return a.target, nil
}

// Target returns the loaded rows, loading them first if needed.
func (a *Association[T]) Target(ctx context.Context) ([]T, error) {
	return a.LoadTarget(ctx)
}

// Reload drops the cached rows; the next read queries the store again.
func (a *Association[T]) Reload() {
	a.loaded = false
	a.target = nil
}

// Concat assigns the owner to each record and inserts them. With a *DB
// scope and more than one record the inserts share a transaction.
// Records are appended to a loaded target only after all inserts succeed.
func (a *Association[T]) Concat(ctx context.Context, records ...*T) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		a.assign(r)
		if err := a.validate(r); err != nil {
			return err
		}
	}

	insert := func(q *Query[T]) error {
		for _, r := range records {
			if err := q.Create(ctx, r); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if db, ok := a.scope.db.(*DB); ok && len(records) > 1 {
		err = db.Transaction(ctx, func(tx *Tx) error {
			return insert(a.scope.withQuerier(tx))
		})
	} else {
		err = insert(a.scope)
	}
	if err != nil {
		return err
	}

	if a.loaded {
		for _, r := range records {
			a.target = append(a.target, *r)
		}
	}
	return nil
}

// Select returns the scope restricted to the given columns.
func (a *Association[T]) Select(columns ...string) *Query[T] {
	return a.scope.Select(strings.Join(columns, ", "))
}

// Find returns the associated row with the given primary key.
func (a *Association[T]) Find(ctx context.Context, id any) (T, error) {
	return a.scope.Where(a.scope.pk+" = ?", id).First(ctx)
}

// First loads the target and returns its first row.
func (a *Association[T]) First(ctx context.Context) (T, error) {
	rows, err := a.LoadTarget(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(rows) == 0 {
		var zero T
		return zero, ErrNotFound
	}
	return rows[0], nil
}

// Last loads the target and returns its last row.
func (a *Association[T]) Last(ctx context.Context) (T, error) {
	rows, err := a.LoadTarget(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(rows) == 0 {
		var zero T
		return zero, ErrNotFound
	}
	return rows[len(rows)-1], nil
}

// Build returns a new unsaved row belonging to the owner.
func (a *Association[T]) Build(init ...func(*T)) *T {
	v := new(T)
	for _, fn := range init {
		fn(v)
	}
	a.assign(v)
	return v
}

// Create builds a row and inserts it through Concat.
func (a *Association[T]) Create(ctx context.Context, init ...func(*T)) (*T, error) {
	v := a.Build(init...)
	if err := a.Concat(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// MustCreate is like Create but panics if the row cannot be created.
func (a *Association[T]) MustCreate(ctx context.Context, init ...func(*T)) *T {
	v, err := a.Create(ctx, init...)
	if err != nil {
		panic(fmt.Sprintf("orm: create %s: %v", a, err))
	}
	return v
}

// DestroyAll loads the target, runs BeforeDestroy for every row, deletes
// them and drops the cache.
func (a *Association[T]) DestroyAll(ctx context.Context) error {
	rows, err := a.LoadTarget(ctx)
	if err != nil {
		return err
	}
	if err := a.destroy(ctx, slices.Clone(rows)); err != nil {
		return err
	}
	a.Reload()
	return nil
}

// Destroy runs BeforeDestroy for each record and deletes them.
func (a *Association[T]) Destroy(ctx context.Context, records ...T) error {
	if err := a.destroy(ctx, records); err != nil {
		return err
	}
	a.forget(records)
	return nil
}

// Delete deletes the records without running BeforeDestroy.
func (a *Association[T]) Delete(ctx context.Context, records ...T) error {
	if err := a.deleteRows(ctx, records); err != nil {
		return err
	}
	a.forget(records)
	return nil
}

// DeleteAll deletes every associated row with a single statement, without
// loading them, and drops the cache.
func (a *Association[T]) DeleteAll(ctx context.Context) error {
	if err := a.scope.Delete(ctx); err != nil {
		return err
	}
	a.Reload()
	return nil
}

// Count always asks the store.
func (a *Association[T]) Count(ctx context.Context) (int64, error) {
	return a.scope.Count(ctx)
}

// Size returns the number of loaded rows, or the store count when the
// target is not loaded.
func (a *Association[T]) Size(ctx context.Context) (int, error) {
	if a.loaded {
		return len(a.target), nil
	}
	n, err := a.Count(ctx)
	return int(n), err
}

// Length loads the target and returns its length.
func (a *Association[T]) Length(ctx context.Context) (int, error) {
	rows, err := a.LoadTarget(ctx)
	return len(rows), err
}

// IsEmpty reports whether the association has no rows.
func (a *Association[T]) IsEmpty(ctx context.Context) (bool, error) {
	n, err := a.Size(ctx)
	return n == 0, err
}

// Any reports whether the association has at least one row.
func (a *Association[T]) Any(ctx context.Context) (bool, error) {
	n, err := a.Size(ctx)
	return n > 0, err
}

// Many reports whether the association has more than one row.
func (a *Association[T]) Many(ctx context.Context) (bool, error) {
	n, err := a.Size(ctx)
	return n > 1, err
}

func (a *Association[T]) assign(t *T) {
	if a.cfg.AssignOwner != nil {
		a.cfg.AssignOwner(t)
	}
}

func (a *Association[T]) validate(t *T) error {
	if a.cfg.Validate == nil {
		return nil
	}
	if err := a.cfg.Validate(t); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func (a *Association[T]) equal(x, y T) bool {
	if a.cfg.Equal != nil {
		return a.cfg.Equal(x, y)
	}
	return reflect.DeepEqual(x, y)
}

func (a *Association[T]) destroy(ctx context.Context, records []T) error {
	if a.cfg.BeforeDestroy != nil {
		for i := range records {
			if err := a.cfg.BeforeDestroy(ctx, &records[i]); err != nil {
				return err
			}
		}
	}
	return a.deleteRows(ctx, records)
}

// deleteRows issues one DELETE restricted to the owner and the records'
// primary keys.
func (a *Association[T]) deleteRows(ctx context.Context, records []T) error {
	if len(records) == 0 {
		return nil
	}
	pks, err := a.primaryKeys(records)
	if err != nil {
		return err
	}
	return a.scope.Scopes(scope.In(a.scope.pk, pks)).Delete(ctx)
}

func (a *Association[T]) primaryKeys(records []T) ([]any, error) {
	pks := make([]any, len(records))
	for i := range records {
		pk := a.scope.pkValue(&records[i])
		if pk == nil {
			return nil, fmt.Errorf("orm: %s: record has no primary key", a)
		}
		pks[i] = pk
	}
	return pks, nil
}

// forget removes records from a loaded target by primary key.
func (a *Association[T]) forget(records []T) {
	if !a.loaded || len(records) == 0 {
		return
	}
	pks, err := a.primaryKeys(records)
	if err != nil {
		return
	}
	a.target = slices.DeleteFunc(a.target, func(v T) bool {
		return slices.Contains(pks, a.scope.pkValue(&v))
	})
}

var _ fmt.Stringer = (*Association[any])(nil)
