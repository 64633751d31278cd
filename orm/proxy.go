package orm

import (
	"context"
	"slices"
)

// CollectionProxy stands in for the rows of a has-many association. It
// does not query the store until an operation needs loaded rows:
//
//   - Order, Limit and Where refine the association's scope.
//   - Count, Size, Find, Create and the other association operations are
//     answered by the Association, which decides whether to load.
//   - Call resolves any other method by name: extension methods first,
//     then methods of the loaded collection (loading it), then the model's
//     query methods applied to the unexecuted scope.
//
// A CollectionProxy has no state of its own; everything is cached on its
// Association. It is not safe for concurrent use.
type CollectionProxy[T any] struct {
	association *Association[T]
	extensions  []Extension[T]
}

// NewCollectionProxy returns a proxy over a, with the extensions configured
// on a mixed in.
func NewCollectionProxy[T any](a *Association[T]) *CollectionProxy[T] {
	return &CollectionProxy[T]{
		association: a,
		extensions:  slices.Clone(a.cfg.Extensions),
	}
}

// HasMany is a shorthand for NewCollectionProxy(NewHasMany(base, cfg)).
//
//	posts := orm.HasMany(query.Posts(db), orm.HasManyConfig[model.Post]{
//	    ForeignKey:  "user_id",
//	    OwnerKey:    user.ID,
//	    AssignOwner: func(p *model.Post) { p.UserID = user.ID },
//	})
func HasMany[T any](base *Query[T], cfg HasManyConfig[T]) *CollectionProxy[T] {
	return NewCollectionProxy(NewHasMany(base, cfg))
}

// ProxyAssociation returns the underlying Association.
func (p *CollectionProxy[T]) ProxyAssociation() *Association[T] { return p.association }

func (p *CollectionProxy[T]) String() string { return p.association.String() }

// --- Scope refinements (never load) ---

func (p *CollectionProxy[T]) Order(clause string) *Query[T] {
	return p.association.Scope().OrderBy(clause)
}

func (p *CollectionProxy[T]) Limit(n int) *Query[T] {
	return p.association.Scope().Limit(n)
}

func (p *CollectionProxy[T]) Where(clause string, args ...any) *Query[T] {
	return p.association.Scope().Where(clause, args...)
}

// --- Association routes ---

func (p *CollectionProxy[T]) Target(ctx context.Context) ([]T, error) {
	return p.association.Target(ctx)
}

func (p *CollectionProxy[T]) LoadTarget(ctx context.Context) ([]T, error) {
	return p.association.LoadTarget(ctx)
}

func (p *CollectionProxy[T]) Loaded() bool    { return p.association.Loaded() }
func (p *CollectionProxy[T]) Scope() *Query[T] { return p.association.Scope() }

func (p *CollectionProxy[T]) Select(columns ...string) *Query[T] {
	return p.association.Select(columns...)
}

func (p *CollectionProxy[T]) Find(ctx context.Context, id any) (T, error) {
	return p.association.Find(ctx, id)
}

func (p *CollectionProxy[T]) First(ctx context.Context) (T, error) { return p.association.First(ctx) }
func (p *CollectionProxy[T]) Last(ctx context.Context) (T, error)  { return p.association.Last(ctx) }

func (p *CollectionProxy[T]) Build(init ...func(*T)) *T { return p.association.Build(init...) }

// New is an alias for Build.
func (p *CollectionProxy[T]) New(init ...func(*T)) *T { return p.Build(init...) }

func (p *CollectionProxy[T]) Create(ctx context.Context, init ...func(*T)) (*T, error) {
	return p.association.Create(ctx, init...)
}

func (p *CollectionProxy[T]) MustCreate(ctx context.Context, init ...func(*T)) *T {
	return p.association.MustCreate(ctx, init...)
}

func (p *CollectionProxy[T]) DestroyAll(ctx context.Context) error {
	return p.association.DestroyAll(ctx)
}

func (p *CollectionProxy[T]) Destroy(ctx context.Context, records ...T) error {
	return p.association.Destroy(ctx, records...)
}

func (p *CollectionProxy[T]) Delete(ctx context.Context, records ...T) error {
	return p.association.Delete(ctx, records...)
}

func (p *CollectionProxy[T]) DeleteAll(ctx context.Context) error {
	return p.association.DeleteAll(ctx)
}

func (p *CollectionProxy[T]) Count(ctx context.Context) (int64, error) {
	return p.association.Count(ctx)
}

func (p *CollectionProxy[T]) Size(ctx context.Context) (int, error) { return p.association.Size(ctx) }

func (p *CollectionProxy[T]) Length(ctx context.Context) (int, error) {
	return p.association.Length(ctx)
}

func (p *CollectionProxy[T]) IsEmpty(ctx context.Context) (bool, error) {
	return p.association.IsEmpty(ctx)
}

func (p *CollectionProxy[T]) Any(ctx context.Context) (bool, error)  { return p.association.Any(ctx) }
func (p *CollectionProxy[T]) Many(ctx context.Context) (bool, error) { return p.association.Many(ctx) }

// --- Loaded-collection operations ---

// Equal loads the target and compares it row by row with other.
func (p *CollectionProxy[T]) Equal(ctx context.Context, other []T) (bool, error) {
	target, err := p.association.LoadTarget(ctx)
	if err != nil {
		return false, err
	}
	return slices.EqualFunc(target, other, p.association.equal), nil
}

// ToSlice loads the target and returns a copy of it. Changing the copy
// does not affect the association.
func (p *CollectionProxy[T]) ToSlice(ctx context.Context) ([]T, error) {
	target, err := p.association.LoadTarget(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(target), nil
}

// All is an alias for ToSlice.
func (p *CollectionProxy[T]) All(ctx context.Context) ([]T, error) { return p.ToSlice(ctx) }

// Append adds records to the association and returns the proxy so calls
// can be chained. On failure it returns nil and the error.
func (p *CollectionProxy[T]) Append(ctx context.Context, records ...*T) (*CollectionProxy[T], error) {
	if err := p.association.Concat(ctx, records...); err != nil {
		return nil, err
	}
	return p, nil
}

// Push is an alias for Append.
func (p *CollectionProxy[T]) Push(ctx context.Context, records ...*T) (*CollectionProxy[T], error) {
	return p.Append(ctx, records...)
}

// Clear destroys every associated row and returns the proxy.
func (p *CollectionProxy[T]) Clear(ctx context.Context) (*CollectionProxy[T], error) {
	if err := p.association.DestroyAll(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload drops the association's cached rows and returns the proxy.
func (p *CollectionProxy[T]) Reload() *CollectionProxy[T] {
	p.association.Reload()
	return p
}

// --- Dispatch by name ---

// Call invokes the named method. Methods of the proxy itself take
// precedence, then extensions (last configured first), then the loaded
// collection's methods, which load the target once, then the model's query
// methods, which run on the unexecuted scope. Anything else fails with an
// *UnsupportedOperationError.
func (p *CollectionProxy[T]) Call(ctx context.Context, name string, args ...any) (any, error) {
	if fn, ok := staticRoute[T](name); ok {
		return fn(ctx, p, args...)
	}
	if fn, ok := p.extension(name); ok {
		return fn(ctx, p, args...)
	}

	a := p.association
	if fn, ok := a.collection[name]; ok {
		if _, err := a.LoadTarget(ctx); err != nil {
			return nil, err
		}
		return fn(ctx, &a.target, args...)
	}
	if fn, ok := a.queries[name]; ok {
		return fn(ctx, a.Scope(), args...)
	}
	return nil, &UnsupportedOperationError{Method: name, Proxy: a.String()}
}

// RespondTo reports whether Call would find the named method. Unless the
// proxy or an extension provides it, the target is loaded to check the
// collection's methods.
func (p *CollectionProxy[T]) RespondTo(ctx context.Context, name string) (bool, error) {
	if _, ok := staticRoute[T](name); ok {
		return true, nil
	}
	if _, ok := p.extension(name); ok {
		return true, nil
	}

	a := p.association
	if _, err := a.LoadTarget(ctx); err != nil {
		return false, err
	}
	if _, ok := a.collection[name]; ok {
		return true, nil
	}
	_, ok := a.queries[name]
	return ok, nil
}

func (p *CollectionProxy[T]) extension(name string) (Method[T], bool) {
	for _, ext := range slices.Backward(p.extensions) {
		if fn, ok := ext.Lookup(name); ok {
			return fn, true
		}
	}
	return nil, false
}
