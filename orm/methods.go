package orm

import (
	"context"

	"github.com/mickamy/ormproxy/scope"
)

// Method is a named operation contributed to a CollectionProxy by an
// Extension. It receives the proxy it was called on.
type Method[T any] func(ctx context.Context, p *CollectionProxy[T], args ...any) (any, error)

// Extension is a set of named methods mixed into every CollectionProxy of
// an association. Extension methods shadow the dynamic fallback but never
// the proxy's own routes.
type Extension[T any] interface {
	Lookup(name string) (Method[T], bool)
}

// Methods is a map-backed Extension.
//
//	orm.Methods[Post]{
//	    "Titles": func(ctx context.Context, p *orm.CollectionProxy[Post], _ ...any) (any, error) { ... },
//	}
type Methods[T any] map[string]Method[T]

// Lookup implements Extension.
func (m Methods[T]) Lookup(name string) (Method[T], bool) {
	fn, ok := m[name]
	return fn, ok
}

var _ Extension[any] = Methods[any](nil)

// CollectionMethod operates on a loaded target. The pointer refers to the
// association's cached rows, so in-place changes are visible to later calls.
type CollectionMethod[T any] func(ctx context.Context, target *[]T, args ...any) (any, error)

// CollectionMethods is the set of methods a loaded collection answers.
type CollectionMethods[T any] map[string]CollectionMethod[T]

// QueryMethod operates on an unexecuted Query. It must not load the
// association.
type QueryMethod[T any] func(ctx context.Context, q *Query[T], args ...any) (any, error)

// QueryMethods is the set of class-level query helpers for a model.
type QueryMethods[T any] map[string]QueryMethod[T]

func defaultQueryMethods[T any]() QueryMethods[T] {
	return QueryMethods[T]{
		"OrderBy": func(_ context.Context, q *Query[T], args ...any) (any, error) {
			clause, err := arg[string]("OrderBy", args, 0)
			if err != nil {
				return nil, err
			}
			return q.OrderBy(clause), nil
		},
		"Offset": func(_ context.Context, q *Query[T], args ...any) (any, error) {
			n, err := arg[int]("Offset", args, 0)
			if err != nil {
				return nil, err
			}
			return q.Offset(n), nil
		},
		"Preload": func(_ context.Context, q *Query[T], args ...any) (any, error) {
			name, err := arg[string]("Preload", args, 0)
			if err != nil {
				return nil, err
			}
			return q.Preload(name), nil
		},
		"Join": func(_ context.Context, q *Query[T], args ...any) (any, error) {
			name, err := arg[string]("Join", args, 0)
			if err != nil {
				return nil, err
			}
			return q.Join(name), nil
		},
		"LeftJoin": func(_ context.Context, q *Query[T], args ...any) (any, error) {
			name, err := arg[string]("LeftJoin", args, 0)
			if err != nil {
				return nil, err
			}
			return q.LeftJoin(name), nil
		},
		"Scopes": func(_ context.Context, q *Query[T], args ...any) (any, error) {
			ss, err := scopesArg("Scopes", args)
			if err != nil {
				return nil, err
			}
			return q.Scopes(ss...), nil
		},
		"Exists": func(ctx context.Context, q *Query[T], _ ...any) (any, error) {
			return q.Exists(ctx)
		},
	}
}

// arg returns args[i] as A.
func arg[A any](method string, args []any, i int) (A, error) {
	var zero A
	if i >= len(args) {
		return zero, argError(method, "missing argument %d", i)
	}
	v, ok := args[i].(A)
	if !ok {
		return zero, argError(method, "argument %d is %T, want %T", i, args[i], zero)
	}
	return v, nil
}

// optArg returns args[i] as A, or def when absent.
func optArg[A any](method string, args []any, i int, def A) (A, error) {
	if i >= len(args) {
		return def, nil
	}
	return arg[A](method, args, i)
}

func scopesArg(method string, args []any) ([]scope.Scope, error) {
	var out []scope.Scope
	for i, a := range args {
		switch v := a.(type) {
		case scope.Scope:
			out = append(out, v)
		case scope.Scopes:
			out = append(out, v...)
		case []scope.Scope:
			out = append(out, v...)
		default:
			return nil, argError(method, "argument %d is %T, want scope.Scope", i, a)
		}
	}
	return out, nil
}
