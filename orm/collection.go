package orm

import (
	"context"
	"maps"
	"slices"
)

// DefaultCollectionMethods returns the methods every loaded collection
// answers. Predicates and callbacks are passed as typed funcs, e.g.
// func(Post) bool for "Filter".
func DefaultCollectionMethods[T any]() CollectionMethods[T] {
	return CollectionMethods[T]{
		"Len": func(_ context.Context, target *[]T, _ ...any) (any, error) {
			return len(*target), nil
		},
		"At": func(_ context.Context, target *[]T, args ...any) (any, error) {
			i, err := arg[int]("At", args, 0)
			if err != nil {
				return nil, err
			}
			if i < 0 {
				i += len(*target)
			}
			if i < 0 || i >= len(*target) {
				return nil, ErrNotFound
			}
			return (*target)[i], nil
		},
		"Each": func(_ context.Context, target *[]T, args ...any) (any, error) {
			fn, err := arg[func(T)]("Each", args, 0)
			if err != nil {
				return nil, err
			}
			for _, v := range *target {
				fn(v)
			}
			return nil, nil
		},
		"Filter": func(_ context.Context, target *[]T, args ...any) (any, error) {
			pred, err := arg[func(T) bool]("Filter", args, 0)
			if err != nil {
				return nil, err
			}
			return filter(*target, pred), nil
		},
		"Reject": func(_ context.Context, target *[]T, args ...any) (any, error) {
			pred, err := arg[func(T) bool]("Reject", args, 0)
			if err != nil {
				return nil, err
			}
			return filter(*target, func(v T) bool { return !pred(v) }), nil
		},
		"Detect": func(_ context.Context, target *[]T, args ...any) (any, error) {
			pred, err := arg[func(T) bool]("Detect", args, 0)
			if err != nil {
				return nil, err
			}
			i := slices.IndexFunc(*target, pred)
			if i < 0 {
				return nil, ErrNotFound
			}
			return (*target)[i], nil
		},
		"IndexFunc": func(_ context.Context, target *[]T, args ...any) (any, error) {
			pred, err := arg[func(T) bool]("IndexFunc", args, 0)
			if err != nil {
				return nil, err
			}
			return slices.IndexFunc(*target, pred), nil
		},
		"ContainsFunc": func(_ context.Context, target *[]T, args ...any) (any, error) {
			pred, err := arg[func(T) bool]("ContainsFunc", args, 0)
			if err != nil {
				return nil, err
			}
			return slices.ContainsFunc(*target, pred), nil
		},
		"Map": func(_ context.Context, target *[]T, args ...any) (any, error) {
			fn, err := arg[func(T) any]("Map", args, 0)
			if err != nil {
				return nil, err
			}
			out := make([]any, len(*target))
			for i, v := range *target {
				out[i] = fn(v)
			}
			return out, nil
		},
		"Take": func(_ context.Context, target *[]T, args ...any) (any, error) {
			n, err := optArg("Take", args, 0, 1)
			if err != nil {
				return nil, err
			}
			n = clamp(n, len(*target))
			return slices.Clone((*target)[:n]), nil
		},
		"Drop": func(_ context.Context, target *[]T, args ...any) (any, error) {
			n, err := optArg("Drop", args, 0, 1)
			if err != nil {
				return nil, err
			}
			n = clamp(n, len(*target))
			return slices.Clone((*target)[n:]), nil
		},
		"SortFunc": func(_ context.Context, target *[]T, args ...any) (any, error) {
			cmp, err := arg[func(a, b T) int]("SortFunc", args, 0)
			if err != nil {
				return nil, err
			}
			slices.SortStableFunc(*target, cmp)
			return nil, nil
		},
		"Reverse": func(_ context.Context, target *[]T, _ ...any) (any, error) {
			slices.Reverse(*target)
			return nil, nil
		},
	}
}

// resolveCollectionMethods merges extra over the defaults.
func resolveCollectionMethods[T any](extra CollectionMethods[T]) CollectionMethods[T] {
	ms := DefaultCollectionMethods[T]()
	maps.Copy(ms, extra)
	return ms
}

func filter[T any](s []T, pred func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

func clamp(n, hi int) int {
	return max(0, min(n, hi))
}
