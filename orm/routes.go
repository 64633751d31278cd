package orm

import "context"

// staticRoute returns the proxy method registered under name. These routes
// take precedence over extensions and the dynamic fallback in Call.
func staticRoute[T any](name string) (Method[T], bool) {
	switch name {
	// scope refinements
	case "Order":
		return func(_ context.Context, p *CollectionProxy[T], args ...any) (any, error) {
			clause, err := arg[string](name, args, 0)
			if err != nil {
				return nil, err
			}
			return p.Order(clause), nil
		}, true
	case "Limit":
		return func(_ context.Context, p *CollectionProxy[T], args ...any) (any, error) {
			n, err := arg[int](name, args, 0)
			if err != nil {
				return nil, err
			}
			return p.Limit(n), nil
		}, true
	case "Where":
		return func(_ context.Context, p *CollectionProxy[T], args ...any) (any, error) {
			clause, err := arg[string](name, args, 0)
			if err != nil {
				return nil, err
			}
			return p.Where(clause, args[1:]...), nil
		}, true

	// association
	case "Target", "LoadTarget":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.LoadTarget(ctx)
		}, true
	case "Loaded":
		return func(_ context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.Loaded(), nil
		}, true
	case "Scope":
		return func(_ context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.Scope(), nil
		}, true
	case "Select":
		return func(_ context.Context, p *CollectionProxy[T], args ...any) (any, error) {
			columns, err := variadic[string](name, args)
			if err != nil {
				return nil, err
			}
			return p.Select(columns...), nil
		}, true
	case "Find":
		return func(ctx context.Context, p *CollectionProxy[T], args ...any) (any, error) {
			if len(args) != 1 {
				return nil, argError(name, "want 1 argument, got %d", len(args))
			}
			return p.Find(ctx, args[0])
		}, true
	case "First":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.First(ctx)
		}, true
	case "Last":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.Last(ctx)
		}, true
	case "Build", "New":
		return func(_ context.Context, p *CollectionProxy[T], args ...any) (any, error) {
			init, err := variadic[func(*T)](name, args)
			if err != nil {
				return nil, err
			}
			return p.Build(init...), nil
		}, true
	case "Create":
		return func(ctx context.Context, p *CollectionProxy[T], args ...any) (any, error) {
			init, err := variadic[func(*T)](name, args)
			if err != nil {
				return nil, err
			}
			return p.Create(ctx, init...)
		}, true
	case "MustCreate":
		return func(ctx context.Context, p *CollectionProxy[T], args ...any) (any, error) {
			init, err := variadic[func(*T)](name, args)
			if err != nil {
				return nil, err
			}
			return p.MustCreate(ctx, init...), nil
		}, true
	case "DestroyAll":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return nil, p.DestroyAll(ctx)
		}, true
	case "Destroy":
		return func(ctx context.Context, p *CollectionProxy[T], args ...any) (any, error) {
			records, err := variadic[T](name, args)
			if err != nil {
				return nil, err
			}
			return nil, p.Destroy(ctx, records...)
		}, true
	case "Delete":
		return func(ctx context.Context, p *CollectionProxy[T], args ...any) (any, error) {
			records, err := variadic[T](name, args)
			if err != nil {
				return nil, err
			}
			return nil, p.Delete(ctx, records...)
		}, true
	case "DeleteAll":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return nil, p.DeleteAll(ctx)
		}, true
	case "Count":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.Count(ctx)
		}, true
	case "Size":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.Size(ctx)
		}, true
	case "Length":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.Length(ctx)
		}, true
	case "IsEmpty":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.IsEmpty(ctx)
		}, true
	case "Any":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.Any(ctx)
		}, true
	case "Many":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.Many(ctx)
		}, true

	// proxy-level operations
	case "Equal":
		return func(ctx context.Context, p *CollectionProxy[T], args ...any) (any, error) {
			other, err := arg[[]T](name, args, 0)
			if err != nil {
				return nil, err
			}
			return p.Equal(ctx, other)
		}, true
	case "ToSlice", "All":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.ToSlice(ctx)
		}, true
	case "Append", "Push":
		return func(ctx context.Context, p *CollectionProxy[T], args ...any) (any, error) {
			records, err := variadic[*T](name, args)
			if err != nil {
				return nil, err
			}
			return p.Append(ctx, records...)
		}, true
	case "Clear":
		return func(ctx context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.Clear(ctx)
		}, true
	case "Reload":
		return func(_ context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.Reload(), nil
		}, true
	case "ProxyAssociation":
		return func(_ context.Context, p *CollectionProxy[T], _ ...any) (any, error) {
			return p.ProxyAssociation(), nil
		}, true
	}
	return nil, false
}

// variadic converts args to []A. A single []A argument is accepted as is.
func variadic[A any](method string, args []any) ([]A, error) {
	if len(args) == 1 {
		if s, ok := args[0].([]A); ok {
			return s, nil
		}
	}
	out := make([]A, len(args))
	for i := range args {
		v, err := arg[A](method, args, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
