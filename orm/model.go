package orm

import "maps"

// A model struct can implement these interfaces to customize how the
// generated code and CollectionProxy treat it. Both are detected on the
// value and on the pointer receiver.

// TableNamer overrides the table name derived from the struct name.
type TableNamer interface {
	TableName() string
}

// QueryMethoder exposes named query helpers, e.g. "Published", that a
// CollectionProxy forwards to its scope without loading rows.
type QueryMethoder[T any] interface {
	QueryMethods() QueryMethods[T]
}

// ResolveTableName returns T's TableName, or fallback when T does not
// implement TableNamer.
func ResolveTableName[T any](fallback string) string {
	var zero T
	if tn, ok := any(&zero).(TableNamer); ok {
		return tn.TableName()
	}
	return fallback
}

// ResolveQueryMethods returns the built-in query methods for T merged with
// extra and then with T's own QueryMethods. Later sources win on name
// collisions.
func ResolveQueryMethods[T any](extra QueryMethods[T]) QueryMethods[T] {
	ms := defaultQueryMethods[T]()
	maps.Copy(ms, extra)
	var zero T
	if qm, ok := any(&zero).(QueryMethoder[T]); ok {
		maps.Copy(ms, qm.QueryMethods())
	}
	return ms
}
