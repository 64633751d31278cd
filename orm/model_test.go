package orm_test

import (
	"context"
	"testing"

	"github.com/mickamy/ormproxy/orm"
)

type plain struct{}

type valueNamer struct{}

func (valueNamer) TableName() string { return "custom_values" }

type ptrNamer struct{}

func (*ptrNamer) TableName() string { return "custom_ptrs" }

func TestResolveTableName(t *testing.T) {
	t.Parallel()

	tests := map[string]struct{ got, want string }{
		"no TableNamer":    {orm.ResolveTableName[plain]("plains"), "plains"},
		"value receiver":   {orm.ResolveTableName[valueNamer]("value_namers"), "custom_values"},
		"pointer receiver": {orm.ResolveTableName[ptrNamer]("ptr_namers"), "custom_ptrs"},
	}
	for name, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", name, tt.got, tt.want)
		}
	}
}

type ptrQueries struct{}

func (*ptrQueries) QueryMethods() orm.QueryMethods[ptrQueries] {
	return orm.QueryMethods[ptrQueries]{
		"Recent": func(_ context.Context, q *orm.Query[ptrQueries], _ ...any) (any, error) {
			return q.OrderBy("id DESC"), nil
		},
		"Offset": func(_ context.Context, q *orm.Query[ptrQueries], _ ...any) (any, error) {
			return "model", nil
		},
	}
}

func TestResolveQueryMethods(t *testing.T) {
	t.Parallel()

	extra := orm.QueryMethods[ptrQueries]{
		"Offset": func(_ context.Context, q *orm.Query[ptrQueries], _ ...any) (any, error) {
			return "extra", nil
		},
		"Stale": func(_ context.Context, q *orm.Query[ptrQueries], _ ...any) (any, error) {
			return "extra", nil
		},
	}
	ms := orm.ResolveQueryMethods(extra)

	for _, name := range []string{"OrderBy", "Exists", "Scopes", "Preload", "Join", "LeftJoin", "Recent", "Stale"} {
		if _, ok := ms[name]; !ok {
			t.Errorf("missing %s", name)
		}
	}

	got, err := ms["Offset"](t.Context(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "model" {
		t.Errorf("Offset resolved to the %v definition, want model", got)
	}

	if _, ok := orm.ResolveQueryMethods[plain](nil)["Recent"]; ok {
		t.Error("plain struct has Recent")
	}
}
