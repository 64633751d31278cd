package gen_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/mickamy/ormproxy/internal/gen"
)

func parseWithTables(t *testing.T, name string, tables ...string) []*gen.StructInfo {
	t.Helper()

	infos, err := gen.Parse(testdataPath(name))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(infos) != len(tables) {
		t.Fatalf("len(infos) = %d, want %d", len(infos), len(tables))
	}
	for i, info := range infos {
		info.TableName = tables[i]
	}
	return infos
}

func assertContains(t *testing.T, src string, wants ...string) {
	t.Helper()

	for _, want := range wants {
		if !strings.Contains(src, want) {
			t.Errorf("generated code does not contain %q\n%s", want, src)
		}
	}
}

func assertMatches(t *testing.T, src string, patterns ...string) {
	t.Helper()

	for _, p := range patterns {
		if !regexp.MustCompile(p).MatchString(src) {
			t.Errorf("generated code does not match %q\n%s", p, src)
		}
	}
}

func TestRenderFile(t *testing.T) {
	t.Parallel()

	infos := parseWithTables(t, "user.go", "users", "posts")
	out, err := gen.RenderFile(infos, gen.RenderOption{})
	if err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	src := string(out)

	assertContains(t, src,
		"// Code generated by ormproxy; DO NOT EDIT.",
		"package testdata",
		"func Users(db orm.Querier) *orm.Query[User] {",
		"func Posts(db orm.Querier) *orm.Query[Post] {",
		"func scanUser(rows *sql.Rows) (User, error) {",
		"func setUserPK(v *User, id int64) {",
		`q.RegisterPreloader("Posts", preloadUserPosts)`,
		"func preloadUserPosts(ctx context.Context, db orm.Querier, results []User) error {",
		"q.RegisterTimestamps(",
		"func setUserCreatedAt(v *User, now time.Time) {",
		"func setUserUpdatedAt(v *User, now time.Time) {",
	)
	assertMatches(t, src,
		`var usersColumns = \[\]string\{"id", "name", "email", "role", "active", "created_at", "updated_at"\}`,
		`SourceTable: orm\.ResolveTableName\[User\]\("users"\), SourceColumn: "id"`,
	)
}

func TestRenderHasManyProxy(t *testing.T) {
	t.Parallel()

	infos := parseWithTables(t, "user.go", "users", "posts")
	out, err := gen.RenderFile(infos, gen.RenderOption{})
	if err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	src := string(out)

	assertContains(t, src,
		"func UserPosts(db orm.Querier, owner *User, exts ...orm.Extension[Post]) *orm.CollectionProxy[Post] {",
		"return orm.HasMany(Posts(db), orm.HasManyConfig[Post]{",
		"v.UserID = owner.ID",
	)
	assertMatches(t, src,
		`Name:\s+"posts",`,
		`ForeignKey:\s+"user_id",`,
		`OwnerKey:\s+owner\.ID,`,
		`Extensions:\s+exts,`,
	)
}

func TestRenderSeparatePackage(t *testing.T) {
	t.Parallel()

	infos := parseWithTables(t, "relations.go", "authors", "articles")
	out, err := gen.RenderFile(infos, gen.RenderOption{
		DestPkg:      "query",
		SourceImport: "github.com/example/app/model",
	})
	if err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	src := string(out)

	assertContains(t, src,
		"package query",
		`"github.com/example/app/model"`,
		"func Authors(db orm.Querier) *orm.Query[model.Author] {",
		"func AuthorArticles(db orm.Querier, owner *model.Author, exts ...orm.Extension[model.Article]) *orm.CollectionProxy[model.Article] {",
		"v.AuthorID = owner.ID",
		"func preloadArticleAuthor(ctx context.Context, db orm.Querier, results []model.Article) error {",
	)
}

func TestRenderCrossPackageRelation(t *testing.T) {
	t.Parallel()

	infos := parseWithTables(t, "cross_pkg_relations.go", "end_users", "user_emails")
	out, err := gen.RenderFile(infos, gen.RenderOption{
		DestPkg:      "query",
		SourceImport: "github.com/example/app/model",
	})
	if err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	src := string(out)

	assertContains(t, src,
		`authmodel "github.com/example/auth/model"`,
		`authquery "github.com/example/auth/query"`,
		"func EndUserOAuthAccounts(db orm.Querier, owner *model.EndUser, exts ...orm.Extension[authmodel.OAuthAccount]) *orm.CollectionProxy[authmodel.OAuthAccount] {",
		"return orm.HasMany(authquery.OAuthAccounts(db)",
		"v.EndUserID = owner.ID",
	)
}

func TestRenderManyToMany(t *testing.T) {
	t.Parallel()

	infos := parseWithTables(t, "many_to_many.go", "members", "tags")
	out, err := gen.RenderFile(infos, gen.RenderOption{})
	if err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	src := string(out)

	assertContains(t, src,
		`ctx, db, "member_tags", "member_id", "tag_id", ids,`,
		"targetIDs := orm.UniqueTargets(pairs)",
	)
	if strings.Contains(src, "orm.HasMany(") {
		t.Error("many_to_many relation rendered a has-many proxy")
	}
}

func TestRenderNoPrimaryKey(t *testing.T) {
	t.Parallel()

	infos := parseWithTables(t, "no_pk.go", "audit_logs")
	if _, err := gen.RenderFile(infos, gen.RenderOption{}); err == nil {
		t.Fatal("expected error for struct without primary key, got nil")
	}
}

func TestRenderEmpty(t *testing.T) {
	t.Parallel()

	if _, err := gen.RenderFile(nil, gen.RenderOption{}); err == nil {
		t.Fatal("expected error for no structs, got nil")
	}
}
