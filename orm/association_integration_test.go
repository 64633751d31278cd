//go:build integration

package orm_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/mickamy/ormproxy/orm"
)

type Article struct {
	ID     int
	UserID int
	Title  string
}

var articlesColumns = []string{"id", "user_id", "title"}

func scanArticle(rows *sql.Rows) (Article, error) {
	cols, _ := rows.Columns()
	var v Article
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "id":
			dest[i] = &v.ID
		case "user_id":
			dest[i] = &v.UserID
		case "title":
			dest[i] = &v.Title
		default:
			dest[i] = new(any)
		}
	}
	err := rows.Scan(dest...)
	return v, err
}

func articleColumnValuePairs(v *Article, includesPK bool) ([]string, []any) {
	if includesPK {
		return []string{"id", "user_id", "title"}, []any{v.ID, v.UserID, v.Title}
	}
	return []string{"user_id", "title"}, []any{v.UserID, v.Title}
}

func Articles(db orm.Querier) *orm.Query[Article] {
	return orm.NewQuery[Article](db, "articles", articlesColumns, "id", scanArticle, articleColumnValuePairs,
		func(v *Article, id int64) { v.ID = int(id) })
}

func UserArticles(db orm.Querier, u *User) *orm.CollectionProxy[Article] {
	return orm.HasMany(Articles(db).OrderBy("id"), orm.HasManyConfig[Article]{
		ForeignKey:  "user_id",
		OwnerKey:    u.ID,
		AssignOwner: func(a *Article) { a.UserID = u.ID },
	})
}

var createArticles = map[string]string{
	"MySQL": `CREATE TABLE IF NOT EXISTS articles (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		title VARCHAR(255) NOT NULL
	)`,
	"PostgreSQL": `CREATE TABLE IF NOT EXISTS articles (
		id SERIAL PRIMARY KEY,
		user_id INT NOT NULL,
		title VARCHAR(255) NOT NULL
	)`,
}

func setupArticles(t *testing.T, ds dialectSetup) (orm.Querier, *User) {
	t.Helper()

	db := setupDB(t, ds)
	ctx := t.Context()
	if _, err := db.ExecContext(ctx, createArticles[ds.name]); err != nil {
		t.Fatalf("create articles %s: %v", ds.name, err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM articles"); err != nil {
		t.Fatalf("truncate articles %s: %v", ds.name, err)
	}

	u := &User{Name: "Author", Email: "author@example.com"}
	if err := Users(db).Create(ctx, u); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	return db, u
}

func TestHasMany(t *testing.T) {
	for _, ds := range dialects {
		t.Run(ds.name, func(t *testing.T) {
			t.Parallel()

			db, u := setupArticles(t, ds)
			ctx := t.Context()
			articles := UserArticles(db, u)

			// Append inserts inside a transaction and stamps the owner
			if _, err := articles.Append(ctx, &Article{Title: "one"}, &Article{Title: "two"}, &Article{Title: "three"}); err != nil {
				t.Fatalf("Append: %v", err)
			}
			if err := Articles(db).Create(ctx, &Article{UserID: u.ID + 1000, Title: "someone else"}); err != nil {
				t.Fatalf("Create other: %v", err)
			}

			// Count goes to the store without loading
			n, err := articles.Count(ctx)
			if err != nil {
				t.Fatalf("Count: %v", err)
			}
			if n != 3 || articles.Loaded() {
				t.Errorf("Count = %d, Loaded = %v; want 3, false", n, articles.Loaded())
			}

			first, err := articles.First(ctx)
			if err != nil {
				t.Fatalf("First: %v", err)
			}
			if first.Title != "one" || first.UserID != u.ID {
				t.Errorf("First = %+v", first)
			}

			rows, err := articles.ToSlice(ctx)
			if err != nil {
				t.Fatalf("ToSlice: %v", err)
			}
			if len(rows) != 3 {
				t.Errorf("len(ToSlice) = %d, want 3", len(rows))
			}

			found, err := articles.Find(ctx, rows[1].ID)
			if err != nil {
				t.Fatalf("Find: %v", err)
			}
			if found.Title != "two" {
				t.Errorf("Find = %+v", found)
			}

			if err := articles.Destroy(ctx, rows[0]); err != nil {
				t.Fatalf("Destroy: %v", err)
			}
			if n, _ := articles.Reload().Count(ctx); n != 2 {
				t.Errorf("Count after Destroy = %d, want 2", n)
			}

			if _, err := articles.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			if empty, _ := articles.IsEmpty(ctx); !empty {
				t.Error("IsEmpty after Clear = false, want true")
			}
			if n, _ := Articles(db).Count(ctx); n != 1 {
				t.Errorf("Clear removed other owners' rows: %d left, want 1", n)
			}

			if _, err := articles.Call(ctx, "Frobnicate"); !errors.Is(err, orm.ErrUnsupportedOperation) {
				t.Errorf("Call(Frobnicate) err = %v", err)
			}
		})
	}
}

func TestHasManyAppendRollsBack(t *testing.T) {
	for _, ds := range dialects {
		t.Run(ds.name, func(t *testing.T) {
			t.Parallel()

			db, u := setupArticles(t, ds)
			ctx := t.Context()

			articles := orm.HasMany(Articles(db), orm.HasManyConfig[Article]{
				ForeignKey:  "user_id",
				OwnerKey:    u.ID,
				AssignOwner: func(a *Article) { a.UserID = u.ID },
			})

			long := make([]byte, 300)
			for i := range long {
				long[i] = 'x'
			}
			_, err := articles.Append(ctx, &Article{Title: "ok"}, &Article{Title: string(long)})
			if err == nil {
				t.Fatal("expected Append to fail for an oversized title")
			}

			if n, _ := articles.Count(ctx); n != 0 {
				t.Errorf("Count after failed Append = %d, want 0 (rolled back)", n)
			}
		})
	}
}
