package gen_test

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/mickamy/ormproxy/internal/gen"
)

func testdataPath(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata", name)
}

func TestParse(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("user.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(infos) != 2 {
		t.Fatalf("len(infos) = %d, want 2", len(infos))
	}

	// Package is set for all
	for _, info := range infos {
		if info.Package != "testdata" {
			t.Errorf("%s: Package = %q, want %q", info.Name, info.Package, "testdata")
		}
	}

	t.Run("User", func(t *testing.T) {
		t.Parallel()

		info := infos[0]
		if info.Name != "User" {
			t.Errorf("Name = %q, want %q", info.Name, "User")
		}

		// 7 db fields (Posts is db:"-", internal has no tag)
		if len(info.Fields) != 7 {
			t.Fatalf("len(Fields) = %d, want 7", len(info.Fields))
		}

		// Check first field
		f := info.Fields[0]
		if f.Name != "ID" || f.Column != "id" || f.GoType != "int" || !f.PrimaryKey {
			t.Errorf("Fields[0] = %+v", f)
		}

		// Check time.Time field
		f = info.Fields[5]
		if f.Name != "CreatedAt" || f.Column != "created_at" || f.GoType != "time.Time" {
			t.Errorf("Fields[5] = %+v", f)
		}
	})

	t.Run("Post", func(t *testing.T) {
		t.Parallel()

		info := infos[1]
		if info.Name != "Post" {
			t.Errorf("Name = %q, want %q", info.Name, "Post")
		}

		if len(info.Fields) != 3 {
			t.Fatalf("len(Fields) = %d, want 3", len(info.Fields))
		}
		if info.Fields[0].Column != "id" || !info.Fields[0].PrimaryKey {
			t.Errorf("Fields[0] = %+v", info.Fields[0])
		}
	})
}

func TestParsePrimaryKeyField(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("user.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	pk, err := infos[0].PrimaryKeyField()
	if err != nil {
		t.Fatalf("PrimaryKeyField: %v", err)
	}
	if pk.Name != "ID" || pk.Column != "id" {
		t.Errorf("PK = %+v", pk)
	}
}

func TestParseNoPrimaryKey(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("no_pk.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(infos) != 1 {
		t.Fatalf("len(infos) = %d, want 1", len(infos))
	}

	_, err = infos[0].PrimaryKeyField()
	if err == nil {
		t.Fatal("expected error for no primary key, got nil")
	}
}

func TestParseInvalidFile(t *testing.T) {
	t.Parallel()

	_, err := gen.Parse("nonexistent.go")
	if err == nil {
		t.Fatal("expected error for invalid file, got nil")
	}
}

func TestParseRelations(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("relations.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("len(infos) = %d, want 2", len(infos))
	}

	author := infos[0]
	if len(author.Fields) != 2 {
		t.Errorf("Author fields = %+v, want ID and Name only", author.Fields)
	}
	if len(author.Relations) != 1 {
		t.Fatalf("len(Author.Relations) = %d, want 1", len(author.Relations))
	}
	want := gen.RelationInfo{FieldName: "Articles", RelType: "has_many", TargetType: "Article", ForeignKey: "author_id"}
	if author.Relations[0] != want {
		t.Errorf("Author.Relations[0] = %+v, want %+v", author.Relations[0], want)
	}

	article := infos[1]
	want = gen.RelationInfo{FieldName: "Author", RelType: "belongs_to", TargetType: "Author", ForeignKey: "author_id", IsPointer: true}
	if len(article.Relations) != 1 || article.Relations[0] != want {
		t.Errorf("Article.Relations = %+v, want [%+v]", article.Relations, want)
	}
}

func TestParseDashedRelation(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("user.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rels := infos[0].Relations
	if len(rels) != 1 || rels[0].FieldName != "Posts" || rels[0].RelType != "has_many" {
		t.Errorf("User.Relations = %+v", rels)
	}
}

func TestParseCrossPackageRelation(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("cross_pkg_relations.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	rels := infos[0].Relations
	if len(rels) != 2 {
		t.Fatalf("len(EndUser.Relations) = %d, want 2", len(rels))
	}
	if rels[0].TargetType != "OAuthAccount" || rels[0].TargetImportPath != "github.com/example/auth/model" {
		t.Errorf("Relations[0] = %+v", rels[0])
	}
	if rels[1].TargetType != "UserEmail" || rels[1].TargetImportPath != "" || rels[1].RelType != "has_one" {
		t.Errorf("Relations[1] = %+v", rels[1])
	}
}

func TestParseManyToMany(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("many_to_many.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	rel := infos[0].Relations[0]
	if rel.JoinTable != "member_tags" || rel.ForeignKey != "member_id" || rel.References != "tag_id" {
		t.Errorf("Relation = %+v", rel)
	}
}

func TestParseUnknownRelation(t *testing.T) {
	t.Parallel()

	if _, err := gen.Parse(testdataPath("bad_relation.go")); err == nil {
		t.Fatal("expected error for unknown relation type, got nil")
	}
}

func TestParseTimestamps(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("timestamps.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("len(infos) = %d, want 3", len(infos))
	}

	for _, info := range infos {
		var created, updated []string
		for _, f := range info.Fields {
			if f.CreatedAt {
				created = append(created, f.Column)
			}
			if f.UpdatedAt {
				updated = append(updated, f.Column)
			}
		}
		if len(created) != 1 || len(updated) != 1 {
			t.Errorf("%s: created=%v updated=%v, want one of each", info.Name, created, updated)
		}
	}

	custom := infos[1]
	if !custom.Fields[1].CreatedAt || custom.Fields[1].Column != "inserted_at" {
		t.Errorf("InsertedAt = %+v", custom.Fields[1])
	}
	if !custom.Fields[2].UpdatedAt || custom.Fields[2].Column != "modified_at" {
		t.Errorf("ModifiedAt = %+v", custom.Fields[2])
	}
}

func TestParseInferredColumns(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("inferred.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	fields := infos[0].Fields
	if len(fields) != 3 {
		t.Fatalf("len(Fields) = %d, want 3", len(fields))
	}
	if fields[0].Column != "id" || !fields[0].PrimaryKey {
		t.Errorf("Fields[0] = %+v", fields[0])
	}
	if fields[2].Column != "created_at" || !fields[2].CreatedAt {
		t.Errorf("Fields[2] = %+v", fields[2])
	}
}

func TestParseCustomTypes(t *testing.T) {
	t.Parallel()

	infos, err := gen.Parse(testdataPath("custom_types.go"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("len(infos) = %d, want 2", len(infos))
	}

	repo := infos[0]
	if f := repo.Fields[2]; f.Column != "topics" || f.GoType != "StringArray" {
		t.Errorf("Topics = %+v", f)
	}

	noTag := infos[1]
	var columns []string
	for _, f := range noTag.Fields {
		columns = append(columns, f.Column)
	}
	if got := strings.Join(columns, ","); got != "id,name,tags" {
		t.Errorf("columns = %s, want id,name,tags", got)
	}
	want := gen.RelationInfo{FieldName: "Owner", RelType: "belongs_to", TargetType: "User", ForeignKey: "owner_id", IsPointer: true}
	if len(noTag.Relations) != 1 || noTag.Relations[0] != want {
		t.Errorf("Relations = %+v, want [%+v]", noTag.Relations, want)
	}
}
