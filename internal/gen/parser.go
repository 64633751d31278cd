package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"reflect"
	"strconv"
	"strings"

	"github.com/mickamy/ormproxy/internal/naming"
)

// FieldInfo holds parsed metadata for one struct field.
type FieldInfo struct {
	Name       string // Go field name, e.g. "ID"
	Column     string // DB column name from `db:"id"` tag
	GoType     string // Go type as string, e.g. "int", "string", "time.Time"
	PrimaryKey bool   // true if tag contains "primaryKey"
	CreatedAt  bool   // stamped on insert ("CreatedAt" or `db:",createdAt"`)
	UpdatedAt  bool   // stamped on insert and update ("UpdatedAt" or `db:",updatedAt"`)
}

// RelationInfo holds parsed metadata for a field tagged with `rel:"..."`.
//
//	Posts []Post `rel:"has_many,foreign_key:user_id"`
//	Tags  []Tag  `rel:"many_to_many,join_table:user_tags,foreign_key:user_id,references:tag_id"`
type RelationInfo struct {
	FieldName        string // "Posts"
	RelType          string // "has_many", "has_one", "belongs_to" or "many_to_many"
	TargetType       string // "Post", without package qualifier
	TargetImportPath string // import path when the target lives in another package
	ForeignKey       string // "user_id"
	IsPointer        bool   // field is *Target
	JoinTable        string // many_to_many only
	References       string // many_to_many only
}

// StructInfo holds parsed metadata for the target struct.
type StructInfo struct {
	Name      string         // Go struct name, e.g. "User"
	Package   string         // Package name, e.g. "model"
	Fields    []FieldInfo    // Non-skipped db fields
	Relations []RelationInfo // rel-tagged fields
	TableName string         // Set by the caller (from CLI flag)
}

// PrimaryKeyField returns the primary key field, or an error if none or
// multiple are defined.
func (s *StructInfo) PrimaryKeyField() (*FieldInfo, error) {
	var pk *FieldInfo
	for i := range s.Fields {
		if s.Fields[i].PrimaryKey {
			if pk != nil {
				return nil, fmt.Errorf("multiple primary keys: %s and %s", pk.Name, s.Fields[i].Name)
			}
			pk = &s.Fields[i]
		}
	}
	if pk == nil {
		return nil, fmt.Errorf("no primary key defined for %s", s.Name)
	}
	return pk, nil
}

var relTypes = map[string]bool{
	"has_many":     true,
	"has_one":      true,
	"belongs_to":   true,
	"many_to_many": true,
}

// Parse reads the Go file at path and returns StructInfo for every struct
// that has at least one column.
func Parse(filePath string) ([]*StructInfo, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	pkg := file.Name.Name
	imports := fileImports(file)
	var infos []*StructInfo
	var parseErr error

	ast.Inspect(file, func(n ast.Node) bool {
		if parseErr != nil {
			return false
		}
		ts, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}

		st, ok := ts.Type.(*ast.StructType)
		if !ok {
			return true
		}

		fields, relations, err := parseStructFields(st, imports)
		if err != nil {
			parseErr = fmt.Errorf("%s: %w", ts.Name.Name, err)
			return false
		}
		if len(fields) == 0 {
			return true
		}

		infos = append(infos, &StructInfo{
			Name:      ts.Name.Name,
			Package:   pkg,
			Fields:    fields,
			Relations: relations,
		})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return infos, nil
}

// fileImports maps each import's local name to its path.
func fileImports(file *ast.File) map[string]string {
	m := make(map[string]string, len(file.Imports))
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := path.Base(p)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		m[name] = p
	}
	return m
}

// parseStructFields extracts columns and relations from an AST struct type.
func parseStructFields(st *ast.StructType, imports map[string]string) ([]FieldInfo, []RelationInfo, error) {
	fields := make([]FieldInfo, 0, len(st.Fields.List))
	var relations []RelationInfo
	for _, field := range st.Fields.List {
		rel, ok, err := parseRelation(field, imports)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			relations = append(relations, rel)
			continue
		}

		fi, skip := parseField(field)
		if skip {
			continue
		}
		fields = append(fields, fi)
	}
	return fields, relations, nil
}

func parseField(field *ast.Field) (FieldInfo, bool) {
	if len(field.Names) == 0 {
		return FieldInfo{}, true // embedded field, skip
	}

	name := field.Names[0].Name

	// Skip unexported fields.
	if !field.Names[0].IsExported() {
		return FieldInfo{}, true
	}

	goType := typeToString(field.Type)

	// Defaults: column inferred from field name, ID field is primary key,
	// CreatedAt/UpdatedAt are timestamps.
	fi := FieldInfo{
		Name:       name,
		Column:     naming.CamelToSnake(name),
		GoType:     goType,
		PrimaryKey: name == "ID",
		CreatedAt:  name == "CreatedAt",
		UpdatedAt:  name == "UpdatedAt",
	}

	// Override with db tag if present.
	if field.Tag != nil {
		tag := reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
		if dbTag, ok := tag.Lookup("db"); ok {
			if dbTag == "-" {
				return FieldInfo{}, true // explicitly skipped
			}
			parts := strings.Split(dbTag, ",")
			if parts[0] != "" {
				fi.Column = parts[0]
			}
			for _, opt := range parts[1:] {
				switch opt {
				case "primaryKey":
					fi.PrimaryKey = true
				case "createdAt":
					fi.CreatedAt = true
				case "updatedAt":
					fi.UpdatedAt = true
				}
			}
		}
	}

	return fi, false
}

// parseRelation reports whether field carries a rel tag and, if so, parses it.
func parseRelation(field *ast.Field, imports map[string]string) (RelationInfo, bool, error) {
	if field.Tag == nil || len(field.Names) == 0 {
		return RelationInfo{}, false, nil
	}
	tag := reflect.StructTag(strings.Trim(field.Tag.Value, "`"))
	relTag, ok := tag.Lookup("rel")
	if !ok {
		return RelationInfo{}, false, nil
	}

	name := field.Names[0].Name
	parts := strings.Split(relTag, ",")
	rel := RelationInfo{FieldName: name, RelType: parts[0]}
	if !relTypes[rel.RelType] {
		return RelationInfo{}, false, fmt.Errorf("field %s: unknown relation %q", name, rel.RelType)
	}
	for _, opt := range parts[1:] {
		key, value, _ := strings.Cut(opt, ":")
		switch key {
		case "foreign_key":
			rel.ForeignKey = value
		case "join_table":
			rel.JoinTable = value
		case "references":
			rel.References = value
		default:
			return RelationInfo{}, false, fmt.Errorf("field %s: unknown rel option %q", name, key)
		}
	}

	typ := field.Type
	if at, ok := typ.(*ast.ArrayType); ok {
		typ = at.Elt
	}
	if star, ok := typ.(*ast.StarExpr); ok {
		rel.IsPointer = true
		typ = star.X
	}
	switch t := typ.(type) {
	case *ast.Ident:
		rel.TargetType = t.Name
	case *ast.SelectorExpr:
		pkgIdent, ok := t.X.(*ast.Ident)
		if !ok {
			return RelationInfo{}, false, fmt.Errorf("field %s: unsupported relation type %s", name, typeToString(field.Type))
		}
		rel.TargetType = t.Sel.Name
		rel.TargetImportPath = imports[pkgIdent.Name]
	default:
		return RelationInfo{}, false, fmt.Errorf("field %s: unsupported relation type %s", name, typeToString(field.Type))
	}

	if rel.ForeignKey == "" {
		return RelationInfo{}, false, fmt.Errorf("field %s: foreign_key is required", name)
	}
	if rel.RelType == "many_to_many" && (rel.JoinTable == "" || rel.References == "") {
		return RelationInfo{}, false, fmt.Errorf("field %s: many_to_many requires join_table and references", name)
	}
	return rel, true, nil
}

func typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return typeToString(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + typeToString(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + typeToString(t.Elt)
		}
		return fmt.Sprintf("[%s]%s", typeToString(t.Len), typeToString(t.Elt))
	case *ast.BasicLit:
		return t.Value
	default:
		return fmt.Sprintf("%T", expr)
	}
}
