package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/mickamy/ormproxy/internal/gen"
	"github.com/mickamy/ormproxy/internal/naming"
)

var version = "dev"

func main() {
	source := flag.String("source", os.Getenv("GOFILE"), "Go file declaring the models (defaults to $GOFILE)")
	typeNames := flag.String("type", "", "comma-separated struct names (optional; all structs with columns if omitted)")
	tableName := flag.String("table", "", "table name (optional; only with a single -type)")
	destination := flag.String("destination", "", "output directory for a separate query package (optional)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("ormproxy", version)
		return
	}

	if *source == "" {
		log.Fatal("-source is required when GOFILE is not set (run via go:generate)")
	}

	infos, err := gen.Parse(*source)
	if err != nil {
		log.Fatalf("parse: %v", err)
	}

	selected, peers, err := selectStructs(infos, *typeNames)
	if err != nil {
		log.Fatal(err)
	}
	if *tableName != "" && len(selected) != 1 {
		log.Fatal("-table requires exactly one -type")
	}
	for _, info := range selected {
		info.TableName = inferTableName(info.Name)
		if *tableName != "" {
			info.TableName = *tableName
		}
	}

	opt := gen.RenderOption{PeerInfos: peers}
	outDir := filepath.Dir(*source)
	if *destination != "" {
		outDir = *destination
		opt.DestPkg = filepath.Base(outDir)
		opt.SourceImport, err = gen.ImportPath(filepath.Dir(*source))
		if err != nil {
			log.Fatalf("resolve import path: %v", err)
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil { //nolint:gosec // generated packages should be world-readable
			log.Fatalf("mkdir %s: %v", outDir, err)
		}
	}

	src, err := gen.RenderFile(selected, opt)
	if err != nil {
		log.Fatalf("render: %v", err)
	}

	outFile := strings.TrimSuffix(filepath.Base(*source), ".go") + "_gen.go"
	outPath := filepath.Join(outDir, outFile)

	if err := os.WriteFile(outPath, src, 0o644); err != nil { //nolint:gosec // generated code should be world-readable
		log.Fatalf("write %s: %v", outPath, err)
	}

	fmt.Printf("ormproxy: wrote %s\n", outPath)
}

// selectStructs splits infos into the structs named in typeNames and the rest.
// An empty typeNames selects everything.
func selectStructs(infos []*gen.StructInfo, typeNames string) (selected, peers []*gen.StructInfo, err error) {
	if typeNames == "" {
		return infos, nil, nil
	}
	names := strings.Split(typeNames, ",")
	for _, info := range infos {
		if slices.Contains(names, info.Name) {
			selected = append(selected, info)
		} else {
			peers = append(peers, info)
		}
	}
	for _, name := range names {
		if !slices.ContainsFunc(selected, func(info *gen.StructInfo) bool { return info.Name == name }) {
			return nil, nil, fmt.Errorf("type %s not found", name)
		}
	}
	return selected, peers, nil
}

// inferTableName converts a CamelCase type name to a snake_case plural table name.
// e.g. "User" -> "users", "UserProfile" -> "user_profiles"
func inferTableName(typeName string) string {
	return inflection.Plural(naming.CamelToSnake(typeName))
}
