// Command sqllint checks that every SQL string constant starts with a
// `--sql <uuid>` marker and that no marker is reused. SQLRunner keys its
// query logs on the marker, so a missing or duplicated one hides queries.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	sqlKeywordPattern = regexp.MustCompile(`(?i)^\s*(--[^\n]*\n\s*)*(select|insert|update|delete|with|create|alter|drop)\b`)
	uuidMarkerPattern = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

type markerUse struct {
	file string
	name string
	line int
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}
	os.Exit(run(targets, os.Stderr))
}

func run(targets []string, stderr io.Writer) int {
	violations, err := lintPaths(targets)
	if err != nil {
		fmt.Fprintf(stderr, "sqllint: %v\n", err)
		return 1
	}
	if len(violations) == 0 {
		return 0
	}
	fmt.Fprintln(stderr, "sqllint: SQL marker problems")
	for _, v := range violations {
		fmt.Fprintf(stderr, "  %s:%d %s (%s)\n", v.file, v.line, v.message, v.name)
	}
	return 1
}

func lintPaths(targets []string) ([]violation, error) {
	var violations []violation
	seen := map[string]markerUse{}

	visit := func(path string) error {
		vs, err := lintFile(path, seen)
		if err != nil {
			return err
		}
		violations = append(violations, vs...)
		return nil
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(target) == ".go" {
				if err := visit(target); err != nil {
					return nil, err
				}
			}
			continue
		}
		err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != target && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			return visit(path)
		})
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].file != violations[j].file {
			return violations[i].file < violations[j].file
		}
		return violations[i].line < violations[j].line
	})
	return violations, nil
}

func lintFile(path string, seen map[string]markerUse) ([]violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	var violations []violation
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := unquote(bl.Value)
			if err != nil || !sqlKeywordPattern.MatchString(raw) {
				continue
			}
			name := specName(vs.Names, i)
			line := fset.Position(bl.Pos()).Line
			marker := firstLine(raw)
			if !uuidMarkerPattern.MatchString(marker) {
				violations = append(violations, violation{file: path, line: line, name: name, message: "missing or invalid --sql <uuid> marker"})
				continue
			}
			if prev, dup := seen[marker]; dup {
				violations = append(violations, violation{
					file:    path,
					line:    line,
					name:    name,
					message: fmt.Sprintf("marker already used by %s at %s:%d", prev.name, prev.file, prev.line),
				})
				continue
			}
			seen[marker] = markerUse{file: path, name: name, line: line}
		}
		return true
	})
	return violations, nil
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func specName(idents []*ast.Ident, i int) string {
	if i < len(idents) && idents[i] != nil {
		return idents[i].Name
	}
	return "?"
}
