package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var sqlKeyword = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with|create|alter)\b`)

type violation struct {
	pos     token.Position
	name    string
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.pos.Filename, v.pos.Line, v.message, v.name)
}

type linter struct {
	fset       *token.FileSet
	seen       map[uuid.UUID]string
	queries    int
	violations []violation
}

func newLinter() *linter {
	return &linter{fset: token.NewFileSet(), seen: map[uuid.UUID]string{}}
}

func (l *linter) lintFile(path string) error {
	file, err := parser.ParseFile(l.fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return err
	}
	l.lintAST(file)
	return nil
}

func (l *linter) lintSource(name, src string) error {
	file, err := parser.ParseFile(l.fset, name, src, parser.SkipObjectResolution)
	if err != nil {
		return err
	}
	l.lintAST(file)
	return nil
}

func (l *linter) lintAST(file *ast.File) {
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range spec.Values {
			lit, ok := value.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			raw, err := unquote(lit.Value)
			if err != nil || !sqlKeyword.MatchString(raw) {
				continue
			}
			name := "_"
			if i < len(spec.Names) {
				name = spec.Names[i].Name
			}
			l.check(l.fset.Position(lit.Pos()), name, raw)
		}
		return true
	})
}

func (l *linter) check(pos token.Position, name, query string) {
	l.queries++
	marker, ok := strings.CutPrefix(firstLine(query), "--sql ")
	if !ok {
		l.report(pos, name, "missing --sql <uuid> marker")
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(marker))
	if err != nil || strings.TrimSpace(marker) != id.String() {
		l.report(pos, name, "marker is not a lowercase uuid")
		return
	}
	if prev, dup := l.seen[id]; dup {
		l.report(pos, name, "marker already used by "+prev)
		return
	}
	l.seen[id] = name
}

func (l *linter) report(pos token.Position, name, msg string) {
	l.violations = append(l.violations, violation{pos: pos, name: name, message: msg})
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) >= 2 && v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
