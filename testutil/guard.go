// Package testutil holds the import-boundary checks shared by package tests.
//
// The public contracts under pkg/ must build without internal/ packages,
// storage drivers or front-end libraries, and the coordinator must reach
// storage only through the sourceapi backends it is given.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// ImportPredicate reports whether an import path crosses a boundary.
type ImportPredicate func(path string) bool

var (
	driverPrefixes = []string{
		"database/sql",
		"github.com/jackc/pgx",
		"modernc.org/sqlite",
		"github.com/aws/aws-sdk-go-v2",
	}
	frontEndPrefixes = []string{
		"github.com/spf13/cobra",
		"github.com/spf13/pflag",
		"github.com/jedib0t/go-pretty",
		"github.com/gorilla/",
		"github.com/prometheus/client_golang/prometheus/promhttp",
	}
)

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// DriverImportForbidden matches database drivers, database/sql and the S3 SDK.
func DriverImportForbidden(path string) bool { return hasAnyPrefix(path, driverPrefixes) }

// InternalImportForbidden matches any path containing /internal/.
func InternalImportForbidden(path string) bool {
	return strings.Contains(path, "/internal/")
}

// FrontEndImportForbidden matches the CLI, table rendering and HTTP serving
// libraries used by cmd/popstudy.
func FrontEndImportForbidden(path string) bool { return hasAnyPrefix(path, frontEndPrefixes) }

// AnyOf matches a path any of preds matches.
func AnyOf(preds ...ImportPredicate) ImportPredicate {
	return func(path string) bool {
		for _, p := range preds {
			if p(path) {
				return true
			}
		}
		return false
	}
}

// AssertNoDirectImports fails t when a non-test .go file in dir imports a
// path forbidden matches. Build tags are ignored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden ImportPredicate, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	failIfViolations(t, reason, viols)
}

func directImportViolations(dir string, forbidden ImportPredicate) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range f.Imports {
			if path := strings.Trim(imp.Path.Value, `"`); forbidden(path) {
				viols = append(viols, path+" (in "+name+")")
			}
		}
	}
	sort.Strings(viols)
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalLogger, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden imports (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
