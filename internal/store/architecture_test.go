package store

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyStorePackageImportsSQLDrivers ensures the database drivers stay
// behind the RecordStore interface. Other packages must not import the
// sqlite or pgx drivers directly.
func TestOnlyStorePackageImportsSQLDrivers(t *testing.T) {
	driverPrefixes := []string{"modernc.org/sqlite", "github.com/jackc/pgx"}
	const allowedPkg = "medflow/internal/store"

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "medflow/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		if strings.HasPrefix(pkg.PkgPath, allowedPkg) {
			continue
		}
		for importPath := range pkg.Imports {
			for _, prefix := range driverPrefixes {
				if importPath == prefix || strings.HasPrefix(importPath, prefix+"/") {
					seen[pkg.PkgPath+": "+importPath] = struct{}{}
				}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden database driver import: %s", v)
		}
		t.Fatalf("found %d forbidden driver imports", len(violations))
	}
}
