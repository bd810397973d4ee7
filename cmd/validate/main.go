// Command validate checks a persisted SQLite ocean_metrics table and the local
// dataset cache against the invariants every pipeline run must uphold.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -sqlite data/ocean.db \
//	  -cache-dir data/cache
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/couchcryptid/ocean-health-etl/internal/adapter/sqlite"
)

// cacheName matches the cache naming scheme of dated and undated resources.
var cacheName = regexp.MustCompile(`^(?:[A-Z0-9]+_\d{8}|PH_latest)\.[a-z.]+$`)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dbPath := flag.String("sqlite", "data/ocean.db", "path to the SQLite database")
	cacheDir := flag.String("cache-dir", "", "cache directory to check (optional)")
	flag.Parse()

	if *dbPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dbPath, *cacheDir, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(dbPath, cacheDir string, out io.Writer) int {
	fmt.Fprintln(out, "=== Ocean Metrics Integrity Validation ===")
	fmt.Fprintln(out)

	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}
	store, err := sqlite.Open(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		fmt.Fprintf(out, "FATAL: open database: %v\n", err)
		return 1
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := store.Count(ctx)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{validateTable(ctx, store, rows)}
	if cacheDir != "" {
		phases = append(phases, validateCache(cacheDir))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d persisted rows\n", rows)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func validateTable(ctx context.Context, store *sqlite.Store, rows int) *phase {
	p := &phase{name: "Persisted table invariants"}
	if rows == 0 {
		p.errorf("ocean_metrics is empty")
		return p
	}
	violations, err := store.Validate(ctx)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	for _, v := range violations {
		p.errorf("%s: %d rows", v.Check, v.Count)
	}
	return p
}

func validateCache(dir string) *phase {
	p := &phase{name: "Cache naming and completeness"}
	entries, err := os.ReadDir(dir)
	if err != nil {
		p.errorf("read cache dir: %v", err)
		return p
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) == ".part" {
			p.errorf("partial download left behind: %s", name)
			continue
		}
		if !cacheName.MatchString(name) {
			p.errorf("unexpected file: %s", name)
			continue
		}
		info, err := e.Info()
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			p.errorf("empty cache file: %s", name)
		}
	}
	return p
}
