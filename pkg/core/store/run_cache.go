package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fairvalue/pkg/core/valuation"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunCache stores completed valuation runs.
// DB (primary) when a pool is configured, file system otherwise.
type RunCache struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewRunCache creates a run cache. If pool is nil it falls back to a
// file-based cache in dir; an empty dir defaults to .cache/valuation/runs.
func NewRunCache(pool *pgxpool.Pool, dir string) *RunCache {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "valuation", "runs")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("[WARNING] Check RunCache dir: %v\n", err)
		}
	}
	return &RunCache{pool: pool, fileDir: dir}
}

// Save persists one valuation run under its run ID.
func (c *RunCache) Save(ctx context.Context, run *valuation.ValuationRun) error {
	dataJSON, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	if c.pool != nil {
		query := `
			INSERT INTO valuation_runs (
				run_id, ticker, mos_percent, classification, data, created_at
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (run_id)
			DO UPDATE SET
				classification = EXCLUDED.classification,
				data = EXCLUDED.data
		`
		_, err = c.pool.Exec(ctx, query,
			run.RunID, run.Ticker, run.MoSPercent, run.Classification, dataJSON, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save run to db: %w", err)
		}
		return nil
	}

	if c.fileDir != "" {
		path := c.runPath(run.Ticker, run.RunID)
		if err := os.WriteFile(path, dataJSON, 0644); err != nil {
			return fmt.Errorf("failed to save run to file cache: %w", err)
		}
	}
	return nil
}

// GetLatest returns the most recent run for a ticker, or nil when none is
// stored yet.
func (c *RunCache) GetLatest(ctx context.Context, ticker string) (*valuation.ValuationRun, error) {
	if c.pool != nil {
		query := `
			SELECT data
			FROM valuation_runs
			WHERE ticker = $1
			ORDER BY created_at DESC
			LIMIT 1
		`
		var dataJSON []byte
		err := c.pool.QueryRow(ctx, query, strings.ToUpper(ticker)).Scan(&dataJSON)
		if err != nil {
			return nil, nil // No stored run
		}
		var run valuation.ValuationRun
		if err := json.Unmarshal(dataJSON, &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored run: %w", err)
		}
		return &run, nil
	}

	if c.fileDir != "" {
		return c.scanLatest(ticker)
	}
	return nil, nil
}

// Exists reports whether any run is stored for a ticker.
func (c *RunCache) Exists(ctx context.Context, ticker string) bool {
	run, err := c.GetLatest(ctx, ticker)
	return err == nil && run != nil
}

// Internal file helpers

func (c *RunCache) runPath(ticker, runID string) string {
	safe := strings.ToUpper(strings.ReplaceAll(ticker, string(filepath.Separator), "_"))
	return filepath.Join(c.fileDir, fmt.Sprintf("%s_%s.json", safe, runID))
}

func (c *RunCache) scanLatest(ticker string) (*valuation.ValuationRun, error) {
	entries, err := os.ReadDir(c.fileDir)
	if err != nil {
		return nil, nil
	}

	prefix := strings.ToUpper(ticker) + "_"
	var candidates []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) && filepath.Ext(e.Name()) == ".json" {
			candidates = append(candidates, e.Name())
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var latest *valuation.ValuationRun
	var latestAt time.Time
	sort.Strings(candidates)
	for _, name := range candidates {
		bytes, err := os.ReadFile(filepath.Join(c.fileDir, name))
		if err != nil {
			continue
		}
		var run valuation.ValuationRun
		if err := json.Unmarshal(bytes, &run); err != nil {
			continue
		}
		if latest == nil || run.CreatedAt.After(latestAt) {
			r := run
			latest = &r
			latestAt = run.CreatedAt
		}
	}
	return latest, nil
}
