package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS generation_runs (
    run_id        TEXT PRIMARY KEY,
    created_at    TEXT NOT NULL,
    corpus_path   TEXT NOT NULL,
    model_order   INTEGER NOT NULL,
    seed_text     TEXT NOT NULL,
    target_length INTEGER NOT NULL,
    mode          TEXT NOT NULL,
    fixed_seed    INTEGER NOT NULL,
    output_length INTEGER NOT NULL,
    stop_reason   TEXT NOT NULL,
    duration_ms   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generation_runs_created_at ON generation_runs(created_at);
`

// createdAtLayout is fixed-width so that created_at sorts as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one recorded generation.
type Run struct {
	ID           string
	CreatedAt    time.Time
	CorpusPath   string
	Order        int
	SeedText     string
	TargetLength int
	Mode         string
	FixedSeed    uint64
	OutputLength int
	StopReason   string
	Duration     time.Duration
}

// History records generation runs in SQLite. It never stores trained models.
type History struct {
	db     *sql.DB
	logger *slog.Logger
}

func setupHistorySchema(db *sql.DB) error {
	_, err := db.Exec(historySchema)
	return err
}

// OpenHistory opens or creates the history database at path.
func OpenHistory(path string, logger *slog.Logger) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := initDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err = setupHistorySchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup history schema: %w", err)
	}
	return &History{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record stores a run, assigning it an ID and timestamp if it has none.
func (h *History) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO generation_runs (run_id, created_at, corpus_path, model_order, seed_text, target_length, mode, fixed_seed, output_length, stop_reason, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(createdAtLayout),
		run.CorpusPath,
		run.Order,
		run.SeedText,
		run.TargetLength,
		run.Mode,
		int64(run.FixedSeed),
		run.OutputLength,
		run.StopReason,
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return run, fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}

	h.logger.DebugContext(ctx, "Run recorded",
		slog.String("run_id", run.ID),
		slog.String("stop_reason", run.StopReason),
	)
	return run, nil
}

// List returns up to limit runs, newest first.
func (h *History) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT run_id, created_at, corpus_path, model_order, seed_text, target_length, mode, fixed_seed, output_length, stop_reason, duration_ms
		FROM generation_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			createdAt  string
			fixedSeed  int64
			durationMs int64
		)
		if err = rows.Scan(&run.ID, &createdAt, &run.CorpusPath, &run.Order, &run.SeedText, &run.TargetLength,
			&run.Mode, &fixedSeed, &run.OutputLength, &run.StopReason, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if run.CreatedAt, err = time.Parse(createdAtLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at for run %s: %w", run.ID, err)
		}
		run.FixedSeed = uint64(fixedSeed)
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}
