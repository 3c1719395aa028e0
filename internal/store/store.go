// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists research batches: a timestamped output file
// per run (the stable downstream contract) and a SQLite archive for
// listing and re-reading past runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

const dbFile = "research.db"

// defaultMaxResults caps archive listings when no limit is configured.
const defaultMaxResults = 20

// Store manages the batch archive SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the archive database at
// cfg.ArchiveDir/research.db, creating the schema if needed.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dir := cfg.ArchiveDir
	if dir == "" {
		dir = filepath.Join("outputs", "archive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			company_name TEXT NOT NULL,
			general_objective TEXT NOT NULL,
			created_at TEXT NOT NULL,
			succeeded INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id INTEGER NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			sub_objective TEXT NOT NULL,
			links TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS failures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id INTEGER NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			sub_objective TEXT NOT NULL,
			error TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_batch ON results(batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_batch ON failures(batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_batches_company ON batches(company_name)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save archives one batch and returns its archive ID.
func (s *Store) Save(ctx context.Context, batch types.ResearchBatch, createdAt time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO batches (company_name, general_objective, created_at, succeeded, failed)
		 VALUES (?, ?, ?, ?, ?)`,
		batch.CompanyName, batch.GeneralObjective,
		createdAt.UTC().Format(time.RFC3339),
		len(batch.ResearchResults), len(batch.Failures),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting batch: %w", err)
	}
	batchID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading batch id: %w", err)
	}

	for i, r := range batch.ResearchResults {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO results (batch_id, position, sub_objective, links) VALUES (?, ?, ?, ?)`,
			batchID, i, r.SubObjective, encodeLinks(r.Links),
		); err != nil {
			return 0, fmt.Errorf("inserting result %d: %w", i, err)
		}
	}
	for i, f := range batch.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO failures (batch_id, position, sub_objective, error) VALUES (?, ?, ?, ?)`,
			batchID, i, f.SubObjective, f.Error,
		); err != nil {
			return 0, fmt.Errorf("inserting failure %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return batchID, nil
}

// BatchSummaryRow is one archive listing entry.
type BatchSummaryRow struct {
	ID               int64  `json:"id"`
	CompanyName      string `json:"company_name"`
	GeneralObjective string `json:"general_objective"`
	CreatedAt        string `json:"created_at"`
	Succeeded        int    `json:"succeeded"`
	Failed           int    `json:"failed"`
}

// List returns the most recent archived batches, newest first,
// optionally filtered by company name.
func (s *Store) List(ctx context.Context, company string) ([]BatchSummaryRow, error) {
	query := `SELECT id, company_name, general_objective, created_at, succeeded, failed
	          FROM batches`
	var args []any
	if company != "" {
		query += ` WHERE company_name = ?`
		args = append(args, company)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, s.maxResults)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var out []BatchSummaryRow
	for rows.Next() {
		var row BatchSummaryRow
		if err := rows.Scan(&row.ID, &row.CompanyName, &row.GeneralObjective,
			&row.CreatedAt, &row.Succeeded, &row.Failed); err != nil {
			return nil, fmt.Errorf("scanning batch row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Get reconstructs one archived batch by ID.
func (s *Store) Get(ctx context.Context, id int64) (types.ResearchBatch, error) {
	var batch types.ResearchBatch
	err := s.db.QueryRowContext(ctx,
		`SELECT company_name, general_objective FROM batches WHERE id = ?`, id,
	).Scan(&batch.CompanyName, &batch.GeneralObjective)
	if err == sql.ErrNoRows {
		return types.ResearchBatch{}, fmt.Errorf("batch %d not found", id)
	}
	if err != nil {
		return types.ResearchBatch{}, fmt.Errorf("querying batch %d: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sub_objective, links FROM results WHERE batch_id = ? ORDER BY position`, id)
	if err != nil {
		return types.ResearchBatch{}, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	batch.ResearchResults = []types.ResearchResult{}
	for rows.Next() {
		var sub, links string
		if err := rows.Scan(&sub, &links); err != nil {
			return types.ResearchBatch{}, fmt.Errorf("scanning result: %w", err)
		}
		batch.ResearchResults = append(batch.ResearchResults, types.ResearchResult{
			GeneralObjective: batch.GeneralObjective,
			SubObjective:     sub,
			Links:            decodeLinks(links),
		})
	}
	if err := rows.Err(); err != nil {
		return types.ResearchBatch{}, err
	}

	frows, err := s.db.QueryContext(ctx,
		`SELECT sub_objective, error FROM failures WHERE batch_id = ? ORDER BY position`, id)
	if err != nil {
		return types.ResearchBatch{}, fmt.Errorf("querying failures: %w", err)
	}
	defer frows.Close()

	batch.Failures = []types.Failure{}
	for frows.Next() {
		var f types.Failure
		if err := frows.Scan(&f.SubObjective, &f.Error); err != nil {
			return types.ResearchBatch{}, fmt.Errorf("scanning failure: %w", err)
		}
		batch.Failures = append(batch.Failures, f)
	}
	return batch, frows.Err()
}

// encodeLinks serializes a link list into one TEXT column.
func encodeLinks(links []string) string {
	data, _ := json.Marshal(links)
	return string(data)
}

// decodeLinks reverses encodeLinks. A corrupt column yields nil.
func decodeLinks(s string) []string {
	var links []string
	if err := json.Unmarshal([]byte(s), &links); err != nil {
		return nil
	}
	return links
}
