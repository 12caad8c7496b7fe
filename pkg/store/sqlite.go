package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/praetorian-inc/testweave/pkg/types"
)

// timeLayout is how timestamps are stored; it sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using SQLite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	// Initialize schema
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveScan stores a scan and its occurrences in one transaction. Saving the
// same ID again replaces it.
func (s *SQLiteStore) SaveScan(result *types.ScanResult) (err error) {
	if result == nil || result.ID == "" {
		return fmt.Errorf("scan result has no ID")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec("DELETE FROM occurrences WHERE scan_id = ?", result.ID); err != nil {
		return fmt.Errorf("replacing occurrences: %w", err)
	}
	if _, err = tx.Exec("DELETE FROM scans WHERE id = ?", result.ID); err != nil {
		return fmt.Errorf("replacing scan: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO scans (id, workspace, cycle, started_at, finished_at, documents)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		result.ID,
		result.Workspace,
		result.Cycle,
		result.StartedAt.UTC().Format(timeLayout),
		result.FinishedAt.UTC().Format(timeLayout),
		result.Documents,
	)
	if err != nil {
		return fmt.Errorf("inserting scan: %w", err)
	}

	if result.Inventory != nil {
		var stmt *sql.Stmt
		stmt, err = tx.Prepare(`
			INSERT INTO occurrences (scan_id, testcase_id, kind, title, path, source, document_id,
				offset_start, offset_end, start_line, start_column, end_line, end_column)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing occurrence insert: %w", err)
		}
		defer stmt.Close()

		for _, o := range result.Inventory.Occurrences() {
			loc := o.Location
			_, err = stmt.Exec(
				result.ID,
				o.ID,
				string(o.Kind),
				o.Title,
				o.Path,
				o.Source,
				o.DocumentID,
				loc.Offset.Start,
				loc.Offset.End,
				loc.Source.Start.Line,
				loc.Source.Start.Column,
				loc.Source.End.Line,
				loc.Source.End.Column,
			)
			if err != nil {
				return fmt.Errorf("inserting occurrence: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing scan: %w", err)
	}
	return nil
}

// LatestScan returns the most recently saved scan.
func (s *SQLiteStore) LatestScan(cycle string) (*types.ScanResult, error) {
	query := "SELECT id, workspace, cycle, started_at, finished_at, documents FROM scans"
	var args []any
	if cycle != "" {
		query += " WHERE cycle = ?"
		args = append(args, cycle)
	}
	query += " ORDER BY seq DESC LIMIT 1"

	result, err := s.scanRow(s.db.QueryRow(query, args...))
	if err != nil {
		return nil, fmt.Errorf("latest scan: %w", err)
	}
	return result, nil
}

// GetScan returns a scan by ID.
func (s *SQLiteStore) GetScan(id string) (*types.ScanResult, error) {
	result, err := s.scanRow(s.db.QueryRow(
		"SELECT id, workspace, cycle, started_at, finished_at, documents FROM scans WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", id, err)
	}
	return result, nil
}

// scanRow reads one scans row and rebuilds its inventory.
func (s *SQLiteStore) scanRow(row *sql.Row) (*types.ScanResult, error) {
	var (
		r                 types.ScanResult
		started, finished string
	)
	err := row.Scan(&r.ID, &r.Workspace, &r.Cycle, &started, &finished, &r.Documents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning scan: %w", err)
	}

	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("parsing finished_at: %w", err)
	}

	occs, err := s.occurrences(r.ID)
	if err != nil {
		return nil, err
	}
	r.Inventory = types.NewInventory(occs)
	return &r, nil
}

func (s *SQLiteStore) occurrences(scanID string) ([]types.Occurrence, error) {
	rows, err := s.db.Query(`
		SELECT testcase_id, kind, title, path, source, document_id,
			offset_start, offset_end, start_line, start_column, end_line, end_column
		FROM occurrences
		WHERE scan_id = ?
		ORDER BY id
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying occurrences: %w", err)
	}
	defer rows.Close()

	var occs []types.Occurrence
	for rows.Next() {
		var (
			o    types.Occurrence
			kind string
			loc  = &o.Location
		)
		err := rows.Scan(
			&o.ID,
			&kind,
			&o.Title,
			&o.Path,
			&o.Source,
			&o.DocumentID,
			&loc.Offset.Start,
			&loc.Offset.End,
			&loc.Source.Start.Line,
			&loc.Source.Start.Column,
			&loc.Source.End.Line,
			&loc.Source.End.Column,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning occurrence: %w", err)
		}
		o.Kind = types.OccurrenceKind(kind)
		occs = append(occs, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating occurrences: %w", err)
	}
	return occs, nil
}

// CreateCycle records a new cycle.
func (s *SQLiteStore) CreateCycle(name string) (*types.Cycle, error) {
	if err := ValidateCycleName(name); err != nil {
		return nil, err
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM cycles WHERE name = ?", name).Scan(&count); err != nil {
		return nil, fmt.Errorf("checking cycle existence: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %s", ErrCycleExists, name)
	}

	c := &types.Cycle{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	_, err := s.db.Exec("INSERT INTO cycles (id, name, created_at) VALUES (?, ?, ?)",
		c.ID, c.Name, c.CreatedAt.Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: %s", ErrCycleExists, name)
		}
		return nil, fmt.Errorf("inserting cycle: %w", err)
	}
	return c, nil
}

// ListCycles returns all cycles, oldest first.
func (s *SQLiteStore) ListCycles() ([]*types.Cycle, error) {
	rows, err := s.db.Query("SELECT id, name, created_at FROM cycles ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying cycles: %w", err)
	}
	defer rows.Close()

	cycles := []*types.Cycle{}
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cycles: %w", err)
	}
	return cycles, nil
}

// GetCycle returns a cycle by name.
func (s *SQLiteStore) GetCycle(name string) (*types.Cycle, error) {
	c, err := scanCycle(s.db.QueryRow("SELECT id, name, created_at FROM cycles WHERE name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cycle %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCycle(row rowScanner) (*types.Cycle, error) {
	var (
		c       types.Cycle
		created string
	)
	if err := row.Scan(&c.ID, &c.Name, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning cycle: %w", err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	c.CreatedAt = t
	return &c, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
