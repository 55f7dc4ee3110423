// Package resultsdb archives runs and their result records in a SQLite
// database so that past analyses can be queried without re-running the
// inference. The schema is managed with embedded golang-migrate migrations.
package resultsdb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/constava/internal/results"
	"github.com/banshee-data/constava/internal/version"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the archive database.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the archive at path and applies any pending
// migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// MigrateUp applies all pending migrations from the embedded sources.
// Returns nil when the schema is already current.
func (db *DB) MigrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	// Note: We don't close m here because it would close the underlying DB
	// connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Run is one archived analysis.
type Run struct {
	ID         string
	CreatedAt  time.Time
	ModelKind  string
	Bandwidth  float64
	GridPoints int
	Seed       sql.NullInt64
}

// InsertRun records run metadata and returns the new run's id.
func (db *DB) InsertRun(modelKind string, bandwidth float64, gridPoints int, seed int64, seeded bool) (string, error) {
	id := uuid.NewString()
	seedVal := sql.NullInt64{Int64: seed, Valid: seeded}
	_, err := db.Exec(`
		INSERT INTO runs (run_id, model_kind, bandwidth, grid_points, seed, tool_version)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, modelKind, bandwidth, gridPoints, seedVal, version.Version)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// InsertResults archives every entry of every set under the given run.
func (db *DB) InsertResults(runID string, sets []*results.Set) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("insert results: %w", err)
	}
	defer tx.Rollback()

	recStmt, err := tx.Prepare(`
		INSERT INTO records (run_id, method, series_index, res_index, res_name, variability, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("insert results: %w", err)
	}
	defer recStmt.Close()

	propStmt, err := tx.Prepare(`
		INSERT INTO propensities (record_id, state, propensity) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("insert results: %w", err)
	}
	defer propStmt.Close()

	for _, set := range sets {
		for _, e := range set.Entries {
			seriesIdx := sql.NullInt64{Int64: int64(e.SeriesIndex), Valid: e.SeriesIndex >= 0}
			variability := sql.NullFloat64{Float64: e.Variability, Valid: e.Status == results.StatusOK}
			res, err := recStmt.Exec(runID, set.Method, seriesIdx, e.ResIndex, e.ResName, variability, string(e.Status))
			if err != nil {
				return fmt.Errorf("insert record: %w", err)
			}
			if e.Status != results.StatusOK {
				continue
			}
			recordID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("insert record: %w", err)
			}
			for i, p := range e.Propensities {
				if _, err := propStmt.Exec(recordID, string(set.StateLabels[i]), p); err != nil {
					return fmt.Errorf("insert propensity: %w", err)
				}
			}
		}
	}
	return tx.Commit()
}

// Record is one archived entry with its propensities.
type Record struct {
	Method       string
	SeriesIndex  sql.NullInt64
	ResIndex     int
	ResName      string
	Variability  sql.NullFloat64
	Status       string
	Propensities map[string]float64
}

// RunRecords loads all records of a run in insertion order.
func (db *DB) RunRecords(runID string) ([]Record, error) {
	rows, err := db.Query(`
		SELECT record_id, method, series_index, res_index, res_name, variability, status
		FROM records WHERE run_id = ? ORDER BY record_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	var ids []int64
	for rows.Next() {
		var id int64
		var r Record
		if err := rows.Scan(&id, &r.Method, &r.SeriesIndex, &r.ResIndex, &r.ResName, &r.Variability, &r.Status); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Propensities = make(map[string]float64)
		records = append(records, r)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		props, err := db.Query(`SELECT state, propensity FROM propensities WHERE record_id = ?`, id)
		if err != nil {
			return nil, fmt.Errorf("query propensities: %w", err)
		}
		for props.Next() {
			var state string
			var p float64
			if err := props.Scan(&state, &p); err != nil {
				props.Close()
				return nil, fmt.Errorf("scan propensity: %w", err)
			}
			records[i].Propensities[state] = p
		}
		if err := props.Err(); err != nil {
			props.Close()
			return nil, err
		}
		props.Close()
	}
	return records, nil
}
