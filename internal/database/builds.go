package database

import (
	"database/sql"
	"fmt"
)

// RecordBuild stores a build summary and its diagnostics. Returns the build ID.
func (db *DB) RecordBuild(b Build, diags []BuildDiagnostic) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin build record: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO builds (content_dir, started_at, finished_at, discovered, published, skipped)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ContentDir, b.StartedAt, b.FinishedAt, b.Discovered, b.Published, b.Skipped,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting build: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, d := range diags {
		if _, err := tx.Exec(
			"INSERT INTO build_diagnostics (build_id, path, kind, message) VALUES (?, ?, ?, ?)",
			id, d.Path, d.Kind, d.Message,
		); err != nil {
			return 0, fmt.Errorf("inserting diagnostic for %s: %w", d.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetLastBuild returns the most recent build, or nil if none was recorded.
func (db *DB) GetLastBuild() (*Build, error) {
	var b Build
	err := db.conn.QueryRow(
		`SELECT id, content_dir, started_at, finished_at, discovered, published, skipped
		FROM builds ORDER BY id DESC LIMIT 1`,
	).Scan(&b.ID, &b.ContentDir, &b.StartedAt, &b.FinishedAt, &b.Discovered, &b.Published, &b.Skipped)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBuildDiagnostics returns the diagnostics of a build in recorded order.
func (db *DB) GetBuildDiagnostics(buildID int64) ([]BuildDiagnostic, error) {
	rows, err := db.conn.Query(
		"SELECT build_id, path, kind, message FROM build_diagnostics WHERE build_id = ? ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diags []BuildDiagnostic
	for rows.Next() {
		var d BuildDiagnostic
		if err := rows.Scan(&d.BuildID, &d.Path, &d.Kind, &d.Message); err != nil {
			return nil, err
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

// GetStats returns aggregate counts over the index and build history.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM articles", &s.Articles},
		{"SELECT COUNT(*) FROM articles WHERE featured = 1", &s.Featured},
		{"SELECT COUNT(DISTINCT category) FROM articles", &s.Categories},
		{"SELECT COALESCE(SUM(word_count), 0) FROM articles", &s.Words},
		{"SELECT COUNT(*) FROM builds", &s.Builds},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}
	return s, nil
}
