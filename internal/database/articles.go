package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

const articleColumns = `slug, url, path, title, description, date, author, category, tags,
	image, featured, text_content, word_count, reading_minutes, indexed_at`

// ReplaceArticles swaps the whole index for articles in one transaction.
func (db *DB) ReplaceArticles(articles []Article) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM articles"); err != nil {
		return fmt.Errorf("clearing articles: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO articles (slug, url, path, title, description, date, author,
		category, tags, image, featured, text_content, word_count, reading_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range articles {
		tags := a.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, _ := json.Marshal(tags)
		var image *string
		if a.Image != "" {
			image = &a.Image
		}
		if _, err := stmt.Exec(a.Slug, a.URL, a.Path, a.Title, a.Description, a.Date, a.Author,
			a.Category, string(tagsJSON), image, boolToInt(a.Featured), a.TextContent,
			a.WordCount, a.ReadingMinutes); err != nil {
			return fmt.Errorf("inserting %s: %w", a.Slug, err)
		}
	}
	return tx.Commit()
}

// GetArticle returns the indexed article with slug, or nil if absent.
func (db *DB) GetArticle(slug string) (*Article, error) {
	row := db.conn.QueryRow("SELECT "+articleColumns+" FROM articles WHERE slug = ?", slug)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// SearchArticles matches term against title, description and body text,
// newest first. A blank term lists everything. limit <= 0 means no limit.
func (db *DB) SearchArticles(term string, limit int) ([]Article, error) {
	query := "SELECT " + articleColumns + " FROM articles"
	var args []any
	if term = strings.TrimSpace(term); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		query += ` WHERE lower(title) LIKE ? ESCAPE '\'
			OR lower(description) LIKE ? ESCAPE '\'
			OR lower(text_content) LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern, pattern)
	}
	query += " ORDER BY date DESC, slug"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// CountArticles returns the number of indexed articles.
func (db *DB) CountArticles() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM articles").Scan(&n)
	return n, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInto(s scanner) (*Article, error) {
	var a Article
	var tagsJSON string
	var image, text *string
	var featured int
	if err := s.Scan(&a.Slug, &a.URL, &a.Path, &a.Title, &a.Description, &a.Date, &a.Author,
		&a.Category, &tagsJSON, &image, &featured, &text, &a.WordCount, &a.ReadingMinutes,
		&a.IndexedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &a.Tags); err != nil || a.Tags == nil {
		a.Tags = []string{}
	}
	if image != nil {
		a.Image = *image
	}
	if text != nil {
		a.TextContent = *text
	}
	a.Featured = featured != 0
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	articles := []Article{}
	for rows.Next() {
		a, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func scanArticle(row *sql.Row) (*Article, error) {
	return scanInto(row)
}
