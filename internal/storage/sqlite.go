// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bookwhisperer/bookwhisperer/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		title TEXT,
		author TEXT,
		topic TEXT
	);

	CREATE TABLE IF NOT EXISTS recommendations (
		id TEXT PRIMARY KEY,
		rec_date TEXT NOT NULL,
		book_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recommendations_book_id ON recommendations(book_id);
	CREATE INDEX IF NOT EXISTS idx_recommendations_rec_date ON recommendations(rec_date);
	`
	_, err := db.Exec(schema)
	return err
}

// CachedBookIDs returns the set of book IDs in the cached snapshot.
func (s *SQLiteStorage) CachedBookIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM books`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// LoadBooks returns the cached snapshot in insertion order.
func (s *SQLiteStorage) LoadBooks(ctx context.Context) ([]*models.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, author, topic FROM books ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*models.Book
	for rows.Next() {
		var book models.Book
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.Topic); err != nil {
			return nil, err
		}
		books = append(books, &book)
	}
	return books, rows.Err()
}

// ReplaceBooks replaces the entire cached snapshot in one transaction.
func (s *SQLiteStorage) ReplaceBooks(ctx context.Context, books []*models.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO books (id, title, author, topic) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, book := range books {
		if _, err := stmt.ExecContext(ctx, book.ID, book.Title, book.Author, book.Topic); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountBooks returns the number of cached books.
func (s *SQLiteStorage) CountBooks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count)
	return count, err
}

// PastRecommendationIDs returns the set of book IDs ever recommended.
func (s *SQLiteStorage) PastRecommendationIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT book_id FROM recommendations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// RecordRecommendations appends the chosen book IDs to the history,
// keyed by recDate, in one transaction.
func (s *SQLiteStorage) RecordRecommendations(ctx context.Context, recDate string, bookIDs []string) error {
	if len(bookIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO recommendations (id, rec_date, book_id) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, bookID := range bookIDs {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), recDate, bookID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRecommendations returns history entries, most recent dates first.
// A non-positive limit returns everything.
func (s *SQLiteStorage) ListRecommendations(ctx context.Context, limit int) ([]*models.Recommendation, error) {
	query := `SELECT id, rec_date, book_id FROM recommendations ORDER BY rec_date DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		var rec models.Recommendation
		if err := rows.Scan(&rec.ID, &rec.RecDate, &rec.BookID); err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// CountRecommendations returns the number of history entries.
func (s *SQLiteStorage) CountRecommendations(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recommendations`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// DiskUsageBytes returns the size of the database file at path, or 0 if
// it does not exist yet.
func DiskUsageBytes(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return info.Size(), nil
}
