package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/jeopardy/internal/models"
)

// Repository stores categories fetched from the trivia source
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS clues (
			category_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			PRIMARY KEY (category_id, position),
			FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_fetched ON categories(fetched_at)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// GetCategory returns a stored category with its clues in original order
func (r *Repository) GetCategory(ctx context.Context, id int) (*models.RawCategory, error) {
	var cat models.RawCategory
	var fetchedAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, fetched_at FROM categories WHERE id = ?`, id,
	).Scan(&cat.ID, &cat.Title, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	cat.FetchedAt = time.Unix(fetchedAt, 0)

	rows, err := r.db.QueryContext(ctx,
		`SELECT question, answer FROM clues WHERE category_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var clue models.RawClue
		if err := rows.Scan(&clue.Question, &clue.Answer); err != nil {
			return nil, err
		}
		cat.Clues = append(cat.Clues, clue)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// SaveCategory replaces the stored copy of a category and its clues
func (r *Repository) SaveCategory(ctx context.Context, cat models.RawCategory) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fetchedAt := cat.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO categories (id, title, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, fetched_at = excluded.fetched_at
	`, cat.ID, cat.Title, fetchedAt.Unix()); err != nil {
		return fmt.Errorf("upsert category %d: %w", cat.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM clues WHERE category_id = ?`, cat.ID); err != nil {
		return fmt.Errorf("clear clues of category %d: %w", cat.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO clues (category_id, position, question, answer) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, clue := range cat.Clues {
		if _, err := stmt.ExecContext(ctx, cat.ID, i, clue.Question, clue.Answer); err != nil {
			return fmt.Errorf("insert clue %d of category %d: %w", i, cat.ID, err)
		}
	}

	return tx.Commit()
}

// Stats returns how many categories and clues are stored
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&s.Categories); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clues`).Scan(&s.Clues); err != nil {
		return nil, err
	}
	return &s, nil
}

// ClearCategories deletes every stored category and returns how many were removed
func (r *Repository) ClearCategories(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteCategoriesFetchedBefore removes categories older than cutoff
func (r *Repository) DeleteCategoriesFetchedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE fetched_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
