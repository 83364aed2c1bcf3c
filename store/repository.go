// Package store persists ranked recommendations in the user_project_similarity table.
package store

import (
	"context"
	"fmt"

	"github.com/botirk38/projectmatch/types"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS user_project_similarity (
	user_id               TEXT NOT NULL,
	project_id            TEXT NOT NULL,
	combined_score        REAL NOT NULL,
	semantic_similarity   REAL NOT NULL,
	category_similarity   REAL NOT NULL,
	tech_similarity       REAL NOT NULL,
	popularity_similarity REAL NOT NULL,
	position              INTEGER NOT NULL,
	PRIMARY KEY (user_id, project_id)
);
CREATE INDEX IF NOT EXISTS idx_ups_user_position ON user_project_similarity (user_id, position);
`

const insertRow = `
INSERT INTO user_project_similarity (
	user_id, project_id, combined_score, semantic_similarity,
	category_similarity, tech_similarity, popularity_similarity, position
) VALUES (
	:user_id, :project_id, :combined_score, :semantic_similarity,
	:category_similarity, :tech_similarity, :popularity_similarity, :position
)`

// Repository reads and replaces per-user recommendation rows.
type Repository struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at path and ensures the schema exists.
// ":memory:" gives a private in-process database.
func Open(ctx context.Context, path string) (*Repository, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	// SQLite serializes writers; one connection also keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	repo, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// New wraps an existing connection and ensures the schema exists.
func New(ctx context.Context, db *sqlx.DB) (*Repository, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create result schema: %w", err)
	}
	return &Repository{db: db}, nil
}

type rankedRow struct {
	types.UserProjectSimilarity
	Position int `db:"position"`
}

// ReplaceForUser deletes every stored row of userID and inserts rows in one
// transaction, keeping their order. An empty rows clears the user.
func (r *Repository) ReplaceForUser(ctx context.Context, userID string, rows []types.UserProjectSimilarity) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace for user %s: %w", userID, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_project_similarity WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear rows for user %s: %w", userID, err)
	}

	for i, row := range rows {
		if row.UserID != userID {
			return fmt.Errorf("row %d belongs to user %s, not %s", i, row.UserID, userID)
		}
		if _, err := tx.NamedExecContext(ctx, insertRow, rankedRow{UserProjectSimilarity: row, Position: i}); err != nil {
			return fmt.Errorf("insert row for user %s project %s: %w", userID, row.ProjectID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace for user %s: %w", userID, err)
	}
	return nil
}

// ListForUser returns the stored rows of userID in ranked order.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]types.UserProjectSimilarity, error) {
	rows := []types.UserProjectSimilarity{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT user_id, project_id, combined_score, semantic_similarity,
		       category_similarity, tech_similarity, popularity_similarity
		FROM user_project_similarity
		WHERE user_id = ?
		ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("list rows for user %s: %w", userID, err)
	}
	return rows, nil
}

// CountUsers returns how many users have stored rows.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(DISTINCT user_id) FROM user_project_similarity`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}
