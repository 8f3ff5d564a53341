package repository

import (
	"context"
	"database/sql"
	"errors"
)

// LanguageRepo stores the chat language of each LINE user (`line_users`).
type LanguageRepo struct {
	db *sql.DB
}

func NewLanguageRepo(db *sql.DB) *LanguageRepo {
	return &LanguageRepo{db: db}
}

// Upsert writes exactly one row for lineID.
func (r *LanguageRepo) Upsert(ctx context.Context, lineID, language string) error {
	const q = "INSERT INTO line_users (line_id, language) VALUES (?, ?) ON DUPLICATE KEY UPDATE language = VALUES(language)"
	_, err := r.db.ExecContext(ctx, q, lineID, language)
	return err
}

// Get returns the stored language code of lineID.
func (r *LanguageRepo) Get(ctx context.Context, lineID string) (string, error) {
	var lang string
	err := r.db.QueryRowContext(ctx, "SELECT language FROM line_users WHERE line_id = ?", lineID).Scan(&lang)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return lang, err
}
