package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// MessageRepo manages the per-store board notes (`PublicMessage`).
type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Create(ctx context.Context, storeID int64, message string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO PublicMessage (message, storeid) VALUES (?, ?)", message, storeID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update replaces the text of a note.  ErrNotFound when the note does not
// belong to the store.
func (r *MessageRepo) Update(ctx context.Context, storeID, id int64, message string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE PublicMessage SET message = ? WHERE id = ? AND storeid = ?", message, id, storeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var cnt int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM PublicMessage WHERE id = ? AND storeid = ?", id, storeID).Scan(&cnt); err != nil {
		return err
	}
	if cnt == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MessageRepo) Delete(ctx context.Context, storeID, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM PublicMessage WHERE id = ? AND storeid = ?", id, storeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStore returns the notes of a store ordered by text, the order the
// daily listing prints them in.
func (r *MessageRepo) ListByStore(ctx context.Context, storeID int64) ([]model.PublicMessage, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, message, storeid FROM PublicMessage WHERE storeid = ? ORDER BY message", storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PublicMessage
	for rows.Next() {
		var m model.PublicMessage
		if err := rows.Scan(&m.ID, &m.Message, &m.StoreID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
