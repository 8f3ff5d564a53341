package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// StoreRepo reads the `Store` table.  Store rows are provisioned out of band.
type StoreRepo struct {
	db *sql.DB
}

func NewStoreRepo(db *sql.DB) *StoreRepo {
	return &StoreRepo{db: db}
}

// GetByKey resolves a store license key.
func (r *StoreRepo) GetByKey(ctx context.Context, key string) (model.Store, error) {
	const q = "SELECT id, name, `key`, memdb, mainstore FROM Store WHERE `key` = ?"
	return r.one(ctx, q, key)
}

func (r *StoreRepo) GetByID(ctx context.Context, id int64) (model.Store, error) {
	const q = "SELECT id, name, `key`, memdb, mainstore FROM Store WHERE id = ?"
	return r.one(ctx, q, id)
}

func (r *StoreRepo) one(ctx context.Context, q string, arg interface{}) (model.Store, error) {
	var s model.Store
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&s.ID, &s.Name, &s.Key, &s.MemberDB, &s.MainStore)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Store{}, ErrNotFound
	}
	return s, err
}

// Branches returns the ids of every store aggregated under mainID.
func (r *StoreRepo) Branches(ctx context.Context, mainID int64) ([]int64, error) {
	const q = "SELECT id FROM Store WHERE mainstore = ? ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, mainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
