package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// MemberRepo manages customer member records.  Several stores may share one
// member database; the store id column then holds the shared memdb id.
type MemberRepo struct {
	db *sql.DB
}

func NewMemberRepo(db *sql.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

// AddIfAbsent inserts a member unless memberID already exists in the
// member database.  It reports whether a row was inserted.
func (r *MemberRepo) AddIfAbsent(ctx context.Context, memDB int64, memberID, name string) (bool, error) {
	var cnt int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member WHERE storeid = ? AND memberid = ?", memDB, memberID).Scan(&cnt); err != nil {
		return false, err
	}
	if cnt > 0 {
		return false, nil
	}
	if _, err := r.db.ExecContext(ctx, "INSERT INTO member (storeid, memberid, name) VALUES (?, ?, ?)", memDB, memberID, name); err != nil {
		return false, err
	}
	return true, nil
}

// Latest returns the highest member id of a member database, "0" when empty.
func (r *MemberRepo) Latest(ctx context.Context, memDB int64) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, "SELECT memberid FROM member WHERE storeid = ? ORDER BY memberid DESC LIMIT 1", memDB).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "0", nil
	}
	return id, err
}

func (r *MemberRepo) List(ctx context.Context, memDB int64) ([]model.Member, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, storeid, memberid, name FROM member WHERE storeid = ? ORDER BY memberid", memDB)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.StoreID, &m.MemberID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
