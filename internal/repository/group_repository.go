package repository

import (
	"context"
	"database/sql"
	"errors"
)

// GroupRepo records the LINE groups the bot was invited to.
type GroupRepo struct {
	db *sql.DB
}

func NewGroupRepo(db *sql.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// Register stores groupID once; re-joining the same group is a no-op.
func (r *GroupRepo) Register(ctx context.Context, groupID string) error {
	const q = "INSERT INTO GroupRoom (groupId) SELECT ? FROM DUAL WHERE NOT EXISTS (SELECT 1 FROM GroupRoom WHERE groupId = ?)"
	_, err := r.db.ExecContext(ctx, q, groupID, groupID)
	return err
}

// First returns the earliest registered group, the broadcast target.
func (r *GroupRepo) First(ctx context.Context) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, "SELECT groupId FROM GroupRoom ORDER BY id LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}
