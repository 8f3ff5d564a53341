package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// CourseRepo reads the course catalog.
type CourseRepo struct {
	db *sql.DB
}

func NewCourseRepo(db *sql.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

// GetByID returns a course of the given store or ErrNotFound.
func (r *CourseRepo) GetByID(ctx context.Context, storeID, id int64) (model.Course, error) {
	const q = "SELECT id, name, price, mins, storeid FROM Course WHERE id = ? AND storeid = ?"
	var c model.Course
	err := r.db.QueryRowContext(ctx, q, id, storeID).Scan(&c.ID, &c.Name, &c.Price, &c.Minutes, &c.StoreID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Course{}, ErrNotFound
	}
	return c, err
}

// ListByStore returns the catalog of a store ordered by id.
func (r *CourseRepo) ListByStore(ctx context.Context, storeID int64) ([]model.Course, error) {
	const q = "SELECT id, name, price, mins, storeid FROM Course WHERE storeid = ? ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Price, &c.Minutes, &c.StoreID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
