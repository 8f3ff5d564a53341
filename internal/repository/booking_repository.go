package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// BookingRepo encapsulates queries on the `Tasks` table.  Writes that must
// not double-book a staff member run in a transaction that first locks the
// staff row, so concurrent writers for the same staff are serialized.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

const bookingColumns = "id, customer_name, start, `end`, staff_id, staff_name, course_id, course_name, " +
	"price, master_income, company_income, mins, storeid, note, memberid, is_confirmed, usetickettype, " +
	"COALESCE(exdata, ''), COALESCE(history, ''), COALESCE(history_pri, '')"

func scanBooking(row interface{ Scan(...interface{}) error }) (model.Booking, error) {
	var (
		b         model.Booking
		confirmed int
	)
	err := row.Scan(&b.ID, &b.CustomerName, &b.Start, &b.End, &b.StaffID, &b.StaffName, &b.CourseID, &b.CourseName,
		&b.Price, &b.StaffShare, &b.CompanyShare, &b.Minutes, &b.StoreID, &b.Note, &b.MemberID, &confirmed, &b.TicketType,
		&b.ExtraData, &b.History, &b.PrivateHistory)
	if err != nil {
		return model.Booking{}, err
	}
	b.Confirmed = confirmed == 1
	return b, nil
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a booking of the given store.
func (r *BookingRepo) GetByID(ctx context.Context, storeID, id int64) (model.Booking, error) {
	const q = "SELECT " + bookingColumns + " FROM Tasks WHERE id = ? AND storeid = ?"
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id, storeID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	return b, err
}

// lockStaffTx takes a row lock on the staff member so overlap checks and
// writes for that staff are serialized.
func lockStaffTx(ctx context.Context, tx *sql.Tx, staffID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM Staffs WHERE id = ? FOR UPDATE", staffID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// overlapsTx reports whether staffID already has a booking intersecting
// [start, end).  excludeID skips the booking being edited.
func overlapsTx(ctx context.Context, tx *sql.Tx, staffID, excludeID int64, start, end time.Time) (bool, error) {
	const q = "SELECT COUNT(*) FROM Tasks WHERE staff_id = ? AND id <> ? AND start < ? AND `end` > ?"
	var n int
	if err := tx.QueryRowContext(ctx, q, staffID, excludeID, end, start).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Free reports whether staffID has no booking intersecting [start, end)
// other than excludeID.  It takes no lock; Create and Update re-check under
// the staff row lock.
func (r *BookingRepo) Free(ctx context.Context, staffID, excludeID int64, start, end time.Time) (bool, error) {
	const q = "SELECT COUNT(*) FROM Tasks WHERE staff_id = ? AND id <> ? AND start < ? AND `end` > ?"
	var n int
	if err := r.db.QueryRowContext(ctx, q, staffID, excludeID, end, start).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

// Create inserts b after verifying that the staff member is free for the
// whole window.  An overlap yields ErrConflict and nothing is written.  On
// success b.ID is populated.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockStaffTx(ctx, tx, b.StaffID); err != nil {
		return err
	}
	busy, err := overlapsTx(ctx, tx, b.StaffID, 0, b.Start, b.End)
	if err != nil {
		return err
	}
	if busy {
		return ErrConflict
	}

	const q = `INSERT INTO Tasks (customer_name, start, ` + "`end`" + `, staff_id, staff_name, course_id, course_name,
	           price, master_income, company_income, mins, storeid, note, memberid, is_confirmed, usetickettype,
	           exdata, history, history_pri)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, '', '')`
	res, err := tx.ExecContext(ctx, q, b.CustomerName, b.Start, b.End, b.StaffID, b.StaffName, b.CourseID, b.CourseName,
		b.Price, b.StaffShare, b.CompanyShare, b.Minutes, b.StoreID, b.Note, b.MemberID, b.ExtraData)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	b.ID = id
	b.Confirmed = false
	b.History, b.PrivateHistory = "", ""
	return nil
}

// Update rewrites every derived field of an existing booking and resets its
// confirmation flag.  The overlap check ignores the booking itself.
func (r *BookingRepo) Update(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockStaffTx(ctx, tx, b.StaffID); err != nil {
		return err
	}
	busy, err := overlapsTx(ctx, tx, b.StaffID, b.ID, b.Start, b.End)
	if err != nil {
		return err
	}
	if busy {
		return ErrConflict
	}

	const q = `UPDATE Tasks SET customer_name = ?, start = ?, ` + "`end`" + ` = ?, staff_id = ?, staff_name = ?,
	           course_id = ?, course_name = ?, price = ?, master_income = ?, company_income = ?, mins = ?,
	           note = ?, memberid = ?, exdata = ?, history = ?, history_pri = ?, is_confirmed = 0
	           WHERE id = ? AND storeid = ?`
	if _, err := tx.ExecContext(ctx, q, b.CustomerName, b.Start, b.End, b.StaffID, b.StaffName,
		b.CourseID, b.CourseName, b.Price, b.StaffShare, b.CompanyShare, b.Minutes,
		b.Note, b.MemberID, b.ExtraData, b.History, b.PrivateHistory, b.ID, b.StoreID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	b.Confirmed = false
	return nil
}

// Delete removes a booking of the given store.
func (r *BookingRepo) Delete(ctx context.Context, storeID, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM Tasks WHERE id = ? AND storeid = ?", id, storeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Confirm marks a booking as acknowledged by its staff member.  Confirming
// twice is not an error.
func (r *BookingRepo) Confirm(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE Tasks SET is_confirmed = 1 WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var cnt int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM Tasks WHERE id = ?", id).Scan(&cnt); err != nil {
		return err
	}
	if cnt == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRange returns the bookings of the given stores starting in [from, to)
// ordered by start time.
func (r *BookingRepo) ListRange(ctx context.Context, storeIDs []int64, from, to time.Time) ([]model.Booking, error) {
	if len(storeIDs) == 0 {
		return nil, nil
	}
	q := "SELECT " + bookingColumns + " FROM Tasks WHERE storeid IN (" + inClause(len(storeIDs)) + ") " +
		"AND start >= ? AND start < ? ORDER BY start, id"
	args := append(int64Args(storeIDs), from, to)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// ListUnconfirmed returns every unconfirmed booking starting after now,
// across all stores, ordered by start time.
func (r *BookingRepo) ListUnconfirmed(ctx context.Context, now time.Time) ([]model.Booking, error) {
	const q = "SELECT " + bookingColumns + " FROM Tasks WHERE is_confirmed = 0 AND start > ? ORDER BY start, id"
	rows, err := r.db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}
