package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// StaffRepo reads and updates rows of the `Staffs` table.
type StaffRepo struct {
	db *sql.DB
}

func NewStaffRepo(db *sql.DB) *StaffRepo {
	return &StaffRepo{db: db}
}

const staffColumns = "id, name, password, storeid, profit, line_userid, isAdmin, max_pr"

func scanStaff(row interface{ Scan(...interface{}) error }) (model.Staff, error) {
	var (
		s      model.Staff
		lineID sql.NullString
		admin  int
	)
	if err := row.Scan(&s.ID, &s.Name, &s.PasswordHash, &s.StoreID, &s.Commission, &lineID, &admin, &s.MaxPR); err != nil {
		return model.Staff{}, err
	}
	s.LineUserID = lineID.String
	s.IsAdmin = admin == 1
	return s, nil
}

// GetByName looks a staff member up by display name within a store.
func (r *StaffRepo) GetByName(ctx context.Context, storeID int64, name string) (model.Staff, error) {
	const q = "SELECT " + staffColumns + " FROM Staffs WHERE name = ? AND storeid = ?"
	s, err := scanStaff(r.db.QueryRowContext(ctx, q, name, storeID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Staff{}, ErrNotFound
	}
	return s, err
}

// GetByID looks a staff member up by id within a store.
func (r *StaffRepo) GetByID(ctx context.Context, storeID, id int64) (model.Staff, error) {
	const q = "SELECT " + staffColumns + " FROM Staffs WHERE id = ? AND storeid = ?"
	s, err := scanStaff(r.db.QueryRowContext(ctx, q, id, storeID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Staff{}, ErrNotFound
	}
	return s, err
}

// LineUserID returns the LINE user id bound to a staff member.  A staff
// member without a binding yields "" and no error.
func (r *StaffRepo) LineUserID(ctx context.Context, staffID int64) (string, error) {
	const q = "SELECT line_userid FROM Staffs WHERE id = ?"
	var v sql.NullString
	if err := r.db.QueryRowContext(ctx, q, staffID).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return v.String, nil
}

// BindLine stores the LINE user id of a staff member.
func (r *StaffRepo) BindLine(ctx context.Context, storeID, staffID int64, lineUserID string) error {
	const q = "UPDATE Staffs SET line_userid = ? WHERE id = ? AND storeid = ?"
	res, err := r.db.ExecContext(ctx, q, lineUserID, staffID, storeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// rebinding the same id changes nothing; make sure the row exists
		if _, err := r.GetByID(ctx, storeID, staffID); err != nil {
			return err
		}
	}
	return nil
}
