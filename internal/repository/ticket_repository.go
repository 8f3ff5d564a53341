package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// TicketRepo issues and redeems prepaid tickets stored in `Tickets`.
type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

// GetType returns a ticket category.
func (r *TicketRepo) GetType(ctx context.Context, id int64) (model.TicketType, error) {
	var t model.TicketType
	err := r.db.QueryRowContext(ctx, "SELECT id, name, expdays FROM TicketType WHERE id = ?", id).
		Scan(&t.ID, &t.Name, &t.ExpDays)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TicketType{}, ErrNotFound
	}
	return t, err
}

// Issue inserts a batch of tickets sharing store and type.  If any serial
// already exists for that store and type, whether used or not, the batch is
// rejected with ErrDuplicateSerial and no row is written.
func (r *TicketRepo) Issue(ctx context.Context, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	storeID, typeID := tickets[0].StoreID, tickets[0].TypeID

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

	serials := make([]interface{}, len(tickets))
	for i, t := range tickets {
		serials[i] = t.Serial
	}
	q := "SELECT COUNT(*) FROM Tickets WHERE storeid = ? AND tickettypeid = ? AND ticketno IN (" +
		inClause(len(serials)) + ") FOR UPDATE"
	var existing int
	if err := tx.QueryRowContext(ctx, q, append([]interface{}{storeID, typeID}, serials...)...).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return ErrDuplicateSerial
	}

	const ins = `INSERT INTO Tickets (tickettypeid, ticketname, ticketno, customer_name, issuedate, expdate,
	             staff_id, staff_name, isused, storeid) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`
	for i := range tickets {
		t := &tickets[i]
		res, err := tx.ExecContext(ctx, ins, t.TypeID, t.TypeName, t.Serial, t.CustomerName, t.IssuedAt, t.ExpiresAt,
			t.StaffID, t.StaffName, t.StoreID)
		if isDuplicateKey(err) {
			// a concurrent batch won the race past the count above
			return ErrDuplicateSerial
		}
		if err != nil {
			return err
		}
		if id, err := res.LastInsertId(); err == nil {
			t.ID = id
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// RedeemParams describe one redemption.  QuotaFrom/QuotaTo bound the month
// used for the public-relations quota; Serial is ignored for that category.
type RedeemParams struct {
	StoreID    int64
	TypeID     int64
	Serial     string
	StaffID    int64
	StaffName  string
	StaffAdmin bool
	BookingID  int64
	At         time.Time
	QuotaFrom  time.Time
	QuotaTo    time.Time
}

// Redeem flags the booking with the ticket type and, for prepaid
// categories, marks the serial as used.  Public-relations redemptions are
// checked against the staff member's monthly quota while the staff row is
// locked.  Non-admin staff may only flag their own bookings.
func (r *TicketRepo) Redeem(ctx context.Context, p RedeemParams) error {
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

	var maxPR int
	err = tx.QueryRowContext(ctx, "SELECT max_pr FROM Staffs WHERE id = ? AND storeid = ? FOR UPDATE", p.StaffID, p.StoreID).Scan(&maxPR)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if p.TypeID == model.PublicRelationsTicketType {
		var used int
		const cq = "SELECT COUNT(*) FROM Tasks WHERE storeid = ? AND staff_id = ? AND usetickettype = ? AND start >= ? AND start < ?"
		if err := tx.QueryRowContext(ctx, cq, p.StoreID, p.StaffID, p.TypeID, p.QuotaFrom, p.QuotaTo).Scan(&used); err != nil {
			return err
		}
		if maxPR-used <= 0 {
			return ErrQuotaExhausted
		}
	}

	var owner int64
	err = tx.QueryRowContext(ctx, "SELECT staff_id FROM Tasks WHERE id = ? AND storeid = ? FOR UPDATE", p.BookingID, p.StoreID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !p.StaffAdmin && owner != p.StaffID {
		return ErrForbidden
	}
	if _, err := tx.ExecContext(ctx, "UPDATE Tasks SET usetickettype = ? WHERE id = ? AND storeid = ?", p.TypeID, p.BookingID, p.StoreID); err != nil {
		return err
	}

	if p.TypeID != model.PublicRelationsTicketType {
		const uq = `UPDATE Tickets SET isused = 1, usedate = ?, use_staff_id = ?, use_staff_name = ?, use_task_id = ?
		            WHERE storeid = ? AND ticketno = ? AND tickettypeid = ? AND isused = 0`
		res, err := tx.ExecContext(ctx, uq, p.At, p.StaffID, p.StaffName, p.BookingID, p.StoreID, p.Serial, p.TypeID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// RemainingPR returns max_pr minus the public-relations redemptions of the
// staff member in [from, to).  The value may be negative when the quota was
// lowered after use.
func (r *TicketRepo) RemainingPR(ctx context.Context, storeID, staffID int64, from, to time.Time) (int, error) {
	const q = `SELECT s.max_pr - (SELECT COUNT(*) FROM Tasks t WHERE t.storeid = s.storeid AND t.staff_id = s.id
	                               AND t.usetickettype = ? AND t.start >= ? AND t.start < ?)
	           FROM Staffs s WHERE s.id = ? AND s.storeid = ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, model.PublicRelationsTicketType, from, to, staffID, storeID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return n, err
}

// List returns the tickets of a store, optionally filtered by type
// (typeID 0 means every type), newest first.
func (r *TicketRepo) List(ctx context.Context, storeID, typeID int64) ([]model.Ticket, error) {
	q := `SELECT id, tickettypeid, ticketname, ticketno, customer_name, issuedate, expdate, staff_id, staff_name,
	             isused, use_staff_id, use_staff_name, use_task_id, usedate, storeid
	      FROM Tickets WHERE storeid = ?`
	args := []interface{}{storeID}
	if typeID > 0 {
		q += " AND tickettypeid = ?"
		args = append(args, typeID)
	}
	q += " ORDER BY id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Ticket
	for rows.Next() {
		var (
			t      model.Ticket
			used   int
			usedAt sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.TypeID, &t.TypeName, &t.Serial, &t.CustomerName, &t.IssuedAt, &t.ExpiresAt,
			&t.StaffID, &t.StaffName, &used, &t.UsedByID, &t.UsedByName, &t.UsedTaskID, &usedAt, &t.StoreID); err != nil {
			return nil, err
		}
		t.Used = used == 1
		if usedAt.Valid {
			ts := usedAt.Time
			t.UsedAt = &ts
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
