package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// PreBookRepo stores customer pre-booking requests in `prebook`.  The table
// is wide: one column group per guest slot.
type PreBookRepo struct {
	db *sql.DB
}

func NewPreBookRepo(db *sql.DB) *PreBookRepo {
	return &PreBookRepo{db: db}
}

// guestColumns lists the per-guest columns in slot order.
var guestColumns = func() []string {
	var cols []string
	for g := 0; g < model.MaxPreBookGuests; g++ {
		for p := 0; p < model.MaxPreBookPreferences; p++ {
			cols = append(cols, fmt.Sprintf("masseur%d_%d", p, g))
		}
		cols = append(cols, fmt.Sprintf("oiltype%d", g), fmt.Sprintf("remark%d", g))
	}
	return cols
}()

const perGuest = model.MaxPreBookPreferences + 2

// guestArgs flattens guests into guestColumns order, padding unused slots.
func guestArgs(guests []model.PreBookGuest) []interface{} {
	out := make([]interface{}, 0, len(guestColumns))
	for g := 0; g < model.MaxPreBookGuests; g++ {
		var guest model.PreBookGuest
		if g < len(guests) {
			guest = guests[g]
		}
		for p := 0; p < model.MaxPreBookPreferences; p++ {
			name := ""
			if p < len(guest.Masseurs) {
				name = guest.Masseurs[p]
			}
			out = append(out, name)
		}
		out = append(out, guest.OilType, guest.Remark)
	}
	return out
}

// Create inserts p unless the LINE user already has an open request, which
// yields ErrConflict.  On success p.ID is populated.
func (r *PreBookRepo) Create(ctx context.Context, p *model.PreBooking) error {
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

	var open int
	const cq = "SELECT COUNT(*) FROM prebook WHERE line_userid = ? AND process_status <> ? FOR UPDATE"
	if err := tx.QueryRowContext(ctx, cq, p.LineUserID, model.PreBookClosed).Scan(&open); err != nil {
		return err
	}
	if open > 0 {
		return ErrConflict
	}

	q := "INSERT INTO prebook (line_userid, line_name, total_user, book_date, course, " +
		strings.Join(guestColumns, ", ") + ", process_status) VALUES (?, ?, ?, ?, ?, " +
		inClause(len(guestColumns)) + ", ?)"
	args := append([]interface{}{p.LineUserID, p.LineName, len(p.Guests), p.Start, p.Course}, guestArgs(p.Guests)...)
	args = append(args, model.PreBookOpen)
	res, err := tx.ExecContext(ctx, q, args...)
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
	p.ID = id
	p.Status = model.PreBookOpen
	return nil
}

// ListOpen returns every request that is not closed, oldest first.
func (r *PreBookRepo) ListOpen(ctx context.Context) ([]model.PreBooking, error) {
	q := "SELECT id, line_userid, line_name, total_user, book_date, course, " + strings.Join(guestColumns, ", ") +
		", process_status, created_at FROM prebook WHERE process_status <> ? ORDER BY created_at, id"
	rows, err := r.db.QueryContext(ctx, q, model.PreBookClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PreBooking
	for rows.Next() {
		var (
			p     model.PreBooking
			total int
			slots = make([]string, len(guestColumns))
		)
		dest := []interface{}{&p.ID, &p.LineUserID, &p.LineName, &total, &p.Start, &p.Course}
		for i := range slots {
			dest = append(dest, &slots[i])
		}
		dest = append(dest, &p.Status, &p.CreatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for g := 0; g < total && g < model.MaxPreBookGuests; g++ {
			s := slots[g*perGuest : (g+1)*perGuest]
			var guest model.PreBookGuest
			for _, name := range s[:model.MaxPreBookPreferences] {
				if name != "" {
					guest.Masseurs = append(guest.Masseurs, name)
				}
			}
			guest.OilType, guest.Remark = s[model.MaxPreBookPreferences], s[model.MaxPreBookPreferences+1]
			p.Guests = append(p.Guests, guest)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close marks a request handled.  Closing an unknown or closed request
// yields ErrNotFound.
func (r *PreBookRepo) Close(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE prebook SET process_status = ? WHERE id = ? AND process_status <> ?",
		model.PreBookClosed, id, model.PreBookClosed)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
