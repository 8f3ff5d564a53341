package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/spa-booking-bot/internal/model"
	"github.com/iliyamo/spa-booking-bot/internal/repository"
)

// IssueInput describes one batch of prepaid tickets.
type IssueInput struct {
	TypeID    int64
	StaffName string // issuing staff member
	Customer  string
	Serials   []string
}

// RedeemInput describes one redemption against a booking.
type RedeemInput struct {
	TypeID    int64
	Serial    string // ignored for public-relations tickets
	StaffName string // redeeming staff member
	BookingID int64
}

// TicketStore persists tickets.
type TicketStore interface {
	GetType(ctx context.Context, id int64) (model.TicketType, error)
	Issue(ctx context.Context, tickets []model.Ticket) error
	Redeem(ctx context.Context, p repository.RedeemParams) error
	RemainingPR(ctx context.Context, storeID, staffID int64, from, to time.Time) (int, error)
	List(ctx context.Context, storeID, typeID int64) ([]model.Ticket, error)
}

// TicketLedger issues and redeems tickets.
type TicketLedger struct {
	tickets TicketStore
	staff   StaffLookup
	loc     *time.Location
	now     func() time.Time
}

// NewTicketLedger builds a ledger whose "this month" is read in loc.
func NewTicketLedger(tickets TicketStore, staff StaffLookup, loc *time.Location) *TicketLedger {
	if loc == nil {
		loc = time.UTC
	}
	return &TicketLedger{tickets: tickets, staff: staff, loc: loc, now: time.Now}
}

// Issue inserts one ticket per serial.  A serial repeated in the batch or
// already present for the store and type rejects the whole batch.
func (l *TicketLedger) Issue(ctx context.Context, scope model.StoreScope, in IssueInput) ([]model.Ticket, error) {
	if in.TypeID <= 0 || strings.TrimSpace(in.StaffName) == "" {
		return nil, fmt.Errorf("%w: ticket type and staff are required", ErrInvalidInput)
	}
	if len(in.Serials) == 0 || len(in.Serials) > model.MaxSerialsPerIssue {
		return nil, fmt.Errorf("%w: between 1 and %d serials per batch", ErrInvalidInput, model.MaxSerialsPerIssue)
	}
	seen := make(map[string]struct{}, len(in.Serials))
	serials := make([]string, 0, len(in.Serials))
	for _, s := range in.Serials {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("%w: blank serial", ErrInvalidInput)
		}
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("serial %q: %w", s, repository.ErrDuplicateSerial)
		}
		seen[s] = struct{}{}
		serials = append(serials, s)
	}

	staff, err := l.staff.GetByName(ctx, scope.StoreID, strings.TrimSpace(in.StaffName))
	if err != nil {
		return nil, fmt.Errorf("staff %q: %w", in.StaffName, err)
	}
	tt, err := l.tickets.GetType(ctx, in.TypeID)
	if err != nil {
		return nil, fmt.Errorf("ticket type %d: %w", in.TypeID, err)
	}

	issued := l.now().In(l.loc)
	out := make([]model.Ticket, len(serials))
	for i, s := range serials {
		out[i] = model.Ticket{
			TypeID:       tt.ID,
			TypeName:     tt.Name,
			Serial:       s,
			CustomerName: strings.TrimSpace(in.Customer),
			IssuedAt:     issued,
			ExpiresAt:    issued.AddDate(0, 0, tt.ExpDays),
			StaffID:      staff.ID,
			StaffName:    staff.Name,
			StoreID:      scope.StoreID,
		}
	}
	if err := l.tickets.Issue(ctx, out); err != nil {
		return nil, fmt.Errorf("issue tickets: %w", err)
	}
	return out, nil
}

// Redeem uses a ticket for a booking.  Admins may redeem on behalf of any
// staff member; everybody else only as themselves.
func (l *TicketLedger) Redeem(ctx context.Context, scope model.StoreScope, in RedeemInput) error {
	pr := in.TypeID == model.PublicRelationsTicketType
	switch {
	case in.TypeID <= 0 || in.BookingID <= 0 || strings.TrimSpace(in.StaffName) == "":
		return fmt.Errorf("%w: ticket type, booking and staff are required", ErrInvalidInput)
	case !pr && strings.TrimSpace(in.Serial) == "":
		return fmt.Errorf("%w: serial is required", ErrInvalidInput)
	}

	staff, err := l.staff.GetByName(ctx, scope.StoreID, strings.TrimSpace(in.StaffName))
	if err != nil {
		return fmt.Errorf("staff %q: %w", in.StaffName, err)
	}
	if !scope.Admin && staff.ID != scope.StaffID {
		return fmt.Errorf("redeem for %q: %w", staff.Name, repository.ErrForbidden)
	}

	now := l.now().In(l.loc)
	from, to := monthBounds(now)
	err = l.tickets.Redeem(ctx, repository.RedeemParams{
		StoreID:    scope.StoreID,
		TypeID:     in.TypeID,
		Serial:     strings.TrimSpace(in.Serial),
		StaffID:    staff.ID,
		StaffName:  staff.Name,
		StaffAdmin: scope.Admin,
		BookingID:  in.BookingID,
		At:         now,
		QuotaFrom:  from,
		QuotaTo:    to,
	})
	if err != nil {
		return fmt.Errorf("redeem ticket: %w", err)
	}
	return nil
}

// Remaining returns the public-relations tickets the staff member may still
// redeem this month.
func (l *TicketLedger) Remaining(ctx context.Context, scope model.StoreScope, staffName string) (int, error) {
	staff, err := l.staff.GetByName(ctx, scope.StoreID, strings.TrimSpace(staffName))
	if err != nil {
		return 0, fmt.Errorf("staff %q: %w", staffName, err)
	}
	from, to := monthBounds(l.now().In(l.loc))
	n, err := l.tickets.RemainingPR(ctx, scope.StoreID, staff.ID, from, to)
	if err != nil {
		return 0, fmt.Errorf("remaining quota: %w", err)
	}
	return n, nil
}

// List returns the store's tickets; typeID 0 lists every type.
func (l *TicketLedger) List(ctx context.Context, scope model.StoreScope, typeID int64) ([]model.Ticket, error) {
	return l.tickets.List(ctx, scope.StoreID, typeID)
}

func monthBounds(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 1, 0)
}
