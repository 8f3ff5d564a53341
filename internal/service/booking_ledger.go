package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/spa-booking-bot/internal/metrics"
	"github.com/iliyamo/spa-booking-bot/internal/model"
	"github.com/iliyamo/spa-booking-bot/internal/repository"
)

// BookingInput is what a caller supplies for a create or an update.  Every
// derived field is recomputed from the staff and course rows.
type BookingInput struct {
	CustomerName string
	Start        time.Time
	StaffName    string
	CourseID     int64
	Note         string
	MemberID     string
	ExtraData    string
}

func (in BookingInput) validate() error {
	switch {
	case strings.TrimSpace(in.CustomerName) == "":
		return fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	case strings.TrimSpace(in.StaffName) == "":
		return fmt.Errorf("%w: staff name is required", ErrInvalidInput)
	case in.CourseID <= 0:
		return fmt.Errorf("%w: course id is required", ErrInvalidInput)
	case in.Start.IsZero():
		return fmt.Errorf("%w: start time is required", ErrInvalidInput)
	}
	return nil
}

// BookingStore persists bookings.  Create and Update enforce the per-staff
// overlap rule and report ErrConflict.
type BookingStore interface {
	GetByID(ctx context.Context, storeID, id int64) (model.Booking, error)
	Create(ctx context.Context, b *model.Booking) error
	Update(ctx context.Context, b *model.Booking) error
	Delete(ctx context.Context, storeID, id int64) error
	Confirm(ctx context.Context, id int64) error
	Free(ctx context.Context, staffID, excludeID int64, start, end time.Time) (bool, error)
}

// StaffLookup resolves staff members within a store.
type StaffLookup interface {
	GetByName(ctx context.Context, storeID int64, name string) (model.Staff, error)
}

// CourseLookup resolves catalog entries within a store.
type CourseLookup interface {
	GetByID(ctx context.Context, storeID, id int64) (model.Course, error)
}

// BookingLedger creates, edits and removes bookings and notifies the
// affected staff.  Notification failures are logged and never undo a write.
type BookingLedger struct {
	bookings BookingStore
	staff    StaffLookup
	courses  CourseLookup
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewBookingLedger(bookings BookingStore, staff StaffLookup, courses CourseLookup, notifier Notifier, log *zap.Logger) *BookingLedger {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingLedger{bookings: bookings, staff: staff, courses: courses, notifier: notifier, log: log, now: time.Now}
}

// resolve looks up staff and course and prices the booking.  Nothing is
// written when either lookup misses.
func (l *BookingLedger) resolve(ctx context.Context, scope model.StoreScope, in BookingInput) (model.Booking, error) {
	if err := in.validate(); err != nil {
		return model.Booking{}, err
	}
	staff, err := l.staff.GetByName(ctx, scope.StoreID, strings.TrimSpace(in.StaffName))
	if err != nil {
		return model.Booking{}, fmt.Errorf("staff %q: %w", in.StaffName, err)
	}
	course, err := l.courses.GetByID(ctx, scope.StoreID, in.CourseID)
	if err != nil {
		return model.Booking{}, fmt.Errorf("course %d: %w", in.CourseID, err)
	}
	q := QuoteBooking(in.Start, course, staff.Commission)
	return model.Booking{
		CustomerName: strings.TrimSpace(in.CustomerName),
		Start:        q.Start,
		End:          q.End,
		StaffID:      staff.ID,
		StaffName:    staff.Name,
		CourseID:     course.ID,
		CourseName:   course.Name,
		Price:        q.Price,
		StaffShare:   q.StaffShare,
		CompanyShare: q.CompanyShare,
		Minutes:      q.Minutes,
		StoreID:      scope.StoreID,
		Note:         in.Note,
		MemberID:     in.MemberID,
		ExtraData:    in.ExtraData,
	}, nil
}

// Create books in and notifies the assigned staff member.
func (l *BookingLedger) Create(ctx context.Context, scope model.StoreScope, in BookingInput) (model.Booking, error) {
	b, err := l.resolve(ctx, scope, in)
	if err != nil {
		return model.Booking{}, err
	}
	if err := l.bookings.Create(ctx, &b); err != nil {
		return model.Booking{}, l.writeErr("create booking", err)
	}
	l.notify(ctx, Notice{Kind: NoticeCreated, Booking: b})
	return b, nil
}

// Update rewrites booking id and appends one line to its edit history.
// When the staff member changes, the previous one is told about the
// cancellation before the row is rewritten, but only once the new staff
// member is known to be free; the (new) staff member then receives an edit
// notice.
func (l *BookingLedger) Update(ctx context.Context, scope model.StoreScope, id int64, in BookingInput) (model.Booking, error) {
	prev, err := l.bookings.GetByID(ctx, scope.StoreID, id)
	if err != nil {
		return model.Booking{}, fmt.Errorf("booking %d: %w", id, err)
	}
	b, err := l.resolve(ctx, scope, in)
	if err != nil {
		return model.Booking{}, err
	}
	b.ID = prev.ID
	b.TicketType = prev.TicketType
	b.History, b.PrivateHistory = l.appendHistory(scope, prev, b)

	if prev.StaffID != b.StaffID {
		free, err := l.bookings.Free(ctx, b.StaffID, b.ID, b.Start, b.End)
		if err != nil {
			return model.Booking{}, fmt.Errorf("check availability: %w", err)
		}
		if !free {
			return model.Booking{}, l.writeErr("update booking", repository.ErrConflict)
		}
		l.notify(ctx, Notice{Kind: NoticeCancelled, Booking: prev})
	}
	if err := l.bookings.Update(ctx, &b); err != nil {
		return model.Booking{}, l.writeErr("update booking", err)
	}
	l.notify(ctx, Notice{Kind: NoticeEdited, Booking: b})
	return b, nil
}

// Delete notifies the assigned staff member and removes the booking.
func (l *BookingLedger) Delete(ctx context.Context, scope model.StoreScope, id int64) error {
	prev, err := l.bookings.GetByID(ctx, scope.StoreID, id)
	if err != nil {
		return fmt.Errorf("booking %d: %w", id, err)
	}
	l.notify(ctx, Notice{Kind: NoticeCancelled, Booking: prev})
	if err := l.bookings.Delete(ctx, scope.StoreID, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}

// Confirm marks booking id acknowledged.  It backs the link in staff
// notices, which carries no store scope.
func (l *BookingLedger) Confirm(ctx context.Context, id int64) error {
	if err := l.bookings.Confirm(ctx, id); err != nil {
		return fmt.Errorf("confirm booking %d: %w", id, err)
	}
	return nil
}

// appendHistory returns prev's histories extended by a line describing the
// edit.  The private line also carries the price split.
func (l *BookingLedger) appendHistory(scope model.StoreScope, prev, next model.Booking) (string, string) {
	const layout = "01-02 15:04"
	loc := next.Start.Location()
	head := fmt.Sprintf("%s %s: %s %s %s -> %s %s %s",
		l.now().In(loc).Format("2006-01-02 15:04"), scope.StaffName,
		prev.Start.In(loc).Format(layout), prev.StaffName, prev.CourseName,
		next.Start.Format(layout), next.StaffName, next.CourseName)
	priv := fmt.Sprintf("%s (%d/%d/%d -> %d/%d/%d)", head,
		prev.Price, prev.StaffShare, prev.CompanyShare,
		next.Price, next.StaffShare, next.CompanyShare)
	return joinLine(prev.History, head), joinLine(prev.PrivateHistory, priv)
}

func joinLine(text, line string) string {
	if text == "" {
		return line
	}
	return text + "\n" + line
}

func (l *BookingLedger) writeErr(op string, err error) error {
	if errors.Is(err, repository.ErrConflict) {
		metrics.IncBookingConflict()
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (l *BookingLedger) notify(ctx context.Context, n Notice) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Dispatch(ctx, n); err != nil {
		l.log.Warn("staff notice failed",
			zap.String("kind", string(n.Kind)),
			zap.Int64("booking_id", n.Booking.ID),
			zap.Int64("staff_id", n.Booking.StaffID),
			zap.Error(err))
	}
}
