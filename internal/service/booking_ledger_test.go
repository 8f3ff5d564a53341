package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/spa-booking-bot/internal/model"
	"github.com/iliyamo/spa-booking-bot/internal/repository"
)

type ledgerFixture struct {
	j        *journal
	bookings *fakeBookings
	notifier *recordingNotifier
	ledger   *BookingLedger
	scope    model.StoreScope
	loc      *time.Location
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	j := &journal{}
	bookings := newFakeBookings(j)
	staff := newFakeStaff(
		model.Staff{ID: 1, Name: "阿美", StoreID: 1, Commission: 40},
		model.Staff{ID: 2, Name: "小林", StoreID: 1, Commission: 50},
		model.Staff{ID: 9, Name: "別店", StoreID: 2, Commission: 50},
	)
	courses := fakeCourses{
		10: {ID: 10, Name: "全身指壓", Price: 1200, Minutes: 60, StoreID: 1},
		11: {ID: 11, Name: "精油舒壓", Price: 1800, Minutes: 90, StoreID: 1},
	}
	n := &recordingNotifier{j: j}
	return &ledgerFixture{
		j:        j,
		bookings: bookings,
		notifier: n,
		ledger:   NewBookingLedger(bookings, staff, courses, n, zap.NewNop()),
		scope:    model.StoreScope{StoreID: 1, StaffID: 1, StaffName: "阿美", Admin: true},
		loc:      taipei(t),
	}
}

func TestLedgerCreateComputesAndNotifies(t *testing.T) {
	f := newLedgerFixture(t)
	start := time.Date(2026, 6, 1, 21, 15, 0, 0, f.loc)

	b, err := f.ledger.Create(context.Background(), f.scope, BookingInput{
		CustomerName: "王小明", Start: start, StaffName: "阿美", CourseID: 10, Note: "肩頸",
	})
	require.NoError(t, err)

	assert.NotZero(t, b.ID)
	assert.Equal(t, int64(480+100), b.StaffShare)
	assert.Equal(t, int64(1200-580), b.CompanyShare)
	assert.Equal(t, start.Add(60*time.Minute), b.End)
	assert.Equal(t, "全身指壓", b.CourseName)
	assert.Equal(t, []string{"create", "created:阿美"}, f.j.all())
	require.Len(t, f.notifier.notices, 1)
	assert.Equal(t, b.ID, f.notifier.notices[0].Booking.ID)
}

func TestLedgerCreateLookupMissWritesNothing(t *testing.T) {
	f := newLedgerFixture(t)
	start := time.Date(2026, 6, 1, 10, 0, 0, 0, f.loc)

	_, err := f.ledger.Create(context.Background(), f.scope, BookingInput{CustomerName: "A", Start: start, StaffName: "不存在", CourseID: 10})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.ledger.Create(context.Background(), f.scope, BookingInput{CustomerName: "A", Start: start, StaffName: "阿美", CourseID: 99})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// staff of another store is invisible
	_, err = f.ledger.Create(context.Background(), f.scope, BookingInput{CustomerName: "A", Start: start, StaffName: "別店", CourseID: 10})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Empty(t, f.bookings.rows)
	assert.Empty(t, f.j.all())
}

func TestLedgerCreateValidates(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.ledger.Create(context.Background(), f.scope, BookingInput{StaffName: "阿美", CourseID: 10, Start: time.Now()})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.ledger.Create(context.Background(), f.scope, BookingInput{CustomerName: "A", StaffName: "阿美", CourseID: 10})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLedgerCreateConflictSendsNothing(t *testing.T) {
	f := newLedgerFixture(t)
	f.bookings.conflict = true

	_, err := f.ledger.Create(context.Background(), f.scope, BookingInput{
		CustomerName: "A", Start: time.Date(2026, 6, 1, 10, 0, 0, 0, f.loc), StaffName: "阿美", CourseID: 10,
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Empty(t, f.notifier.notices)
	assert.Empty(t, f.bookings.rows)
}

func TestLedgerNotifyFailureKeepsBooking(t *testing.T) {
	f := newLedgerFixture(t)
	f.notifier.err = errors.New("line down")

	b, err := f.ledger.Create(context.Background(), f.scope, BookingInput{
		CustomerName: "A", Start: time.Date(2026, 6, 1, 10, 0, 0, 0, f.loc), StaffName: "阿美", CourseID: 10,
	})
	require.NoError(t, err)
	assert.Contains(t, f.bookings.rows, b.ID)
}

func TestLedgerUpdateStaffChangeCancelsOldFirst(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	b, err := f.ledger.Create(ctx, f.scope, BookingInput{
		CustomerName: "王小明", Start: time.Date(2026, 6, 1, 14, 0, 0, 0, f.loc), StaffName: "阿美", CourseID: 10,
	})
	require.NoError(t, err)

	updated, err := f.ledger.Update(ctx, f.scope, b.ID, BookingInput{
		CustomerName: "王小明", Start: time.Date(2026, 6, 1, 21, 0, 0, 0, f.loc), StaffName: "小林", CourseID: 11,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "created:阿美", "cancelled:阿美", "update", "edited:小林"}, f.j.all())
	assert.Equal(t, int64(900+150), updated.StaffShare)
	assert.Equal(t, int64(1800-1050), updated.CompanyShare)
	assert.Equal(t, 90, updated.Minutes)
	assert.False(t, updated.Confirmed)
	assert.Equal(t, b.ID, updated.ID)
}

func TestLedgerUpdateStaffChangeToBusyStaffSendsNothing(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	b, err := f.ledger.Create(ctx, f.scope, BookingInput{
		CustomerName: "王小明", Start: time.Date(2026, 6, 1, 14, 0, 0, 0, f.loc), StaffName: "阿美", CourseID: 10,
	})
	require.NoError(t, err)
	_, err = f.ledger.Create(ctx, f.scope, BookingInput{
		CustomerName: "陳大文", Start: time.Date(2026, 6, 1, 20, 30, 0, 0, f.loc), StaffName: "小林", CourseID: 10,
	})
	require.NoError(t, err)

	_, err = f.ledger.Update(ctx, f.scope, b.ID, BookingInput{
		CustomerName: "王小明", Start: time.Date(2026, 6, 1, 21, 0, 0, 0, f.loc), StaffName: "小林", CourseID: 10,
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, []string{"create", "created:阿美", "create", "created:小林"}, f.j.all())
	assert.Equal(t, "阿美", f.bookings.rows[b.ID].StaffName)
}

func TestLedgerUpdateAppendsHistory(t *testing.T) {
	f := newLedgerFixture(t)
	f.ledger.now = func() time.Time { return time.Date(2026, 5, 30, 9, 5, 0, 0, f.loc) }
	ctx := context.Background()
	b, err := f.ledger.Create(ctx, f.scope, BookingInput{
		CustomerName: "A", Start: time.Date(2026, 6, 1, 14, 0, 0, 0, f.loc), StaffName: "阿美", CourseID: 10, ExtraData: "VIP",
	})
	require.NoError(t, err)
	assert.Equal(t, "VIP", f.bookings.rows[b.ID].ExtraData)

	_, err = f.ledger.Update(ctx, f.scope, b.ID, BookingInput{
		CustomerName: "A", Start: time.Date(2026, 6, 1, 15, 0, 0, 0, f.loc), StaffName: "小林", CourseID: 11, ExtraData: "VIP",
	})
	require.NoError(t, err)
	_, err = f.ledger.Update(ctx, f.scope, b.ID, BookingInput{
		CustomerName: "A", Start: time.Date(2026, 6, 1, 16, 0, 0, 0, f.loc), StaffName: "小林", CourseID: 11,
	})
	require.NoError(t, err)

	row := f.bookings.rows[b.ID]
	assert.Equal(t,
		"2026-05-30 09:05 阿美: 06-01 14:00 阿美 全身指壓 -> 06-01 15:00 小林 精油舒壓\n"+
			"2026-05-30 09:05 阿美: 06-01 15:00 小林 精油舒壓 -> 06-01 16:00 小林 精油舒壓",
		row.History)
	assert.Contains(t, row.PrivateHistory, "(1200/480/720 -> 1800/900/900)")
	assert.Empty(t, row.ExtraData)
}

func TestLedgerUpdateSameStaffOnlyEdits(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	b, err := f.ledger.Create(ctx, f.scope, BookingInput{
		CustomerName: "A", Start: time.Date(2026, 6, 1, 14, 0, 0, 0, f.loc), StaffName: "阿美", CourseID: 10,
	})
	require.NoError(t, err)

	_, err = f.ledger.Update(ctx, f.scope, b.ID, BookingInput{
		CustomerName: "A", Start: time.Date(2026, 6, 1, 15, 0, 0, 0, f.loc), StaffName: "阿美", CourseID: 10, Note: "改時間",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"create", "created:阿美", "update", "edited:阿美"}, f.j.all())
}

func TestLedgerUpdateMissingBooking(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.ledger.Update(context.Background(), f.scope, 404, BookingInput{
		CustomerName: "A", Start: time.Now(), StaffName: "阿美", CourseID: 10,
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, f.j.all())
}

func TestLedgerDeleteNotifiesBeforeRemoval(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	b, err := f.ledger.Create(ctx, f.scope, BookingInput{
		CustomerName: "A", Start: time.Date(2026, 6, 1, 14, 0, 0, 0, f.loc), StaffName: "小林", CourseID: 10,
	})
	require.NoError(t, err)

	require.NoError(t, f.ledger.Delete(ctx, f.scope, b.ID))
	assert.Equal(t, []string{"create", "created:小林", "cancelled:小林", "delete"}, f.j.all())
	assert.Empty(t, f.bookings.rows)

	// another store cannot see the booking
	other := model.StoreScope{StoreID: 2}
	assert.ErrorIs(t, f.ledger.Delete(ctx, other, b.ID), repository.ErrNotFound)
}

func TestLedgerConfirm(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	b, err := f.ledger.Create(ctx, f.scope, BookingInput{
		CustomerName: "A", Start: time.Date(2026, 6, 1, 14, 0, 0, 0, f.loc), StaffName: "阿美", CourseID: 10,
	})
	require.NoError(t, err)

	require.NoError(t, f.ledger.Confirm(ctx, b.ID))
	require.NoError(t, f.ledger.Confirm(ctx, b.ID))
	assert.True(t, f.bookings.rows[b.ID].Confirmed)
	assert.ErrorIs(t, f.ledger.Confirm(ctx, 999), repository.ErrNotFound)
}
