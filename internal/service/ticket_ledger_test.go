package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/spa-booking-bot/internal/model"
	"github.com/iliyamo/spa-booking-bot/internal/repository"
)

func newTicketFixture(t *testing.T) (*TicketLedger, *fakeTickets) {
	t.Helper()
	tickets := &fakeTickets{types: map[int64]model.TicketType{
		1: {ID: 1, Name: "十次卷", ExpDays: 180},
		2: {ID: 2, Name: "公關卷", ExpDays: 30},
	}}
	staff := newFakeStaff(
		model.Staff{ID: 1, Name: "阿美", StoreID: 1},
		model.Staff{ID: 2, Name: "小林", StoreID: 1},
	)
	loc := taipei(t)
	l := NewTicketLedger(tickets, staff, loc)
	l.now = func() time.Time { return time.Date(2026, 2, 14, 13, 0, 0, 0, loc) }
	return l, tickets
}

var staffScope = model.StoreScope{StoreID: 1, StaffID: 1, StaffName: "阿美"}

func TestIssueCopiesTypeAndExpiry(t *testing.T) {
	l, tickets := newTicketFixture(t)
	out, err := l.Issue(context.Background(), staffScope, IssueInput{
		TypeID: 1, StaffName: "阿美", Customer: "林小姐", Serials: []string{"A001", " A002 ", "A003", "A004"},
	})
	require.NoError(t, err)
	require.Len(t, out, 4)
	require.Len(t, tickets.issued, 4)

	assert.Equal(t, "A002", out[1].Serial)
	assert.Equal(t, "十次卷", out[0].TypeName)
	assert.Equal(t, out[0].IssuedAt.AddDate(0, 0, 180), out[0].ExpiresAt)
	assert.Equal(t, int64(1), out[0].StaffID)
	assert.Equal(t, int64(1), out[3].StoreID)
}

func TestIssueRejectsInBatchDuplicate(t *testing.T) {
	l, tickets := newTicketFixture(t)
	_, err := l.Issue(context.Background(), staffScope, IssueInput{
		TypeID: 1, StaffName: "阿美", Serials: []string{"A001", "A002", "A001"},
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateSerial)
	assert.Empty(t, tickets.issued)
}

func TestIssueRejectsExistingSerial(t *testing.T) {
	l, tickets := newTicketFixture(t)
	tickets.issueErr = repository.ErrDuplicateSerial
	_, err := l.Issue(context.Background(), staffScope, IssueInput{
		TypeID: 1, StaffName: "阿美", Serials: []string{"A001", "A002", "A003", "A004"},
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateSerial)
	assert.Empty(t, tickets.issued)
}

func TestIssueValidatesBatch(t *testing.T) {
	l, _ := newTicketFixture(t)
	ctx := context.Background()
	_, err := l.Issue(ctx, staffScope, IssueInput{TypeID: 1, StaffName: "阿美"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = l.Issue(ctx, staffScope, IssueInput{TypeID: 1, StaffName: "阿美", Serials: []string{"1", "2", "3", "4", "5"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = l.Issue(ctx, staffScope, IssueInput{TypeID: 1, StaffName: "阿美", Serials: []string{"1", "  "}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = l.Issue(ctx, staffScope, IssueInput{TypeID: 9, StaffName: "阿美", Serials: []string{"1"}})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRedeemAsSelf(t *testing.T) {
	l, tickets := newTicketFixture(t)
	err := l.Redeem(context.Background(), staffScope, RedeemInput{TypeID: 1, Serial: "A001", StaffName: "阿美", BookingID: 7})
	require.NoError(t, err)
	require.Len(t, tickets.redeemed, 1)

	p := tickets.redeemed[0]
	assert.Equal(t, int64(1), p.StaffID)
	assert.False(t, p.StaffAdmin)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, p.QuotaFrom.Location()), p.QuotaFrom)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, p.QuotaTo.Location()), p.QuotaTo)
}

func TestRedeemForOtherNeedsAdmin(t *testing.T) {
	l, tickets := newTicketFixture(t)
	ctx := context.Background()

	err := l.Redeem(ctx, staffScope, RedeemInput{TypeID: 1, Serial: "A001", StaffName: "小林", BookingID: 7})
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.Empty(t, tickets.redeemed)

	admin := staffScope
	admin.Admin = true
	require.NoError(t, l.Redeem(ctx, admin, RedeemInput{TypeID: 1, Serial: "A001", StaffName: "小林", BookingID: 7}))
	assert.Equal(t, int64(2), tickets.redeemed[0].StaffID)
	assert.True(t, tickets.redeemed[0].StaffAdmin)
}

func TestRedeemValidation(t *testing.T) {
	l, tickets := newTicketFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, l.Redeem(ctx, staffScope, RedeemInput{TypeID: 1, StaffName: "阿美", BookingID: 7}), ErrInvalidInput)
	assert.ErrorIs(t, l.Redeem(ctx, staffScope, RedeemInput{TypeID: 1, Serial: "x", StaffName: "阿美"}), ErrInvalidInput)
	assert.ErrorIs(t, l.Redeem(ctx, staffScope, RedeemInput{TypeID: 1, Serial: "x", StaffName: "誰", BookingID: 7}), repository.ErrNotFound)
	// public-relations tickets have no serial
	require.NoError(t, l.Redeem(ctx, staffScope, RedeemInput{TypeID: model.PublicRelationsTicketType, StaffName: "阿美", BookingID: 7}))
	assert.Len(t, tickets.redeemed, 1)
}

func TestRedeemQuotaExhaustedPropagates(t *testing.T) {
	l, tickets := newTicketFixture(t)
	tickets.redeemErr = repository.ErrQuotaExhausted
	err := l.Redeem(context.Background(), staffScope, RedeemInput{TypeID: model.PublicRelationsTicketType, StaffName: "阿美", BookingID: 7})
	assert.ErrorIs(t, err, repository.ErrQuotaExhausted)
}

func TestRemainingAndList(t *testing.T) {
	l, tickets := newTicketFixture(t)
	tickets.remaining = 3
	n, err := l.Remaining(context.Background(), staffScope, "阿美")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = l.Issue(context.Background(), staffScope, IssueInput{TypeID: 1, StaffName: "阿美", Serials: []string{"Z1"}})
	require.NoError(t, err)
	list, err := l.List(context.Background(), staffScope, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = l.List(context.Background(), staffScope, 2)
	require.NoError(t, err)
	assert.Empty(t, list)
}
