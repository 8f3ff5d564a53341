package service

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/spa-booking-bot/internal/model"
	"github.com/iliyamo/spa-booking-bot/internal/queue"
	"github.com/iliyamo/spa-booking-bot/internal/repository"
)

// journal records the order of side effects across fakes.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeBookings struct {
	j        *journal
	rows     map[int64]model.Booking
	nextID   int64
	conflict bool
}

func newFakeBookings(j *journal) *fakeBookings {
	return &fakeBookings{j: j, rows: map[int64]model.Booking{}, nextID: 100}
}

func (f *fakeBookings) GetByID(_ context.Context, storeID, id int64) (model.Booking, error) {
	b, ok := f.rows[id]
	if !ok || b.StoreID != storeID {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
	if f.conflict {
		return repository.ErrConflict
	}
	f.nextID++
	b.ID = f.nextID
	f.rows[b.ID] = *b
	f.j.add("create")
	return nil
}

func (f *fakeBookings) Update(_ context.Context, b *model.Booking) error {
	if f.conflict {
		return repository.ErrConflict
	}
	f.rows[b.ID] = *b
	f.j.add("update")
	return nil
}

func (f *fakeBookings) Free(_ context.Context, staffID, excludeID int64, start, end time.Time) (bool, error) {
	if f.conflict {
		return false, nil
	}
	for id, b := range f.rows {
		if id != excludeID && b.StaffID == staffID && b.Start.Before(end) && b.End.After(start) {
			return false, nil
		}
	}
	return true, nil
}

func (f *fakeBookings) Delete(_ context.Context, storeID, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	f.j.add("delete")
	return nil
}

func (f *fakeBookings) Confirm(_ context.Context, id int64) error {
	b, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Confirmed = true
	f.rows[id] = b
	return nil
}

type fakeStaff struct {
	byName map[string]model.Staff
	bound  map[int64]string
}

func newFakeStaff(staff ...model.Staff) *fakeStaff {
	f := &fakeStaff{byName: map[string]model.Staff{}, bound: map[int64]string{}}
	for _, s := range staff {
		f.byName[s.Name] = s
		if s.LineUserID != "" {
			f.bound[s.ID] = s.LineUserID
		}
	}
	return f
}

func (f *fakeStaff) GetByName(_ context.Context, storeID int64, name string) (model.Staff, error) {
	s, ok := f.byName[name]
	if !ok || s.StoreID != storeID {
		return model.Staff{}, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeStaff) LineUserID(_ context.Context, staffID int64) (string, error) {
	return f.bound[staffID], nil
}

func (f *fakeStaff) BindLine(_ context.Context, storeID, staffID int64, lineUserID string) error {
	f.bound[staffID] = lineUserID
	return nil
}

type fakeCourses map[int64]model.Course

func (f fakeCourses) GetByID(_ context.Context, storeID, id int64) (model.Course, error) {
	c, ok := f[id]
	if !ok || c.StoreID != storeID {
		return model.Course{}, repository.ErrNotFound
	}
	return c, nil
}

type recordingNotifier struct {
	j       *journal
	notices []Notice
	err     error
}

func (r *recordingNotifier) Dispatch(_ context.Context, n Notice) error {
	r.notices = append(r.notices, n)
	r.j.add(string(n.Kind) + ":" + n.Booking.StaffName)
	return r.err
}

type pushCall struct {
	to, text, link string
}

type fakePusher struct {
	calls []pushCall
	err   error
}

func (f *fakePusher) PushNotice(_ context.Context, to, text, link string) error {
	f.calls = append(f.calls, pushCall{to, text, link})
	return f.err
}

type fakePublisher struct {
	events []queue.NoticeEvent
	err    error
}

func (f *fakePublisher) PublishNotice(_ context.Context, ev queue.NoticeEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

type fakeTickets struct {
	types     map[int64]model.TicketType
	issued    []model.Ticket
	issueErr  error
	redeemed  []repository.RedeemParams
	redeemErr error
	remaining int
}

func (f *fakeTickets) GetType(_ context.Context, id int64) (model.TicketType, error) {
	t, ok := f.types[id]
	if !ok {
		return model.TicketType{}, repository.ErrNotFound
	}
	return t, nil
}

func (f *fakeTickets) Issue(_ context.Context, tickets []model.Ticket) error {
	if f.issueErr != nil {
		return f.issueErr
	}
	f.issued = append(f.issued, tickets...)
	return nil
}

func (f *fakeTickets) Redeem(_ context.Context, p repository.RedeemParams) error {
	f.redeemed = append(f.redeemed, p)
	return f.redeemErr
}

func (f *fakeTickets) RemainingPR(_ context.Context, _, _ int64, _, _ time.Time) (int, error) {
	return f.remaining, nil
}

func (f *fakeTickets) List(_ context.Context, storeID, typeID int64) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, t := range f.issued {
		if t.StoreID == storeID && (typeID == 0 || t.TypeID == typeID) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeStores map[int64]model.Store

func (f fakeStores) GetByKey(_ context.Context, key string) (model.Store, error) {
	for _, s := range f {
		if s.Key == key {
			return s, nil
		}
	}
	return model.Store{}, repository.ErrNotFound
}

func (f fakeStores) GetByID(_ context.Context, id int64) (model.Store, error) {
	s, ok := f[id]
	if !ok {
		return model.Store{}, repository.ErrNotFound
	}
	return s, nil
}

func (f fakeStores) Branches(_ context.Context, mainID int64) ([]int64, error) {
	var out []int64
	for id := int64(1); id <= int64(len(f))+10; id++ {
		if s, ok := f[id]; ok && s.MainStore == mainID {
			out = append(out, id)
		}
	}
	return out, nil
}
