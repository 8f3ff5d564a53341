package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// PreBookStore persists customer pre-booking requests.  Create reports
// repository.ErrConflict while the user has an open request.
type PreBookStore interface {
	Create(ctx context.Context, p *model.PreBooking) error
	ListOpen(ctx context.Context) ([]model.PreBooking, error)
	Close(ctx context.Context, id int64) error
}

// PreBookInput is a request submitted from the customer booking form.
type PreBookInput struct {
	LineUserID string
	LineName   string
	Start      time.Time
	Course     string
	Guests     []model.PreBookGuest
}

// PreBookings takes customer requests that staff later turn into bookings.
type PreBookings struct {
	store PreBookStore
	now   func() time.Time
}

func NewPreBookings(store PreBookStore) *PreBookings {
	return &PreBookings{store: store, now: time.Now}
}

// Submit records a request.  A user may hold one open request at a time.
func (s *PreBookings) Submit(ctx context.Context, in PreBookInput) (model.PreBooking, error) {
	lineID := strings.TrimSpace(in.LineUserID)
	switch {
	case lineID == "":
		return model.PreBooking{}, fmt.Errorf("%w: line user id is required", ErrInvalidInput)
	case len(in.Guests) == 0 || len(in.Guests) > model.MaxPreBookGuests:
		return model.PreBooking{}, fmt.Errorf("%w: between 1 and %d guests", ErrInvalidInput, model.MaxPreBookGuests)
	case in.Start.IsZero() || !in.Start.After(s.now()):
		return model.PreBooking{}, fmt.Errorf("%w: start must be in the future", ErrInvalidInput)
	}

	guests := make([]model.PreBookGuest, len(in.Guests))
	for i, g := range in.Guests {
		var names []string
		for _, n := range g.Masseurs {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		if len(names) > model.MaxPreBookPreferences {
			return model.PreBooking{}, fmt.Errorf("%w: at most %d staff preferences per guest", ErrInvalidInput, model.MaxPreBookPreferences)
		}
		guests[i] = model.PreBookGuest{
			Masseurs: names,
			OilType:  strings.TrimSpace(g.OilType),
			Remark:   strings.TrimSpace(g.Remark),
		}
	}

	p := model.PreBooking{
		LineUserID: lineID,
		LineName:   strings.TrimSpace(in.LineName),
		Start:      in.Start.Truncate(time.Minute),
		Course:     strings.TrimSpace(in.Course),
		Guests:     guests,
	}
	if err := s.store.Create(ctx, &p); err != nil {
		return model.PreBooking{}, fmt.Errorf("submit pre-booking: %w", err)
	}
	return p, nil
}

func (s *PreBookings) Open(ctx context.Context) ([]model.PreBooking, error) {
	return s.store.ListOpen(ctx)
}

// Close marks request id handled so its user may submit again.
func (s *PreBookings) Close(ctx context.Context, id int64) error {
	if err := s.store.Close(ctx, id); err != nil {
		return fmt.Errorf("close pre-booking %d: %w", id, err)
	}
	return nil
}
