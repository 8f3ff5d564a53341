package service

import (
	"math"
	"time"

	"github.com/iliyamo/spa-booking-bot/internal/model"
)

// Late bookings pay the staff member a flat bonus out of the company share.
const (
	lateHour           = 21
	lateSurchargeHour  = 100 // 60 minute courses
	lateSurchargeOther = 150
)

// Quote is the derived part of a booking: its window and the price split.
type Quote struct {
	Start        time.Time
	End          time.Time
	Minutes      int
	Price        int64
	StaffShare   int64 // commission plus late surcharge
	CompanyShare int64
	Surcharge    int64
}

// LateSurcharge returns the staff bonus for a booking starting at start.
// The 21:00 cutoff is read on start's own calendar day in start's location.
func LateSurcharge(start time.Time, minutes int) int64 {
	y, m, d := start.Date()
	cutoff := time.Date(y, m, d, lateHour, 0, 0, 0, start.Location())
	if start.Before(cutoff) {
		return 0
	}
	if minutes == 60 {
		return lateSurchargeHour
	}
	return lateSurchargeOther
}

// QuoteBooking computes the window and price split of a booking of course
// starting at start for a staff member earning commissionPct percent.
// StaffShare + CompanyShare always equals the course price.
func QuoteBooking(start time.Time, course model.Course, commissionPct float64) Quote {
	base := int64(math.Round(float64(course.Price) * commissionPct / 100))
	extra := LateSurcharge(start, course.Minutes)
	staff := base + extra
	start = start.Truncate(time.Minute)
	return Quote{
		Start:        start,
		End:          start.Add(time.Duration(course.Minutes) * time.Minute),
		Minutes:      course.Minutes,
		Price:        course.Price,
		StaffShare:   staff,
		CompanyShare: course.Price - staff,
		Surcharge:    extra,
	}
}
