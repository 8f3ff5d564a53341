// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/iliyamo/spa-booking-bot/internal/model"

// NoticeQueueName is the durable queue carrying staff notices in queue mode.
const NoticeQueueName = "booking.notice"

// NoticeEvent is published when a booking is created, edited or cancelled.
// It carries the booking as it was when the notice was raised, so the
// notifier never has to re-read a row that may already be deleted.
type NoticeEvent struct {
	Kind     string        `json:"kind"`
	Booking  model.Booking `json:"booking"`
	RaisedAt string        `json:"raised_at"`
}
