// Package events defines the payloads carried by booking lifecycle messages.
// Producers and consumers share these types so the wire format has a single
// owner.
package events

import "time"

// BookingCreated is published after a booking commits.
type BookingCreated struct {
	BookingID  string    `json:"booking_id"`
	UserID     string    `json:"user_id"`
	CourtID    string    `json:"court_id"`
	CoachID    string    `json:"coach_id,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	TotalPrice float64   `json:"total_price"`
}

// BookingCancelled is published after a cancellation commits.
type BookingCancelled struct {
	BookingID   string `json:"booking_id"`
	UserID      string `json:"user_id"`
	CourtID     string `json:"court_id"`
	CancelledBy string `json:"cancelled_by"`
}

// SlotFreed tells the waitlist processor that a court interval opened up.
// It is published to its own topic so waitlist processing failures stay
// isolated from the cancellation that produced them.
type SlotFreed struct {
	BookingID string    `json:"booking_id"`
	CourtID   string    `json:"court_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
