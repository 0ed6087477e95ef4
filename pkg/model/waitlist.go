package model

import "time"

const (
	WaitlistStatusPending   = "pending"
	WaitlistStatusNotified  = "notified"
	WaitlistStatusExpired   = "expired"
	WaitlistStatusFulfilled = "fulfilled"
	WaitlistStatusCancelled = "cancelled"
)

// WaitlistEntry is a pending request for a court window that could not be
// booked at submission time. Entries transition to fulfilled only when the
// waitlist processor succeeds at auto-booking the exact requested interval.
type WaitlistEntry struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID    string    `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	CourtID   string    `json:"court_id" bson:"court_id" validate:"required,mongodb"`
	StartTime time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Status    string    `json:"status" bson:"status" validate:"required,oneof=pending notified expired fulfilled cancelled"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
