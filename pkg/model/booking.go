package model

import "time"

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// EquipmentLine is one rented item on a booking. Qty units of the inventory
// item are held for the whole booking interval.
type EquipmentLine struct {
	InventoryID string `json:"inventory_id" bson:"inventory_id" validate:"required,mongodb"`
	Qty         int    `json:"qty" bson:"qty" validate:"required,gt=0"`
}

// Booking holds a court, optionally a coach, and equipment for the half-open
// interval [StartTime, EndTime). Bookings are never deleted; only the status
// transitions after creation.
type Booking struct {
	ID         string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID     string          `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	CourtID    string          `json:"court_id" bson:"court_id" validate:"required,mongodb"`
	CoachID    string          `json:"coach_id,omitempty" bson:"coach_id,omitempty" validate:"omitempty,mongodb"`
	Equipment  []EquipmentLine `json:"equipment,omitempty" bson:"equipment,omitempty" validate:"omitempty,dive"`
	StartTime  time.Time       `json:"start_time" bson:"start_time" validate:"required"`
	EndTime    time.Time       `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	TotalPrice float64         `json:"total_price" bson:"total_price"`
	Status     string          `json:"status" bson:"status" validate:"required,oneof=confirmed cancelled completed"`
	CreatedAt  time.Time       `json:"created_at" bson:"created_at" validate:"omitempty"`
}
