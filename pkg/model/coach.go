package model

import "time"

type Coach struct {
	ID             string  `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name           string  `json:"name" bson:"name" validate:"required,min=2,max=100"`
	HourlyRate     float64 `json:"hourly_rate" bson:"hourly_rate" validate:"required,gt=0"`
	Specialization string  `json:"specialization,omitempty" bson:"specialization,omitempty"`
	IsActive       bool    `json:"is_active" bson:"is_active"`
}

// CoachAvailability is one working shift on one calendar date. Date is
// truncated to midnight; StartTime/EndTime are "HH:MM" times of day. A coach
// with no record for a date is unavailable that day.
type CoachAvailability struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CoachID     string    `json:"coach_id" bson:"coach_id" validate:"required,mongodb"`
	Date        time.Time `json:"date" bson:"date" validate:"required"`
	StartTime   string    `json:"start_time" bson:"start_time" validate:"required,len=5"`
	EndTime     string    `json:"end_time" bson:"end_time" validate:"required,len=5"`
	IsAvailable bool      `json:"is_available" bson:"is_available"`
}
