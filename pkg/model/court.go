package model

const (
	CourtTypeIndoor  = "indoor"
	CourtTypeOutdoor = "outdoor"
)

type Court struct {
	ID               string  `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name             string  `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Type             string  `json:"type" bson:"type" validate:"required,oneof=indoor outdoor"`
	BasePricePerHour float64 `json:"base_price_per_hour" bson:"base_price_per_hour" validate:"required,gt=0"`
	IsActive         bool    `json:"is_active" bson:"is_active"`
}
