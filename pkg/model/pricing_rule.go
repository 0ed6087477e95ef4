package model

const (
	RuleKindMultiplier = "multiplier"
	RuleKindFlat       = "flat"
)

// PricingRule is stored with a loosely-typed condition document, e.g.
// {"day": "Saturday", "startTime": {"$gte": "18:00"}}. The pricing engine
// parses it into a typed predicate when rules are loaded. Priority is
// informational only: multipliers are always applied before flats.
type PricingRule struct {
	ID          string         `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string         `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Kind        string         `json:"kind" bson:"kind" validate:"required,oneof=multiplier flat"`
	Priority    int            `json:"priority" bson:"priority"`
	Condition   map[string]any `json:"condition,omitempty" bson:"condition,omitempty"`
	Value       float64        `json:"value" bson:"value" validate:"required"`
	IsActive    bool           `json:"is_active" bson:"is_active"`
	Description string         `json:"description,omitempty" bson:"description,omitempty"`
}
