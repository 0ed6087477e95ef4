package pricing

import (
	"fmt"
	"math"
	"time"

	"courtside/pkg/model"
)

// EquipmentItem is one equipment line with its catalog record pre-resolved.
// Equipment is priced per session, not per hour.
type EquipmentItem struct {
	Catalog *model.EquipmentCatalog
	Qty     int
}

// Input holds everything Calculate needs, pre-resolved by the caller. The
// engine never reaches into a store; pricing is a pure function of this
// struct and the rule set.
type Input struct {
	Court     *model.Court
	Coach     *model.Coach
	Equipment []EquipmentItem
	StartTime time.Time
	EndTime   time.Time
}

// Rule is a pricing rule with its condition already compiled.
type Rule struct {
	Name  string
	Kind  string
	Value float64
	Cond  Condition
}

// Adjustment is one applied rule in the breakdown. For a multiplier, Amount
// is the delta it added (subtotal before the rule times value minus one).
type Adjustment struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Value  float64 `json:"value"`
	Amount float64 `json:"amount"`
}

type Breakdown struct {
	BaseCourt   float64      `json:"base_court"`
	Coach       float64      `json:"coach"`
	Equipment   float64      `json:"equipment"`
	Subtotal    float64      `json:"subtotal"`
	Adjustments []Adjustment `json:"adjustments"`
}

type Quote struct {
	FinalPrice float64   `json:"final_price"`
	Breakdown  Breakdown `json:"breakdown"`
}

// RulesFromModels compiles stored rules for evaluation. Inactive rules are
// skipped. A rule whose condition document fails to parse is dropped and
// reported back so the caller can log it; the condition field is free-form in
// the store, and one malformed rule must not stop every quote.
func RulesFromModels(models []model.PricingRule) ([]Rule, []error) {
	rules := make([]Rule, 0, len(models))
	var skipped []error
	for _, m := range models {
		if !m.IsActive {
			continue
		}
		cond, err := ParseCondition(m.Condition)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("pricing rule %q: %w", m.Name, err))
			continue
		}
		rules = append(rules, Rule{
			Name:  m.Name,
			Kind:  m.Kind,
			Value: m.Value,
			Cond:  cond,
		})
	}
	return rules, skipped
}

// Calculate prices a prospective booking. Multiplier rules are applied as a
// group before flat rules regardless of their relative order in rules; within
// a kind the given order is preserved. Only the final price is rounded, so
// intermediate adjustments compound at full precision.
func Calculate(in Input, rules []Rule) Quote {
	durationHours := in.EndTime.Sub(in.StartTime).Hours()

	baseCourt := in.Court.BasePricePerHour * durationHours

	var coachCost float64
	if in.Coach != nil {
		coachCost = in.Coach.HourlyRate * durationHours
	}

	var equipmentCost float64
	for _, item := range in.Equipment {
		equipmentCost += item.Catalog.PricePerSession * float64(item.Qty)
	}

	subtotal := baseCourt + coachCost + equipmentCost

	start := in.StartTime.UTC()
	ctx := Context{
		DayOfWeek: start.Weekday().String(),
		TimeOfDay: start.Format("15:04"),
		CourtType: in.Court.Type,
	}

	breakdown := Breakdown{
		BaseCourt:   round2(baseCourt),
		Coach:       round2(coachCost),
		Equipment:   round2(equipmentCost),
		Subtotal:    round2(subtotal),
		Adjustments: []Adjustment{},
	}

	for _, kind := range []string{model.RuleKindMultiplier, model.RuleKindFlat} {
		for _, rule := range rules {
			if rule.Kind != kind || !rule.Cond.Matches(ctx) {
				continue
			}

			var amount float64
			switch kind {
			case model.RuleKindMultiplier:
				amount = subtotal * (rule.Value - 1)
				subtotal *= rule.Value
			case model.RuleKindFlat:
				amount = rule.Value
				subtotal += rule.Value
			}

			breakdown.Adjustments = append(breakdown.Adjustments, Adjustment{
				Name:   rule.Name,
				Kind:   rule.Kind,
				Value:  rule.Value,
				Amount: round2(amount),
			})
		}
	}

	return Quote{
		FinalPrice: round2(subtotal),
		Breakdown:  breakdown,
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
