package pricing

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context carries the booking facts a rule condition can match against.
// TimeOfDay is zero-padded "HH:MM" so lexicographic comparison orders
// correctly.
type Context struct {
	DayOfWeek string
	TimeOfDay string
	CourtType string
}

// Field identifies which Context value a leaf condition reads.
type Field int

const (
	FieldDayOfWeek Field = iota
	FieldTimeOfDay
	FieldCourtType
)

func (f Field) value(ctx Context) string {
	switch f {
	case FieldDayOfWeek:
		return ctx.DayOfWeek
	case FieldTimeOfDay:
		return ctx.TimeOfDay
	case FieldCourtType:
		return ctx.CourtType
	}
	return ""
}

// Condition is a predicate over a rule-evaluation Context. Conditions are
// parsed once when a rule is loaded, not re-interpreted per evaluation.
type Condition interface {
	Matches(ctx Context) bool
}

type equalsCondition struct {
	field Field
	value string
}

func (c equalsCondition) Matches(ctx Context) bool {
	return c.field.value(ctx) == c.value
}

type gteCondition struct {
	field Field
	value string
}

func (c gteCondition) Matches(ctx Context) bool {
	return c.field.value(ctx) >= c.value
}

type lteCondition struct {
	field Field
	value string
}

func (c lteCondition) Matches(ctx Context) bool {
	return c.field.value(ctx) <= c.value
}

type andCondition struct {
	conditions []Condition
}

func (c andCondition) Matches(ctx Context) bool {
	for _, cond := range c.conditions {
		if !cond.Matches(ctx) {
			return false
		}
	}
	return true
}

func Equals(field Field, value string) Condition { return equalsCondition{field, value} }
func Gte(field Field, value string) Condition    { return gteCondition{field, value} }
func Lte(field Field, value string) Condition    { return lteCondition{field, value} }
func And(conditions ...Condition) Condition      { return andCondition{conditions} }

// MatchAll is the parsed form of an empty or absent condition document.
var MatchAll Condition = andCondition{}

// ParseCondition compiles a stored condition document into a Condition.
//
// Recognized keys: "day" (exact weekday-name equality), "courtType" (exact
// equality), and any key whose value is a document with $gte/$lte bounds,
// which compares against the context's time of day. Unrecognized keys are
// ignored rather than rejected, so an operator typo widens a rule instead of
// disabling pricing.
func ParseCondition(doc map[string]any) (Condition, error) {
	if len(doc) == 0 {
		return MatchAll, nil
	}

	var conditions []Condition
	for key, raw := range doc {
		switch key {
		case "day":
			v, err := asString(key, raw)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, Equals(FieldDayOfWeek, v))

		case "courtType":
			v, err := asString(key, raw)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, Equals(FieldCourtType, v))

		default:
			bounds, ok := asDocument(raw)
			if !ok {
				continue
			}
			if raw, exists := bounds["$gte"]; exists {
				v, err := asString(key+".$gte", raw)
				if err != nil {
					return nil, err
				}
				conditions = append(conditions, Gte(FieldTimeOfDay, v))
			}
			if raw, exists := bounds["$lte"]; exists {
				v, err := asString(key+".$lte", raw)
				if err != nil {
					return nil, err
				}
				conditions = append(conditions, Lte(FieldTimeOfDay, v))
			}
		}
	}

	if len(conditions) == 0 {
		return MatchAll, nil
	}
	if len(conditions) == 1 {
		return conditions[0], nil
	}
	return And(conditions...), nil
}

func asString(key string, raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("condition key %q: expected string, got %T", key, raw)
	}
	return s, nil
}

// asDocument accepts both the plain map produced by JSON decoding and the
// primitive.M produced by bson decoding.
func asDocument(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case primitive.M:
		return v, true
	default:
		return nil, false
	}
}
