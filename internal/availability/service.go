package availability

import (
	"context"
	"fmt"
	"time"

	bookingrepo "courtside/internal/bookings/repository"
	coachrepo "courtside/internal/coaches/repository"
	equipmentrepo "courtside/internal/equipment/repository"
	"courtside/pkg/logger"
)

// Service answers whether a court, a coach, or a quantity of equipment is
// free for a half-open interval [start, end). Answers reflect committed
// bookings only; the booking coordinator re-runs these checks under lock
// before persisting.
type Service interface {
	CourtAvailable(ctx context.Context, courtID string, start, end time.Time, excludeBookingID string) (bool, error)
	CoachAvailable(ctx context.Context, coachID string, start, end time.Time, excludeBookingID string) (bool, error)
	EquipmentAvailable(ctx context.Context, inventoryID string, qty int, start, end time.Time, excludeBookingID string) (bool, error)
}

type service struct {
	bookings  bookingrepo.BookingRepository
	coaches   coachrepo.CoachRepository
	equipment equipmentrepo.EquipmentRepository
	log       *logger.Logger
}

func NewService(
	bookings bookingrepo.BookingRepository,
	coaches coachrepo.CoachRepository,
	equipment equipmentrepo.EquipmentRepository,
	log *logger.Logger,
) Service {
	return &service{
		bookings:  bookings,
		coaches:   coaches,
		equipment: equipment,
		log:       log,
	}
}

func (s *service) CourtAvailable(ctx context.Context, courtID string, start, end time.Time, excludeBookingID string) (bool, error) {
	conflict, err := s.bookings.ExistsOverlapping(ctx, bookingrepo.FieldCourtID, courtID, start, end, excludeBookingID)
	if err != nil {
		return false, fmt.Errorf("failed to check court availability: %w", err)
	}
	return !conflict, nil
}

// CoachAvailable reports whether the coach has a working shift on the date of
// start that fully contains [start, end) and no conflicting booking. An empty
// coachID means no coach was requested, which is trivially available.
//
// The shift date is derived from start only, so an interval crossing midnight
// is checked against the first day's shift.
func (s *service) CoachAvailable(ctx context.Context, coachID string, start, end time.Time, excludeBookingID string) (bool, error) {
	if coachID == "" {
		return true, nil
	}

	day := start.UTC().Truncate(24 * time.Hour)
	shift, err := s.coaches.FindShift(ctx, coachID, day)
	if err != nil {
		return false, fmt.Errorf("failed to check coach availability: %w", err)
	}
	if shift == nil || !shift.IsAvailable {
		return false, nil
	}

	// Zero-padded "HH:MM" strings compare correctly lexicographically.
	startOfDay := start.UTC().Format("15:04")
	endOfDay := end.UTC().Format("15:04")
	if startOfDay < shift.StartTime || endOfDay > shift.EndTime {
		return false, nil
	}

	conflict, err := s.bookings.ExistsOverlapping(ctx, bookingrepo.FieldCoachID, coachID, start, end, excludeBookingID)
	if err != nil {
		return false, fmt.Errorf("failed to check coach bookings: %w", err)
	}
	return !conflict, nil
}

// EquipmentAvailable reports whether qty more units of the inventory item can
// be held over [start, end) given units already booked for overlapping
// intervals. A non-positive qty is trivially available; an unknown inventory
// id is unavailable rather than an error, matching the court and coach
// checks which answer a question instead of validating references.
func (s *service) EquipmentAvailable(ctx context.Context, inventoryID string, qty int, start, end time.Time, excludeBookingID string) (bool, error) {
	if qty <= 0 {
		return true, nil
	}

	inv, err := s.equipment.FindInventoryByID(ctx, inventoryID)
	if err != nil {
		return false, fmt.Errorf("failed to check equipment availability: %w", err)
	}
	if inv == nil {
		return false, nil
	}

	booked, err := s.bookings.SumEquipmentBooked(ctx, inventoryID, start, end, excludeBookingID)
	if err != nil {
		return false, fmt.Errorf("failed to sum booked equipment: %w", err)
	}

	available := booked+qty <= inv.UsableStock()
	if !available {
		s.log.Debug("Equipment capacity exceeded",
			"inventory_id", inventoryID,
			"usable_stock", inv.UsableStock(),
			"already_booked", booked,
			"requested", qty,
		)
	}
	return available, nil
}
