package service

import (
	"context"
	"time"

	bookingsvc "courtside/internal/bookings/service"
	"courtside/internal/bookings/validator"
	waitlistrepo "courtside/internal/waitlist/repository"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/logger"
	"courtside/pkg/model"
)

// Booker is the slice of the booking coordinator the processor needs.
// Auto-booking goes through the same path as a user request, so it takes the
// same locks and runs the same authoritative availability re-check.
type Booker interface {
	Create(ctx context.Context, req bookingsvc.CreateRequest) (*model.Booking, error)
}

// CourtChecker is the slice of the availability service the processor uses to
// screen candidates cheaply before attempting a full booking.
type CourtChecker interface {
	CourtAvailable(ctx context.Context, courtID string, start, end time.Time, excludeBookingID string) (bool, error)
}

type AddRequest struct {
	UserID    string    `json:"user_id"`
	CourtID   string    `json:"court_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type WaitlistService interface {
	Add(ctx context.Context, req AddRequest) (*model.WaitlistEntry, error)
	// ProcessSlotFreed replays pending entries contained in the freed window
	// in first-requested-first-served order, stopping at the first entry that
	// books successfully.
	ProcessSlotFreed(ctx context.Context, courtID string, start, end time.Time) error
}

type waitlistService struct {
	repo      waitlistrepo.WaitlistRepository
	booker    Booker
	checker   CourtChecker
	validator *validator.BookingValidator
	log       *logger.Logger
}

func NewWaitlistService(
	repo waitlistrepo.WaitlistRepository,
	booker Booker,
	checker CourtChecker,
	bookingValidator *validator.BookingValidator,
	log *logger.Logger,
) WaitlistService {
	return &waitlistService{
		repo:      repo,
		booker:    booker,
		checker:   checker,
		validator: bookingValidator,
		log:       log,
	}
}

func (s *waitlistService) Add(ctx context.Context, req AddRequest) (*model.WaitlistEntry, error) {
	entry := &model.WaitlistEntry{
		UserID:    req.UserID,
		CourtID:   req.CourtID,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		Status:    model.WaitlistStatusPending,
	}
	if err := s.validator.ValidateWaitlistEntry(entry); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, apperrors.Internal("failed to create waitlist entry", err)
	}

	s.log.Info("Waitlist entry created",
		"entry_id", entry.ID,
		"court_id", entry.CourtID,
		"user_id", entry.UserID,
	)
	return entry, nil
}

func (s *waitlistService) ProcessSlotFreed(ctx context.Context, courtID string, start, end time.Time) error {
	entries, err := s.repo.FindPendingWithin(ctx, courtID, start, end)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	s.log.Info("Processing freed slot",
		"court_id", courtID,
		"start", start,
		"end", end,
		"candidates", len(entries),
	)

	for _, entry := range entries {
		// Cheap screen on the entry's own window. Create re-checks under
		// lock, so a stale answer here only costs a wasted attempt.
		available, err := s.checker.CourtAvailable(ctx, entry.CourtID, entry.StartTime, entry.EndTime, "")
		if err != nil {
			s.log.Warn("Waitlist candidate pre-check failed, attempting booking anyway",
				"entry_id", entry.ID,
				"error", err,
			)
		} else if !available {
			s.log.Info("Skipping waitlist candidate, window no longer free",
				"entry_id", entry.ID,
				"user_id", entry.UserID,
			)
			continue
		}

		booking, err := s.booker.Create(ctx, bookingsvc.CreateRequest{
			UserID:    entry.UserID,
			CourtID:   entry.CourtID,
			StartTime: entry.StartTime,
			EndTime:   entry.EndTime,
		})
		if err != nil {
			// A failed candidate never blocks the ones behind it.
			s.log.Warn("Waitlist auto-booking failed, trying next candidate",
				"entry_id", entry.ID,
				"user_id", entry.UserID,
				"error", err,
			)
			continue
		}

		if _, err := s.repo.UpdateStatus(ctx, entry.ID, model.WaitlistStatusFulfilled); err != nil {
			// The booking exists; losing the status update must not roll it
			// back or promote another candidate into the same slot.
			s.log.Error("Waitlist entry booked but status update failed",
				"entry_id", entry.ID,
				"booking_id", booking.ID,
				"error", err,
			)
			return err
		}

		s.log.Info("Waitlist entry fulfilled",
			"entry_id", entry.ID,
			"booking_id", booking.ID,
			"user_id", entry.UserID,
		)
		return nil
	}

	return nil
}
