package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"courtside/internal/availability"
	bookingserrors "courtside/internal/bookings/errors"
	bookingrepo "courtside/internal/bookings/repository"
	"courtside/internal/bookings/validator"
	"courtside/internal/events"
	"courtside/internal/pricing"
	pricingservice "courtside/internal/pricing/service"
	"courtside/pkg/config"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/kafka"
	"courtside/pkg/lock"
	"courtside/pkg/logger"
	"courtside/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	RoleAdmin = "admin"

	eventSource = "courtside-bookings"
)

// EventPublisher is the slice of the Kafka producer the coordinator needs.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// CreateRequest is a prospective booking before pricing and persistence.
type CreateRequest struct {
	UserID    string                `json:"user_id"`
	CourtID   string                `json:"court_id"`
	CoachID   string                `json:"coach_id,omitempty"`
	Equipment []model.EquipmentLine `json:"equipment,omitempty"`
	StartTime time.Time             `json:"start_time"`
	EndTime   time.Time             `json:"end_time"`
}

// AvailabilityResult reports each requested resource separately so a client
// can tell the user what exactly is blocking the slot.
type AvailabilityResult struct {
	CourtAvailable bool                        `json:"court_available"`
	CoachAvailable bool                        `json:"coach_available"`
	Equipment      []EquipmentLineAvailability `json:"equipment,omitempty"`
	AllAvailable   bool                        `json:"all_available"`
}

type EquipmentLineAvailability struct {
	InventoryID string `json:"inventory_id"`
	Qty         int    `json:"qty"`
	Available   bool   `json:"available"`
}

type BookingService interface {
	Create(ctx context.Context, req CreateRequest) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID, requesterID, requesterRole string) (*model.Booking, error)
	GetByID(ctx context.Context, bookingID, requesterID, requesterRole string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID, requesterID, requesterRole string, limit int, offset int64) ([]*model.Booking, int64, error)
	Preview(ctx context.Context, req CreateRequest) (*pricing.Quote, error)
	CheckAvailability(ctx context.Context, req CreateRequest) (*AvailabilityResult, error)
}

// bookingService coordinates locking, the authoritative availability
// re-check, pricing, and atomic persistence.
type bookingService struct {
	cfg            *config.Config
	repo           bookingrepo.BookingRepository
	checker        availability.Service
	pricer         pricingservice.PricingService
	locks          lock.ResourceLock
	validator      *validator.BookingValidator
	bookingEvents  EventPublisher
	waitlistEvents EventPublisher
	log            *logger.Logger
}

func NewBookingService(
	cfg *config.Config,
	repo bookingrepo.BookingRepository,
	checker availability.Service,
	pricer pricingservice.PricingService,
	locks lock.ResourceLock,
	bookingValidator *validator.BookingValidator,
	bookingEvents EventPublisher,
	waitlistEvents EventPublisher,
) BookingService {
	return &bookingService{
		cfg:            cfg,
		repo:           repo,
		checker:        checker,
		pricer:         pricer,
		locks:          locks,
		validator:      bookingValidator,
		bookingEvents:  bookingEvents,
		waitlistEvents: waitlistEvents,
		log:            cfg.Log,
	}
}

func (s *bookingService) Create(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	booking := &model.Booking{
		UserID:    req.UserID,
		CourtID:   req.CourtID,
		CoachID:   req.CoachID,
		Equipment: req.Equipment,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		Status:    model.BookingStatusConfirmed,
	}
	if err := s.validator.Validate(booking); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	// Locks are acquired in sorted key order so two requests contending on
	// the same resource set cannot deadlock each other.
	keys := lockKeys(req)
	release, err := s.acquireAll(ctx, keys)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.checkAll(sessCtx, req, ""); err != nil {
			return err
		}

		quote, err := s.pricer.Quote(sessCtx, req.CourtID, req.CoachID, req.Equipment, booking.StartTime, booking.EndTime)
		if err != nil {
			return err
		}
		booking.TotalPrice = quote.FinalPrice

		return s.repo.Create(sessCtx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking created",
		"booking_id", booking.ID,
		"user_id", booking.UserID,
		"court_id", booking.CourtID,
		"total_price", booking.TotalPrice,
	)
	s.publishBookingCreated(ctx, booking)

	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, bookingID, requesterID, requesterRole string) (*model.Booking, error) {
	var cancelled *model.Booking

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booking, err := s.repo.FindByID(sessCtx, bookingID)
		if err != nil {
			return mapRepoError(err, bookingID)
		}

		if requesterRole != RoleAdmin && booking.UserID != requesterID {
			return apperrors.Forbidden("only the booking owner or an admin can cancel a booking")
		}
		if booking.Status == model.BookingStatusCancelled {
			return apperrors.AlreadyCancelled(bookingID)
		}

		cancelled, err = s.repo.UpdateStatus(sessCtx, bookingID, model.BookingStatusCancelled)
		if err != nil {
			return mapRepoError(err, bookingID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking cancelled",
		"booking_id", cancelled.ID,
		"cancelled_by", requesterID,
	)
	s.publishBookingCancelled(ctx, cancelled, requesterID)
	s.publishSlotFreed(ctx, cancelled)

	return cancelled, nil
}

func (s *bookingService) GetByID(ctx context.Context, bookingID, requesterID, requesterRole string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, mapRepoError(err, bookingID)
	}
	if requesterRole != RoleAdmin && booking.UserID != requesterID {
		return nil, apperrors.Forbidden("only the booking owner or an admin can view a booking")
	}
	return booking, nil
}

func (s *bookingService) ListByUser(ctx context.Context, userID, requesterID, requesterRole string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if requesterRole != RoleAdmin && userID != requesterID {
		return nil, 0, apperrors.Forbidden("only the user or an admin can list a user's bookings")
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return s.repo.FindByUser(ctx, userID, limit, offset)
}

// Preview prices a prospective booking without locking or persisting.
func (s *bookingService) Preview(ctx context.Context, req CreateRequest) (*pricing.Quote, error) {
	if err := validateTimeRange(req); err != nil {
		return nil, err
	}
	return s.pricer.Quote(ctx, req.CourtID, req.CoachID, req.Equipment, req.StartTime.UTC(), req.EndTime.UTC())
}

// CheckAvailability is the advisory pre-check; the answer can be stale by the
// time a booking is attempted, which is why Create re-checks under lock.
func (s *bookingService) CheckAvailability(ctx context.Context, req CreateRequest) (*AvailabilityResult, error) {
	if err := validateTimeRange(req); err != nil {
		return nil, err
	}
	start, end := req.StartTime.UTC(), req.EndTime.UTC()

	result := &AvailabilityResult{AllAvailable: true}

	courtOK, err := s.checker.CourtAvailable(ctx, req.CourtID, start, end, "")
	if err != nil {
		return nil, apperrors.Internal("failed to check court availability", err)
	}
	result.CourtAvailable = courtOK
	result.AllAvailable = result.AllAvailable && courtOK

	coachOK, err := s.checker.CoachAvailable(ctx, req.CoachID, start, end, "")
	if err != nil {
		return nil, apperrors.Internal("failed to check coach availability", err)
	}
	result.CoachAvailable = coachOK
	result.AllAvailable = result.AllAvailable && coachOK

	for _, line := range mergeEquipmentLines(req.Equipment) {
		ok, err := s.checker.EquipmentAvailable(ctx, line.InventoryID, line.Qty, start, end, "")
		if err != nil {
			return nil, apperrors.Internal("failed to check equipment availability", err)
		}
		result.Equipment = append(result.Equipment, EquipmentLineAvailability{
			InventoryID: line.InventoryID,
			Qty:         line.Qty,
			Available:   ok,
		})
		result.AllAvailable = result.AllAvailable && ok
	}

	return result, nil
}

// checkAll is the authoritative availability re-check, run inside the
// transaction while the resource locks are held.
func (s *bookingService) checkAll(ctx context.Context, req CreateRequest, excludeBookingID string) error {
	start, end := req.StartTime.UTC(), req.EndTime.UTC()

	courtOK, err := s.checker.CourtAvailable(ctx, req.CourtID, start, end, excludeBookingID)
	if err != nil {
		return apperrors.Internal("failed to check court availability", err)
	}
	if !courtOK {
		return apperrors.CourtUnavailable(req.CourtID, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	coachOK, err := s.checker.CoachAvailable(ctx, req.CoachID, start, end, excludeBookingID)
	if err != nil {
		return apperrors.Internal("failed to check coach availability", err)
	}
	if !coachOK {
		return apperrors.CoachUnavailable(req.CoachID, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	for _, line := range mergeEquipmentLines(req.Equipment) {
		ok, err := s.checker.EquipmentAvailable(ctx, line.InventoryID, line.Qty, start, end, excludeBookingID)
		if err != nil {
			return apperrors.Internal("failed to check equipment availability", err)
		}
		if !ok {
			return apperrors.InsufficientEquipment(line.InventoryID, line.Qty)
		}
	}

	return nil
}

// acquireAll takes every lock in order and returns a single release function.
// On a partial failure the locks already held are released before returning.
func (s *bookingService) acquireAll(ctx context.Context, keys []string) (func(), error) {
	type held struct {
		key   string
		token string
	}
	var acquired []held

	release := func() {
		// Locks are released even when the request context was cancelled;
		// otherwise the resources stay blocked until the TTL expires.
		releaseCtx := context.WithoutCancel(ctx)
		for i := len(acquired) - 1; i >= 0; i-- {
			if err := s.locks.Release(releaseCtx, acquired[i].key, acquired[i].token); err != nil {
				s.log.Warn("Failed to release resource lock",
					"key", acquired[i].key,
					"error", err,
				)
			}
		}
	}

	for _, key := range keys {
		token, err := s.locks.Acquire(ctx, key, s.cfg.LockTTL)
		if err != nil {
			release()
			if errors.Is(err, lock.ErrNotAcquired) {
				return nil, apperrors.ResourceBusy(key)
			}
			return nil, apperrors.Internal("failed to acquire resource lock", err)
		}
		acquired = append(acquired, held{key: key, token: token})
	}

	return release, nil
}

// lockKeys returns the sorted, deduplicated lock keys for a request.
func lockKeys(req CreateRequest) []string {
	seen := map[string]struct{}{
		"court:" + req.CourtID: {},
	}
	if req.CoachID != "" {
		seen["coach:"+req.CoachID] = struct{}{}
	}
	for _, line := range req.Equipment {
		seen["inventory:"+line.InventoryID] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// mergeEquipmentLines sums quantities of repeated inventory ids so the
// capacity check sees the request's true total per item. Order of first
// appearance is preserved.
func mergeEquipmentLines(lines []model.EquipmentLine) []model.EquipmentLine {
	if len(lines) < 2 {
		return lines
	}

	index := make(map[string]int, len(lines))
	merged := make([]model.EquipmentLine, 0, len(lines))
	for _, line := range lines {
		if i, ok := index[line.InventoryID]; ok {
			merged[i].Qty += line.Qty
			continue
		}
		index[line.InventoryID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

func validateTimeRange(req CreateRequest) error {
	if !req.StartTime.Before(req.EndTime) {
		return apperrors.InvalidInput(bookingserrors.ErrInvalidTimeRange.Error())
	}
	return nil
}

func mapRepoError(err error, bookingID string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("booking", bookingID)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput(err.Error())
	default:
		return apperrors.Internal("booking lookup failed", err)
	}
}

func (s *bookingService) publishBookingCreated(ctx context.Context, booking *model.Booking) {
	payload := events.BookingCreated{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		CourtID:    booking.CourtID,
		CoachID:    booking.CoachID,
		StartTime:  booking.StartTime,
		EndTime:    booking.EndTime,
		TotalPrice: booking.TotalPrice,
	}
	s.publish(ctx, s.bookingEvents, booking.CourtID, kafka.EventBookingCreated, payload)
}

func (s *bookingService) publishBookingCancelled(ctx context.Context, booking *model.Booking, cancelledBy string) {
	payload := events.BookingCancelled{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		CourtID:     booking.CourtID,
		CancelledBy: cancelledBy,
	}
	s.publish(ctx, s.bookingEvents, booking.CourtID, kafka.EventBookingCancelled, payload)
}

// publishSlotFreed hands the freed interval to the waitlist processor. The
// cancellation has already committed, so a publish failure is logged and the
// cancellation still succeeds.
func (s *bookingService) publishSlotFreed(ctx context.Context, booking *model.Booking) {
	payload := events.SlotFreed{
		BookingID: booking.ID,
		CourtID:   booking.CourtID,
		StartTime: booking.StartTime,
		EndTime:   booking.EndTime,
	}
	s.publish(ctx, s.waitlistEvents, booking.CourtID, kafka.EventSlotFreed, payload)
}

func (s *bookingService) publish(ctx context.Context, publisher EventPublisher, key, eventType string, payload any) {
	if publisher == nil {
		return
	}

	msg, err := kafka.NewMessage(key, eventType, eventSource, payload)
	if err != nil {
		s.log.Error("Failed to encode event", "event_type", eventType, "error", err)
		return
	}
	if err := publisher.Publish(context.WithoutCancel(ctx), msg); err != nil {
		s.log.Error("Failed to publish event", "event_type", eventType, "error", err)
	}
}
