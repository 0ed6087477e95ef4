package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"courtside/internal/availability"
	bookingserrors "courtside/internal/bookings/errors"
	"courtside/internal/bookings/validator"
	"courtside/internal/pricing"
	"courtside/pkg/config"
	mongotx "courtside/pkg/db/mongo"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/kafka"
	"courtside/pkg/lock"
	"courtside/pkg/logger"
	"courtside/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// memoryBookingRepository keeps bookings in a slice and reimplements the
// overlap queries so coordinator tests run against real conflict semantics.
type memoryBookingRepository struct {
	mu       sync.Mutex
	nextID   int
	bookings []*model.Booking
}

func (m *memoryBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	booking.ID = "booking-" + strconv.Itoa(m.nextID)
	booking.CreatedAt = time.Now().UTC()
	copied := *booking
	m.bookings = append(m.bookings, &copied)
	return nil
}

func (m *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id {
			copied := *b
			return &copied, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *memoryBookingRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*model.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			copied := *b
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StartTime.After(matched[j].StartTime) })

	total := int64(len(matched))
	if offset >= total {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m *memoryBookingRepository) ExistsOverlapping(ctx context.Context, resourceField, resourceID string, start, end time.Time, excludeBookingID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == excludeBookingID || b.Status == model.BookingStatusCancelled {
			continue
		}
		var id string
		switch resourceField {
		case "court_id":
			id = b.CourtID
		case "coach_id":
			id = b.CoachID
		}
		if id != resourceID {
			continue
		}
		if b.StartTime.Before(end) && b.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryBookingRepository) SumEquipmentBooked(ctx context.Context, inventoryID string, start, end time.Time, excludeBookingID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, b := range m.bookings {
		if b.ID == excludeBookingID || b.Status == model.BookingStatusCancelled {
			continue
		}
		if !(b.StartTime.Before(end) && b.EndTime.After(start)) {
			continue
		}
		for _, line := range b.Equipment {
			if line.InventoryID == inventoryID {
				total += line.Qty
			}
		}
	}
	return total, nil
}

func (m *memoryBookingRepository) UpdateStatus(ctx context.Context, id, status string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id {
			b.Status = status
			copied := *b
			return &copied, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *memoryBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockCoachRepository struct {
	shift *model.CoachAvailability
}

func (m *mockCoachRepository) FindByID(ctx context.Context, id string) (*model.Coach, error) {
	return &model.Coach{ID: id, Name: "Coach", HourlyRate: 30, IsActive: true}, nil
}

func (m *mockCoachRepository) FindShift(ctx context.Context, coachID string, date time.Time) (*model.CoachAvailability, error) {
	return m.shift, nil
}

type mockEquipmentRepository struct {
	inventory map[string]*model.EquipmentInventory
}

func (m *mockEquipmentRepository) FindCatalogByID(ctx context.Context, id string) (*model.EquipmentCatalog, error) {
	return &model.EquipmentCatalog{ID: id, Name: "Racket", PricePerSession: 5}, nil
}

func (m *mockEquipmentRepository) FindInventoryByID(ctx context.Context, id string) (*model.EquipmentInventory, error) {
	return m.inventory[id], nil
}

type staticPricer struct {
	price float64
}

func (p *staticPricer) Quote(ctx context.Context, courtID, coachID string, equipment []model.EquipmentLine, start, end time.Time) (*pricing.Quote, error) {
	return &pricing.Quote{
		FinalPrice: p.price,
		Breakdown:  pricing.Breakdown{Subtotal: p.price, Adjustments: []pricing.Adjustment{}},
	}, nil
}

type capturingPublisher struct {
	mu       sync.Mutex
	messages []kafka.Message
}

func (p *capturingPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, msg := range p.messages {
		types = append(types, msg.EventType())
	}
	return types
}

func testConfig() *config.Config {
	return &config.Config{
		LockTTL:      5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		Log:          logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT}),
	}
}

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return parsed
}

const (
	testUserID    = "64f000000000000000000010"
	testCourtID   = "64f000000000000000000001"
	testCoachID   = "64f000000000000000000002"
	testInventory = "64f000000000000000000003"
	otherUserID   = "64f000000000000000000011"
)

type fixture struct {
	svc            BookingService
	repo           *memoryBookingRepository
	bookingEvents  *capturingPublisher
	waitlistEvents *capturingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	repo := &memoryBookingRepository{}

	coaches := &mockCoachRepository{
		shift: &model.CoachAvailability{
			CoachID:     testCoachID,
			StartTime:   "08:00",
			EndTime:     "20:00",
			IsAvailable: true,
		},
	}
	equipment := &mockEquipmentRepository{
		inventory: map[string]*model.EquipmentInventory{
			testInventory: {ID: testInventory, CatalogID: "64f000000000000000000004", TotalStock: 10},
		},
	}

	checker := availability.NewService(repo, coaches, equipment, cfg.Log)
	bookingEvents := &capturingPublisher{}
	waitlistEvents := &capturingPublisher{}

	svc := NewBookingService(
		cfg,
		repo,
		checker,
		&staticPricer{price: 100},
		lock.NewMemoryLock(),
		validator.NewBookingValidator(cfg.Log),
		bookingEvents,
		waitlistEvents,
	)

	return &fixture{
		svc:            svc,
		repo:           repo,
		bookingEvents:  bookingEvents,
		waitlistEvents: waitlistEvents,
	}
}

func validRequest(t *testing.T) CreateRequest {
	return CreateRequest{
		UserID:    testUserID,
		CourtID:   testCourtID,
		StartTime: mustParse(t, "2026-09-01T10:00:00Z"),
		EndTime:   mustParse(t, "2026-09-01T11:00:00Z"),
	}
}

func TestCreate_Success(t *testing.T) {
	f := newFixture(t)

	booking, err := f.svc.Create(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if booking.ID == "" {
		t.Error("expected booking to be assigned an id")
	}
	if booking.Status != model.BookingStatusConfirmed {
		t.Errorf("Status = %s, want confirmed", booking.Status)
	}
	if booking.TotalPrice != 100 {
		t.Errorf("TotalPrice = %v, want 100", booking.TotalPrice)
	}

	types := f.bookingEvents.eventTypes()
	if len(types) != 1 || types[0] != kafka.EventBookingCreated {
		t.Errorf("booking events = %v, want [%s]", types, kafka.EventBookingCreated)
	}
}

func TestCreate_InvalidTimeRange(t *testing.T) {
	f := newFixture(t)

	req := validRequest(t)
	req.EndTime = req.StartTime

	_, err := f.svc.Create(context.Background(), req)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("error = %v, want code %s", err, apperrors.CodeValidation)
	}
}

func TestCreate_CourtConflict(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Create(context.Background(), validRequest(t)); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}

	req := validRequest(t)
	req.UserID = otherUserID
	req.StartTime = mustParse(t, "2026-09-01T10:30:00Z")
	req.EndTime = mustParse(t, "2026-09-01T11:30:00Z")

	_, err := f.svc.Create(context.Background(), req)
	if !apperrors.IsCode(err, apperrors.CodeCourtUnavailable) {
		t.Errorf("error = %v, want code %s", err, apperrors.CodeCourtUnavailable)
	}
}

func TestCreate_BackToBackDoesNotConflict(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Create(context.Background(), validRequest(t)); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}

	req := validRequest(t)
	req.StartTime = mustParse(t, "2026-09-01T11:00:00Z")
	req.EndTime = mustParse(t, "2026-09-01T12:00:00Z")

	if _, err := f.svc.Create(context.Background(), req); err != nil {
		t.Errorf("back-to-back Create returned error: %v", err)
	}
}

func TestCreate_CoachOutsideShift(t *testing.T) {
	f := newFixture(t)

	req := validRequest(t)
	req.CoachID = testCoachID
	req.StartTime = mustParse(t, "2026-09-01T19:00:00Z")
	req.EndTime = mustParse(t, "2026-09-01T21:00:00Z")

	_, err := f.svc.Create(context.Background(), req)
	if !apperrors.IsCode(err, apperrors.CodeCoachUnavailable) {
		t.Errorf("error = %v, want code %s", err, apperrors.CodeCoachUnavailable)
	}
}

func TestCreate_InsufficientEquipment(t *testing.T) {
	f := newFixture(t)

	first := validRequest(t)
	first.Equipment = []model.EquipmentLine{{InventoryID: testInventory, Qty: 8}}
	if _, err := f.svc.Create(context.Background(), first); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}

	// Different court, same window, so only equipment can conflict.
	second := CreateRequest{
		UserID:    otherUserID,
		CourtID:   "64f000000000000000000005",
		Equipment: []model.EquipmentLine{{InventoryID: testInventory, Qty: 3}},
		StartTime: first.StartTime,
		EndTime:   first.EndTime,
	}

	_, err := f.svc.Create(context.Background(), second)
	if !apperrors.IsCode(err, apperrors.CodeInsufficientEquipment) {
		t.Errorf("error = %v, want code %s", err, apperrors.CodeInsufficientEquipment)
	}

	second.Equipment[0].Qty = 2
	if _, err := f.svc.Create(context.Background(), second); err != nil {
		t.Errorf("Create within remaining stock returned error: %v", err)
	}
}

func TestCreate_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)

	// Built before the goroutines start; t.Fatalf inside mustParse may only
	// run on the test goroutine.
	req := validRequest(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), req)
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case apperrors.IsCode(err, apperrors.CodeCourtUnavailable),
			apperrors.IsCode(err, apperrors.CodeResourceBusy):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if successes != 1 || conflicts != 1 {
		t.Errorf("successes = %d, conflicts = %d, want exactly one of each", successes, conflicts)
	}
	if len(f.repo.bookings) != 1 {
		t.Errorf("persisted bookings = %d, want 1", len(f.repo.bookings))
	}
}

func TestCreate_ReleasesLocksOnFailure(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Create(context.Background(), validRequest(t)); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}

	// Conflicts on the court, fails inside the transaction.
	req := validRequest(t)
	req.UserID = otherUserID
	if _, err := f.svc.Create(context.Background(), req); err == nil {
		t.Fatal("expected conflicting Create to fail")
	}

	// A different window on the same court must still be able to lock it.
	req.StartTime = mustParse(t, "2026-09-01T14:00:00Z")
	req.EndTime = mustParse(t, "2026-09-01T15:00:00Z")
	if _, err := f.svc.Create(context.Background(), req); err != nil {
		t.Errorf("Create after failed attempt returned error: %v", err)
	}
}

func TestCancel_Owner(t *testing.T) {
	f := newFixture(t)

	booking, err := f.svc.Create(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	cancelled, err := f.svc.Cancel(context.Background(), booking.ID, testUserID, "member")
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if cancelled.Status != model.BookingStatusCancelled {
		t.Errorf("Status = %s, want cancelled", cancelled.Status)
	}

	types := f.bookingEvents.eventTypes()
	if len(types) != 2 || types[1] != kafka.EventBookingCancelled {
		t.Errorf("booking events = %v, want created then cancelled", types)
	}
	waitlistTypes := f.waitlistEvents.eventTypes()
	if len(waitlistTypes) != 1 || waitlistTypes[0] != kafka.EventSlotFreed {
		t.Errorf("waitlist events = %v, want [%s]", waitlistTypes, kafka.EventSlotFreed)
	}
}

func TestCancel_NonOwnerForbidden(t *testing.T) {
	f := newFixture(t)

	booking, err := f.svc.Create(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err = f.svc.Cancel(context.Background(), booking.ID, otherUserID, "member")
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("error = %v, want code %s", err, apperrors.CodeForbidden)
	}
}

func TestCancel_AdminMayCancelAnyBooking(t *testing.T) {
	f := newFixture(t)

	booking, err := f.svc.Create(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := f.svc.Cancel(context.Background(), booking.ID, otherUserID, RoleAdmin); err != nil {
		t.Errorf("admin Cancel returned error: %v", err)
	}
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	f := newFixture(t)

	booking, err := f.svc.Create(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), booking.ID, testUserID, "member"); err != nil {
		t.Fatalf("first Cancel returned error: %v", err)
	}

	_, err = f.svc.Cancel(context.Background(), booking.ID, testUserID, "member")
	if !apperrors.IsCode(err, apperrors.CodeAlreadyCancelled) {
		t.Errorf("error = %v, want code %s", err, apperrors.CodeAlreadyCancelled)
	}
}

func TestCancel_FreesTheSlot(t *testing.T) {
	f := newFixture(t)

	booking, err := f.svc.Create(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	req := validRequest(t)
	req.UserID = otherUserID
	if _, err := f.svc.Create(context.Background(), req); err == nil {
		t.Fatal("expected conflicting Create to fail before cancellation")
	}

	if _, err := f.svc.Cancel(context.Background(), booking.ID, testUserID, "member"); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	if _, err := f.svc.Create(context.Background(), req); err != nil {
		t.Errorf("Create after cancellation returned error: %v", err)
	}
}

func TestCancel_UnknownBooking(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Cancel(context.Background(), "64f0000000000000000000ff", testUserID, "member")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("error = %v, want code %s", err, apperrors.CodeNotFound)
	}
}

func TestGetByID_OwnershipEnforced(t *testing.T) {
	f := newFixture(t)

	booking, err := f.svc.Create(context.Background(), validRequest(t))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := f.svc.GetByID(context.Background(), booking.ID, testUserID, "member"); err != nil {
		t.Errorf("owner GetByID returned error: %v", err)
	}
	if _, err := f.svc.GetByID(context.Background(), booking.ID, otherUserID, "member"); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("non-owner GetByID error = %v, want code %s", err, apperrors.CodeForbidden)
	}
	if _, err := f.svc.GetByID(context.Background(), booking.ID, otherUserID, RoleAdmin); err != nil {
		t.Errorf("admin GetByID returned error: %v", err)
	}
}

func TestListByUser_Paginates(t *testing.T) {
	f := newFixture(t)

	for hour := 10; hour < 13; hour++ {
		req := validRequest(t)
		req.StartTime = time.Date(2026, 9, 1, hour, 0, 0, 0, time.UTC)
		req.EndTime = req.StartTime.Add(time.Hour)
		if _, err := f.svc.Create(context.Background(), req); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	bookings, total, err := f.svc.ListByUser(context.Background(), testUserID, testUserID, "member", 2, 1)
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}

	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(bookings) != 2 {
		t.Fatalf("page size = %d, want 2", len(bookings))
	}
	// Newest first; offset 1 skips the 12:00 booking.
	if got := bookings[0].StartTime.Hour(); got != 11 {
		t.Errorf("first booking hour = %d, want 11", got)
	}
}

func TestListByUser_OtherUserForbidden(t *testing.T) {
	f := newFixture(t)

	if _, _, err := f.svc.ListByUser(context.Background(), testUserID, otherUserID, "member", 10, 0); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("error = %v, want code %s", err, apperrors.CodeForbidden)
	}
	if _, _, err := f.svc.ListByUser(context.Background(), testUserID, otherUserID, RoleAdmin, 10, 0); err != nil {
		t.Errorf("admin ListByUser returned error: %v", err)
	}
}

func TestCheckAvailability_ReportsPerResource(t *testing.T) {
	f := newFixture(t)

	first := validRequest(t)
	first.Equipment = []model.EquipmentLine{{InventoryID: testInventory, Qty: 10}}
	if _, err := f.svc.Create(context.Background(), first); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	req := CreateRequest{
		UserID:    otherUserID,
		CourtID:   "64f000000000000000000005",
		Equipment: []model.EquipmentLine{{InventoryID: testInventory, Qty: 1}},
		StartTime: first.StartTime,
		EndTime:   first.EndTime,
	}

	result, err := f.svc.CheckAvailability(context.Background(), req)
	if err != nil {
		t.Fatalf("CheckAvailability returned error: %v", err)
	}

	if !result.CourtAvailable {
		t.Error("expected the other court to be available")
	}
	if len(result.Equipment) != 1 || result.Equipment[0].Available {
		t.Errorf("equipment availability = %+v, want exhausted inventory", result.Equipment)
	}
	if result.AllAvailable {
		t.Error("AllAvailable should be false when equipment is exhausted")
	}
}
