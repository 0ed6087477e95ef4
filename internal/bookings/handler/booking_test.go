package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"courtside/internal/bookings/service"
	"courtside/internal/pricing"
	waitlistsvc "courtside/internal/waitlist/service"
	apperrors "courtside/pkg/errors"
	"courtside/pkg/logger"
	"courtside/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	createFunc func(ctx context.Context, req service.CreateRequest) (*model.Booking, error)
	cancelFunc func(ctx context.Context, bookingID, requesterID, requesterRole string) (*model.Booking, error)
	checkFunc  func(ctx context.Context, req service.CreateRequest) (*service.AvailabilityResult, error)
	listFunc   func(ctx context.Context, userID, requesterID, requesterRole string, limit int, offset int64) ([]*model.Booking, int64, error)
}

func (m *mockBookingService) Create(ctx context.Context, req service.CreateRequest) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &model.Booking{ID: "b1", Status: model.BookingStatusConfirmed}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, bookingID, requesterID, requesterRole string) (*model.Booking, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, bookingID, requesterID, requesterRole)
	}
	return &model.Booking{ID: bookingID, Status: model.BookingStatusCancelled}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, bookingID, requesterID, requesterRole string) (*model.Booking, error) {
	return &model.Booking{ID: bookingID}, nil
}

func (m *mockBookingService) ListByUser(ctx context.Context, userID, requesterID, requesterRole string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, requesterID, requesterRole, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockBookingService) Preview(ctx context.Context, req service.CreateRequest) (*pricing.Quote, error) {
	return &pricing.Quote{FinalPrice: 100}, nil
}

func (m *mockBookingService) CheckAvailability(ctx context.Context, req service.CreateRequest) (*service.AvailabilityResult, error) {
	if m.checkFunc != nil {
		return m.checkFunc(ctx, req)
	}
	return &service.AvailabilityResult{CourtAvailable: true, CoachAvailable: true, AllAvailable: true}, nil
}

type mockWaitlistService struct {
	addFunc func(ctx context.Context, req waitlistsvc.AddRequest) (*model.WaitlistEntry, error)
}

func (m *mockWaitlistService) Add(ctx context.Context, req waitlistsvc.AddRequest) (*model.WaitlistEntry, error) {
	if m.addFunc != nil {
		return m.addFunc(ctx, req)
	}
	return &model.WaitlistEntry{ID: "w1", Status: model.WaitlistStatusPending}, nil
}

func (m *mockWaitlistService) ProcessSlotFreed(ctx context.Context, courtID string, start, end time.Time) error {
	return nil
}

func testHandler(booking *mockBookingService, waitlist *mockWaitlistService) *BookingHandler {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewBookingHandler(booking, waitlist, log)
}

func newRouter(h *BookingHandler) *httprouter.Router {
	router := httprouter.New()
	h.RegisterRoutes(router)
	return router
}

func TestCreate_UsesIdentityHeader(t *testing.T) {
	var received service.CreateRequest
	booking := &mockBookingService{
		createFunc: func(ctx context.Context, req service.CreateRequest) (*model.Booking, error) {
			received = req
			return &model.Booking{ID: "b1", UserID: req.UserID, Status: model.BookingStatusConfirmed}, nil
		},
	}
	router := newRouter(testHandler(booking, &mockWaitlistService{}))

	body := `{
		"user_id": "64f000000000000000000099",
		"court_id": "64f000000000000000000001",
		"start_time": "2026-09-01T10:00:00Z",
		"end_time": "2026-09-01T11:00:00Z"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set(HeaderUserID, "64f000000000000000000010")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	// The gateway identity wins over whatever the body claims.
	if received.UserID != "64f000000000000000000010" {
		t.Errorf("UserID = %s, want the header identity", received.UserID)
	}
}

func TestCreate_InvalidBody(t *testing.T) {
	router := newRouter(testHandler(&mockBookingService{}, &mockWaitlistService{}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreate_ConflictMapsToConflictStatus(t *testing.T) {
	booking := &mockBookingService{
		createFunc: func(ctx context.Context, req service.CreateRequest) (*model.Booking, error) {
			return nil, apperrors.CourtUnavailable(req.CourtID, "", "")
		},
	}
	router := newRouter(testHandler(booking, &mockWaitlistService{}))

	body := `{
		"court_id": "64f000000000000000000001",
		"start_time": "2026-09-01T10:00:00Z",
		"end_time": "2026-09-01T11:00:00Z"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}

	var resp struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Code != apperrors.CodeCourtUnavailable {
		t.Errorf("code = %s, want %s", resp.Code, apperrors.CodeCourtUnavailable)
	}
}

func TestCancel_PassesRequesterIdentity(t *testing.T) {
	var gotID, gotRequester, gotRole string
	booking := &mockBookingService{
		cancelFunc: func(ctx context.Context, bookingID, requesterID, requesterRole string) (*model.Booking, error) {
			gotID, gotRequester, gotRole = bookingID, requesterID, requesterRole
			return &model.Booking{ID: bookingID, Status: model.BookingStatusCancelled}, nil
		},
	}
	router := newRouter(testHandler(booking, &mockWaitlistService{}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/64f0000000000000000000aa/cancel", nil)
	req.Header.Set(HeaderUserID, "64f000000000000000000010")
	req.Header.Set(HeaderUserRole, "admin")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotID != "64f0000000000000000000aa" || gotRequester != "64f000000000000000000010" || gotRole != "admin" {
		t.Errorf("Cancel called with (%s, %s, %s)", gotID, gotRequester, gotRole)
	}
}

func TestListByUser_WritesPaginatedResponse(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	booking := &mockBookingService{
		listFunc: func(ctx context.Context, userID, requesterID, requesterRole string, limit int, offset int64) ([]*model.Booking, int64, error) {
			gotLimit, gotOffset = limit, offset
			return []*model.Booking{{ID: "b1"}, {ID: "b2"}}, 5, nil
		},
	}
	router := newRouter(testHandler(booking, &mockWaitlistService{}))

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/users/64f000000000000000000010/bookings?limit=2&offset=1", nil)
	req.Header.Set(HeaderUserID, "64f000000000000000000010")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotLimit != 2 || gotOffset != 1 {
		t.Errorf("service called with limit=%d offset=%d, want 2 and 1", gotLimit, gotOffset)
	}

	var resp struct {
		Data       []json.RawMessage `json:"data"`
		TotalCount int64             `json:"total_count"`
		Limit      int               `json:"limit"`
		Offset     int64             `json:"offset"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode paginated response: %v", err)
	}
	if len(resp.Data) != 2 || resp.TotalCount != 5 || resp.Limit != 2 || resp.Offset != 1 {
		t.Errorf("paginated envelope = %+v, want 2 items of 5 with limit 2 offset 1", resp)
	}
}

func TestListByUser_InvalidLimit(t *testing.T) {
	router := newRouter(testHandler(&mockBookingService{}, &mockWaitlistService{}))

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/users/64f000000000000000000010/bookings?limit=abc", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCheckAvailability_RequiresCourtID(t *testing.T) {
	router := newRouter(testHandler(&mockBookingService{}, &mockWaitlistService{}))

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/availability?start=2026-09-01T10:00:00Z&end=2026-09-01T11:00:00Z", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCheckAvailability_InvalidTimeRange(t *testing.T) {
	router := newRouter(testHandler(&mockBookingService{}, &mockWaitlistService{}))

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/availability?court_id=64f000000000000000000001&start=bad&end=2026-09-01T11:00:00Z", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestJoinWaitlist(t *testing.T) {
	var received waitlistsvc.AddRequest
	waitlist := &mockWaitlistService{
		addFunc: func(ctx context.Context, req waitlistsvc.AddRequest) (*model.WaitlistEntry, error) {
			received = req
			return &model.WaitlistEntry{ID: "w1", Status: model.WaitlistStatusPending}, nil
		},
	}
	router := newRouter(testHandler(&mockBookingService{}, waitlist))

	body := `{
		"court_id": "64f000000000000000000001",
		"start_time": "2026-09-01T18:00:00Z",
		"end_time": "2026-09-01T19:00:00Z"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/waitlist", strings.NewReader(body))
	req.Header.Set(HeaderUserID, "64f000000000000000000010")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if received.UserID != "64f000000000000000000010" {
		t.Errorf("UserID = %s, want the header identity", received.UserID)
	}
}
