package validator

import (
	"strings"
	"testing"
	"time"

	"courtside/pkg/logger"
	"courtside/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func validBooking() *model.Booking {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	return &model.Booking{
		UserID:    "64f000000000000000000010",
		CourtID:   "64f000000000000000000001",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    model.BookingStatusConfirmed,
	}
}

func TestValidate_Booking(t *testing.T) {
	v := NewBookingValidator(testLogger())

	tests := []struct {
		name      string
		mutate    func(b *model.Booking)
		wantError bool
		errorMsg  string
	}{
		{
			name:      "valid booking",
			mutate:    func(b *model.Booking) {},
			wantError: false,
		},
		{
			name:      "missing user id",
			mutate:    func(b *model.Booking) { b.UserID = "" },
			wantError: true,
			errorMsg:  "UserID",
		},
		{
			name:      "missing court id",
			mutate:    func(b *model.Booking) { b.CourtID = "" },
			wantError: true,
			errorMsg:  "CourtID",
		},
		{
			name:      "malformed court id",
			mutate:    func(b *model.Booking) { b.CourtID = "not-an-object-id" },
			wantError: true,
			errorMsg:  "CourtID",
		},
		{
			name:      "end before start",
			mutate:    func(b *model.Booking) { b.EndTime = b.StartTime.Add(-time.Hour) },
			wantError: true,
			errorMsg:  "EndTime",
		},
		{
			name:      "end equals start",
			mutate:    func(b *model.Booking) { b.EndTime = b.StartTime },
			wantError: true,
			errorMsg:  "EndTime",
		},
		{
			name:      "unknown status",
			mutate:    func(b *model.Booking) { b.Status = "tentative" },
			wantError: true,
			errorMsg:  "Status",
		},
		{
			name: "equipment with zero quantity",
			mutate: func(b *model.Booking) {
				b.Equipment = []model.EquipmentLine{{InventoryID: "64f000000000000000000003", Qty: 0}}
			},
			wantError: true,
			errorMsg:  "Qty",
		},
		{
			name: "coach id optional",
			mutate: func(b *model.Booking) {
				b.CoachID = ""
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := validBooking()
			tt.mutate(booking)

			err := v.Validate(booking)
			if (err != nil) != tt.wantError {
				t.Fatalf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
			if tt.wantError && !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("expected error to mention %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestValidateWaitlistEntry(t *testing.T) {
	v := NewBookingValidator(testLogger())

	start := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	valid := &model.WaitlistEntry{
		UserID:    "64f000000000000000000010",
		CourtID:   "64f000000000000000000001",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    model.WaitlistStatusPending,
	}

	if err := v.ValidateWaitlistEntry(valid); err != nil {
		t.Errorf("valid entry rejected: %v", err)
	}

	inverted := *valid
	inverted.EndTime = start.Add(-time.Hour)
	if err := v.ValidateWaitlistEntry(&inverted); err == nil {
		t.Error("expected error for inverted time range")
	}

	badStatus := *valid
	badStatus.Status = "queued"
	if err := v.ValidateWaitlistEntry(&badStatus); err == nil {
		t.Error("expected error for unknown status")
	}
}
