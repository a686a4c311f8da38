package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "stayvoucher/pkg/errors"
	"stayvoucher/pkg/logger"
	"stayvoucher/pkg/middleware"
	"stayvoucher/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	createFunc       func(ctx context.Context, subjectID string, req *model.BookingRequest) (*model.BookingDetails, error)
	updateStatusFunc func(ctx context.Context, id, status string) error
}

func (m *mockBookingService) Create(ctx context.Context, subjectID string, req *model.BookingRequest) (*model.BookingDetails, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, subjectID, req)
	}
	return &model.BookingDetails{Booking: model.Booking{ID: "booking-1", Status: model.BookingStatusPending}}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.BookingDetails, error) {
	return nil, apperrors.NotFoundWithID("Booking", id)
}

func (m *mockBookingService) GetAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func newTestServer(svc *mockBookingService) http.Handler {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	router := httprouter.New()
	NewBookingHandler(svc, log).RegisterRoutes(router)
	return middleware.SubjectIdentity()(router)
}

func postBooking(t *testing.T, h http.Handler, subjectID string, req *model.BookingRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	r := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if subjectID != "" {
		r.Header.Set(middleware.SubjectHeader, subjectID)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestCreate_ReturnsCreated(t *testing.T) {
	h := newTestServer(&mockBookingService{})

	w := postBooking(t, h, "subj-1", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
		Quantity:  1,
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestCreate_QuotaExceededMapsToConflict(t *testing.T) {
	h := newTestServer(&mockBookingService{
		createFunc: func(ctx context.Context, subjectID string, req *model.BookingRequest) (*model.BookingDetails, error) {
			return nil, apperrors.QuotaExceeded("Voucher usage limit reached")
		},
	})

	w := postBooking(t, h, "subj-1", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
		Quantity:  1,
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestCreate_PolicyRejectionCarriesReasonDetail(t *testing.T) {
	h := newTestServer(&mockBookingService{
		createFunc: func(ctx context.Context, subjectID string, req *model.BookingRequest) (*model.BookingDetails, error) {
			return nil, apperrors.PolicyRejected("expired", "voucher has expired")
		},
	})

	w := postBooking(t, h, "subj-1", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
		Quantity:  1,
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var resp struct {
		Details map[string]any `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Details["reason"] != "expired" {
		t.Errorf("reason = %v, want %q", resp.Details["reason"], "expired")
	}
}

func TestCreate_MissingSubjectIsUnauthorized(t *testing.T) {
	h := newTestServer(&mockBookingService{
		createFunc: func(ctx context.Context, subjectID string, req *model.BookingRequest) (*model.BookingDetails, error) {
			if subjectID == "" {
				return nil, apperrors.Unauthorized("Subject identity is required")
			}
			return &model.BookingDetails{}, nil
		},
	})

	w := postBooking(t, h, "", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
		Quantity:  1,
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestCreate_InvalidBody(t *testing.T) {
	h := newTestServer(&mockBookingService{})

	r := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewReader([]byte("{not json")))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set(middleware.SubjectHeader, "subj-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestUpdateStatus_NoContent(t *testing.T) {
	var gotID, gotStatus string
	h := newTestServer(&mockBookingService{
		updateStatusFunc: func(ctx context.Context, id, status string) error {
			gotID, gotStatus = id, status
			return nil
		},
	})

	body := []byte(`{"status":"paid"}`)
	r := httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/id/booking-1/status", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if gotID != "booking-1" || gotStatus != "paid" {
		t.Errorf("service received (%q, %q), want (booking-1, paid)", gotID, gotStatus)
	}
}
