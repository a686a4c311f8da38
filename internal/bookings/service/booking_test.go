package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	agentsrepo "stayvoucher/internal/agents/repository"
	bookingserrors "stayvoucher/internal/bookings/errors"
	"stayvoucher/internal/bookings/validator"
	"stayvoucher/pkg/config"
	apperrors "stayvoucher/pkg/errors"
	"stayvoucher/pkg/logger"
	"stayvoucher/pkg/model"
)

// --- Function-field fakes ---

type fakeBookingRepo struct {
	createFn       func(ctx context.Context, b *model.Booking) error
	findByIDFn     func(ctx context.Context, id string) (*model.Booking, error)
	updateStatusFn func(ctx context.Context, id, status string) error

	mu      sync.Mutex
	created []*model.Booking
}

func (f *fakeBookingRepo) Create(ctx context.Context, b *model.Booking) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, b); err != nil {
			return err
		}
	}
	if b.ID == "" {
		b.ID = "booking-1"
	}
	f.mu.Lock()
	f.created = append(f.created, b)
	f.mu.Unlock()
	return nil
}

func (f *fakeBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (f *fakeBookingRepo) FindAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	return 0, nil
}

func (f *fakeBookingRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (f *fakeBookingRepo) Delete(ctx context.Context, id string) error { return nil }

type fakeVoucherService struct {
	voucher *model.Voucher
	err     error
}

func (f *fakeVoucherService) Issue(ctx context.Context, v *model.Voucher) error { return nil }

func (f *fakeVoucherService) GetByID(ctx context.Context, id string) (*model.Voucher, error) {
	if f.err != nil {
		return nil, f.err
	}
	snapshot := *f.voucher
	return &snapshot, nil
}

func (f *fakeVoucherService) GetAll(ctx context.Context, filter model.VoucherFilter, limit int, offset int64) ([]*model.Voucher, int64, error) {
	return nil, 0, nil
}

func (f *fakeVoucherService) Update(ctx context.Context, id string, updates *model.VoucherUpdate) (*model.Voucher, error) {
	return nil, nil
}

func (f *fakeVoucherService) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeVoucherService) Preview(ctx context.Context, subjectID string, req *model.PreviewRequest) (*model.PreviewResult, error) {
	return nil, nil
}

type fakeRedemption struct {
	reserveErr error

	mu       sync.Mutex
	reserved int64
	released int64
}

func (f *fakeRedemption) ApplyDefaults(v *model.Voucher) {}

func (f *fakeRedemption) Reserve(ctx context.Context, v *model.Voucher, subjectID string, quantity int64) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	f.mu.Lock()
	f.reserved += quantity
	f.mu.Unlock()
	return nil
}

func (f *fakeRedemption) Release(ctx context.Context, voucherID, subjectID string, quantity int64) error {
	f.mu.Lock()
	f.released += quantity
	f.mu.Unlock()
	return nil
}

type fakeHotelRepo struct {
	exists bool
	err    error
}

func (f *fakeHotelRepo) FindByID(ctx context.Context, id string) (*model.Hotel, error) {
	return &model.Hotel{ID: id, Name: "Test Hotel", Active: true}, nil
}

func (f *fakeHotelRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	return f.exists, f.err
}

type fakeAgentRepo struct {
	agent *model.Agent
	err   error
}

func (f *fakeAgentRepo) Create(ctx context.Context, agent *model.Agent) error { return nil }

func (f *fakeAgentRepo) FindByCode(ctx context.Context, code string) (*model.Agent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.agent, nil
}

type fakePublisher struct {
	mu            sync.Mutex
	createdEvents []string
	statusEvents  []string
}

func (f *fakePublisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	f.mu.Lock()
	f.createdEvents = append(f.createdEvents, booking.ID)
	f.mu.Unlock()
}

func (f *fakePublisher) BookingStatusChanged(ctx context.Context, bookingID, status string) {
	f.mu.Lock()
	f.statusEvents = append(f.statusEvents, bookingID+":"+status)
	f.mu.Unlock()
}

// --- Fixtures ---

type fixture struct {
	repo       *fakeBookingRepo
	vouchers   *fakeVoucherService
	redemption *fakeRedemption
	hotels     *fakeHotelRepo
	agents     *fakeAgentRepo
	publisher  *fakePublisher
	svc        BookingService
}

func price(v float64) *float64 { return &v }

func bookableVoucher() *model.Voucher {
	return &model.Voucher{
		ID:            "64f000000000000000000001",
		Code:          "STAY150",
		DiscountType:  model.DiscountTypeFixed,
		DiscountValue: 0,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidTo:       time.Now().Add(24 * time.Hour),
		UsageLimit:    100,
		Status:        model.VoucherStatusActive,
		Price:         price(150),
	}
}

func newFixture(voucher *model.Voucher) *fixture {
	cfg := &config.Config{
		DefaultPerSubjectLimit: 0,
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.TEXT,
			Service: "test",
		}),
	}

	f := &fixture{
		repo:       &fakeBookingRepo{},
		vouchers:   &fakeVoucherService{voucher: voucher},
		redemption: &fakeRedemption{},
		hotels:     &fakeHotelRepo{exists: true},
		agents:     &fakeAgentRepo{err: agentsrepo.ErrNotFound},
		publisher:  &fakePublisher{},
	}
	f.svc = NewBookingService(
		f.repo,
		f.vouchers,
		f.redemption,
		f.hotels,
		f.agents,
		f.publisher,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)
	return f
}

// --- Tests ---

func TestCreate_ComputesTotalAndPersists(t *testing.T) {
	f := newFixture(bookableVoucher())

	details, err := f.svc.Create(context.Background(), "subj-1", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	b := details.Booking
	if b.Total != 300 {
		t.Errorf("total = %v, want 300", b.Total)
	}
	if b.UnitPrice != 150 {
		t.Errorf("unit price = %v, want 150", b.UnitPrice)
	}
	if b.Status != model.BookingStatusPending {
		t.Errorf("status = %q, want pending", b.Status)
	}
	if f.redemption.reserved != 2 {
		t.Errorf("reserved = %d, want 2", f.redemption.reserved)
	}
	if len(f.publisher.createdEvents) != 1 {
		t.Errorf("created events = %d, want 1", len(f.publisher.createdEvents))
	}
	if details.Voucher == nil || details.Voucher.Code != "STAY150" {
		t.Error("response should resolve the voucher")
	}
}

func TestCreate_PriceOverrideWins(t *testing.T) {
	f := newFixture(bookableVoucher())

	details, err := f.svc.Create(context.Background(), "subj-1", &model.BookingRequest{
		VoucherID:     "64f000000000000000000001",
		Quantity:      1,
		PriceOverride: price(99.995),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if details.Booking.UnitPrice != 100 {
		t.Errorf("unit price = %v, want 100 (rounded override)", details.Booking.UnitPrice)
	}
}

func TestCreate_InsertFailureReleasesQuota(t *testing.T) {
	f := newFixture(bookableVoucher())
	f.repo.createFn = func(ctx context.Context, b *model.Booking) error {
		return errors.New("write concern failure")
	}

	_, err := f.svc.Create(context.Background(), "subj-1", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
		Quantity:  2,
	})
	if !apperrors.IsCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}

	if f.redemption.reserved != 2 || f.redemption.released != 2 {
		t.Errorf("reserved = %d released = %d, want both 2 (full compensation)",
			f.redemption.reserved, f.redemption.released)
	}
	if len(f.publisher.createdEvents) != 0 {
		t.Error("no event should be published for a failed booking")
	}
}

func TestCreate_QuotaExceededAbortsBeforeInsert(t *testing.T) {
	f := newFixture(bookableVoucher())
	f.redemption.reserveErr = apperrors.QuotaExceeded("Voucher usage limit reached")

	_, err := f.svc.Create(context.Background(), "subj-1", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
		Quantity:  1,
	})
	if !apperrors.IsCode(err, apperrors.CodeQuotaExceeded) {
		t.Fatalf("expected quota exceeded, got %v", err)
	}
	if len(f.repo.created) != 0 {
		t.Error("no booking should be persisted when the reservation fails")
	}
	if f.redemption.released != 0 {
		t.Error("nothing to release when the reservation never happened")
	}
}

func TestCreate_PolicyRejectionBeforeReservation(t *testing.T) {
	v := bookableVoucher()
	v.MinOrderValue = 1000
	f := newFixture(v)

	_, err := f.svc.Create(context.Background(), "subj-1", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
		Quantity:  2, // total 300, below min order value
	})
	if !apperrors.IsCode(err, apperrors.CodePolicyRejected) {
		t.Fatalf("expected policy rejection, got %v", err)
	}
	if f.redemption.reserved != 0 {
		t.Error("policy rejection must not reserve quota")
	}
}

func TestCreate_UnknownReferralIsIgnored(t *testing.T) {
	f := newFixture(bookableVoucher())

	details, err := f.svc.Create(context.Background(), "subj-1", &model.BookingRequest{
		VoucherID:    "64f000000000000000000001",
		Quantity:     1,
		ReferralCode: "AGT-000000",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if details.Booking.AgentID != "" {
		t.Errorf("agent id = %q, want empty for unknown referral", details.Booking.AgentID)
	}
	if details.Booking.ReferralCode != "AGT-000000" {
		t.Error("original referral code should still be recorded")
	}
}

func TestCreate_KnownReferralAttachesAgent(t *testing.T) {
	f := newFixture(bookableVoucher())
	f.agents.err = nil
	f.agents.agent = &model.Agent{ID: "agent-7", Code: "AGT-123456", Active: true}

	details, err := f.svc.Create(context.Background(), "subj-1", &model.BookingRequest{
		VoucherID:    "64f000000000000000000001",
		Quantity:     1,
		ReferralCode: "AGT-123456",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if details.Booking.AgentID != "agent-7" {
		t.Errorf("agent id = %q, want agent-7", details.Booking.AgentID)
	}
}

func TestCreate_HotelNotFound(t *testing.T) {
	f := newFixture(bookableVoucher())
	f.hotels.exists = false

	_, err := f.svc.Create(context.Background(), "subj-1", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
		HotelID:   "64f000000000000000000099",
		Quantity:  1,
	})
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.redemption.reserved != 0 {
		t.Error("reference failures must not reserve quota")
	}
}

func TestCreate_SingleScopedHotelIsImplied(t *testing.T) {
	v := bookableVoucher()
	v.ApplicableHotels = []string{"64f000000000000000000050"}
	f := newFixture(v)

	details, err := f.svc.Create(context.Background(), "subj-1", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if details.Booking.HotelID != "64f000000000000000000050" {
		t.Errorf("hotel id = %q, want the voucher's single scoped hotel", details.Booking.HotelID)
	}
}

func TestCreate_PriceUnavailable(t *testing.T) {
	v := bookableVoucher()
	v.Price = nil
	f := newFixture(v)

	_, err := f.svc.Create(context.Background(), "subj-1", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
		Quantity:  1,
	})
	if !apperrors.IsCode(err, apperrors.CodePriceUnavailable) {
		t.Fatalf("expected price unavailable, got %v", err)
	}
}

func TestCreate_RequiresSubject(t *testing.T) {
	f := newFixture(bookableVoucher())

	_, err := f.svc.Create(context.Background(), "", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
		Quantity:  1,
	})
	if !apperrors.IsCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCreate_QuantityValidation(t *testing.T) {
	f := newFixture(bookableVoucher())

	for _, quantity := range []int64{-3, 101} {
		_, err := f.svc.Create(context.Background(), "subj-1", &model.BookingRequest{
			VoucherID: "64f000000000000000000001",
			Quantity:  quantity,
		})
		if !apperrors.IsCode(err, apperrors.CodeValidation) {
			t.Errorf("quantity %d: expected validation error, got %v", quantity, err)
		}
	}
}

func TestCreate_OmittedQuantityDefaultsToOne(t *testing.T) {
	f := newFixture(bookableVoucher())

	details, err := f.svc.Create(context.Background(), "subj-1", &model.BookingRequest{
		VoucherID: "64f000000000000000000001",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if details.Booking.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", details.Booking.Quantity)
	}
	if details.Booking.Total != 150 {
		t.Errorf("total = %v, want 150 for a single unit", details.Booking.Total)
	}
	if f.redemption.reserved != 1 {
		t.Errorf("reserved = %d, want 1", f.redemption.reserved)
	}
}

func TestUpdateStatus_PublishesEvent(t *testing.T) {
	f := newFixture(bookableVoucher())

	if err := f.svc.UpdateStatus(context.Background(), "booking-1", model.BookingStatusPaid); err != nil {
		t.Fatalf("UpdateStatus() failed: %v", err)
	}
	if len(f.publisher.statusEvents) != 1 || f.publisher.statusEvents[0] != "booking-1:paid" {
		t.Errorf("status events = %v, want [booking-1:paid]", f.publisher.statusEvents)
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(bookableVoucher())

	err := f.svc.UpdateStatus(context.Background(), "booking-1", "teleported")
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.publisher.statusEvents) != 0 {
		t.Error("no event for a rejected status update")
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newFixture(bookableVoucher())
	f.repo.updateStatusFn = func(ctx context.Context, id, status string) error {
		return bookingserrors.ErrNotFound
	}

	err := f.svc.UpdateStatus(context.Background(), "missing", model.BookingStatusCancelled)
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
