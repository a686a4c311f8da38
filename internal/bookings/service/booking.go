package service

import (
	"context"
	"errors"
	"sync"
	"time"

	agentsrepo "stayvoucher/internal/agents/repository"
	bookingserrors "stayvoucher/internal/bookings/errors"
	"stayvoucher/internal/bookings/events"
	"stayvoucher/internal/bookings/repository"
	"stayvoucher/internal/bookings/validator"
	hotelsrepo "stayvoucher/internal/hotels/repository"
	"stayvoucher/internal/vouchers/policy"
	voucherservice "stayvoucher/internal/vouchers/service"
	"stayvoucher/pkg/config"
	apperrors "stayvoucher/pkg/errors"
	"stayvoucher/pkg/model"
	"stayvoucher/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, subjectID string, req *model.BookingRequest) (*model.BookingDetails, error)
	GetByID(ctx context.Context, id string) (*model.BookingDetails, error)
	GetAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type bookingService struct {
	repo       repository.BookingRepository
	vouchers   voucherservice.VoucherService
	redemption voucherservice.RedemptionCoordinator
	hotels     hotelsrepo.HotelRepository
	agents     agentsrepo.AgentRepository
	publisher  events.Publisher
	validator  *validator.BookingValidator
	cfg        *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	vouchers voucherservice.VoucherService,
	redemption voucherservice.RedemptionCoordinator,
	hotels hotelsrepo.HotelRepository,
	agents agentsrepo.AgentRepository,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		vouchers:   vouchers,
		redemption: redemption,
		hotels:     hotels,
		agents:     agents,
		publisher:  publisher,
		validator:  validator,
		cfg:        cfg,
	}
}

// Create runs the booking pipeline: resolve references, evaluate voucher
// policy, reserve quota, persist the booking. The quota reservation is the
// only step that must not double-apply, so it happens exactly once and is
// released again if the insert after it fails.
func (s *bookingService) Create(ctx context.Context, subjectID string, req *model.BookingRequest) (*model.BookingDetails, error) {
	if subjectID == "" {
		return nil, apperrors.Unauthorized("Subject identity is required")
	}
	// An omitted quantity means a single unit.
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking request validation failed", "error", err)
		return nil, apperrors.Validation("Invalid booking request", map[string]any{"error": err.Error()})
	}

	voucher, err := s.vouchers.GetByID(ctx, req.VoucherID)
	if err != nil {
		return nil, err
	}
	s.redemption.ApplyDefaults(voucher)

	// Referral lookup never blocks a booking; an unknown code is dropped.
	var agentID string
	if req.ReferralCode != "" {
		agent, err := s.agents.FindByCode(ctx, req.ReferralCode)
		switch {
		case err == nil:
			agentID = agent.ID
		case errors.Is(err, agentsrepo.ErrNotFound):
			s.cfg.Log.Info("Referral code not recognized", "referral_code", req.ReferralCode)
		default:
			s.cfg.Log.Warn("Referral lookup failed", "referral_code", req.ReferralCode, "error", err)
		}
	}

	hotelID, err := s.resolveHotel(ctx, voucher, req.HotelID)
	if err != nil {
		return nil, err
	}

	unitPrice, err := resolveUnitPrice(voucher, req.PriceOverride)
	if err != nil {
		return nil, err
	}
	total := sanitizer.RoundMoney(unitPrice * float64(req.Quantity))

	rejection := policy.Validate(voucher, policy.Input{
		Now:         time.Now().UTC(),
		HotelID:     hotelID,
		SubjectID:   subjectID,
		Quantity:    req.Quantity,
		OrderAmount: total,
	})
	if rejection != nil {
		return nil, apperrors.PolicyRejected(string(rejection.Reason), rejection.Message)
	}

	if err := s.redemption.Reserve(ctx, voucher, subjectID, req.Quantity); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		SubjectID:    subjectID,
		HotelID:      hotelID,
		VoucherID:    voucher.ID,
		AgentID:      agentID,
		ReferralCode: req.ReferralCode,
		Quantity:     req.Quantity,
		UnitPrice:    unitPrice,
		Total:        total,
		Status:       model.BookingStatusPending,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		// Compensate: hand the reserved quota back. A failed release is
		// logged loudly but the original failure is what the caller sees.
		if releaseErr := s.redemption.Release(ctx, voucher.ID, subjectID, req.Quantity); releaseErr != nil {
			s.cfg.Log.Error("Failed to release quota after booking insert failure; counters need repair",
				"voucher_id", voucher.ID,
				"subject_id", subjectID,
				"quantity", req.Quantity,
				"error", releaseErr,
			)
		}
		s.cfg.Log.Error("Failed to create booking", "voucher_id", voucher.ID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"subject_id", subjectID,
		"voucher_id", voucher.ID,
		"quantity", req.Quantity,
		"total", total,
	)

	s.publisher.BookingCreated(ctx, booking)

	details := &model.BookingDetails{Booking: *booking, Voucher: voucher}
	if hotelID != "" {
		if hotel, err := s.hotels.FindByID(ctx, hotelID); err == nil {
			details.Hotel = hotel
		}
	}
	return details, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.BookingDetails, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	details := &model.BookingDetails{Booking: *booking}
	if voucher, err := s.vouchers.GetByID(ctx, booking.VoucherID); err == nil {
		details.Voucher = voucher
	}
	if booking.HotelID != "" {
		if hotel, err := s.hotels.FindByID(ctx, booking.HotelID); err == nil {
			details.Hotel = hotel
		}
	}
	return details, nil
}

func (s *bookingService) GetAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, id, status string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateStatusUpdate(&model.BookingStatusUpdate{Status: status}); err != nil {
		return apperrors.Validation("Invalid status", map[string]any{"error": err.Error()})
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid booking ID format")
		}
		return apperrors.Internal("Failed to update booking status", err)
	}

	s.cfg.Log.Info("Booking status updated", "id", id, "status", status)
	s.publisher.BookingStatusChanged(ctx, id, status)
	return nil
}

// --- Helpers ---

// resolveHotel picks the hotel a booking applies to. An explicit request
// wins; otherwise a voucher scoped to exactly one hotel implies it; a wider
// or empty scope leaves the booking without a hotel.
func (s *bookingService) resolveHotel(ctx context.Context, voucher *model.Voucher, requested string) (string, error) {
	hotelID := requested
	if hotelID == "" && len(voucher.ApplicableHotels) == 1 {
		hotelID = voucher.ApplicableHotels[0]
	}
	if hotelID == "" {
		return "", nil
	}

	exists, err := s.hotels.ExistsByID(ctx, hotelID)
	if err != nil {
		if errors.Is(err, hotelsrepo.ErrInvalidID) {
			return "", apperrors.InvalidInput("Invalid hotel ID format")
		}
		return "", apperrors.Internal("Failed to check hotel existence", err)
	}
	if !exists {
		return "", apperrors.NotFoundWithID("Hotel", hotelID)
	}
	return hotelID, nil
}

// resolveUnitPrice prefers an explicit override, then the voucher's own
// price. A voucher without a price cannot be booked without an override.
func resolveUnitPrice(voucher *model.Voucher, override *float64) (float64, error) {
	if override != nil {
		return sanitizer.RoundMoney(*override), nil
	}
	if voucher.Price != nil {
		return sanitizer.RoundMoney(*voucher.Price), nil
	}
	return 0, apperrors.PriceUnavailable()
}
