package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	voucherserrors "stayvoucher/internal/vouchers/errors"
	"stayvoucher/internal/vouchers/policy"
	"stayvoucher/internal/vouchers/repository"
	"stayvoucher/internal/vouchers/validator"
	"stayvoucher/pkg/config"
	apperrors "stayvoucher/pkg/errors"
	"stayvoucher/pkg/model"
	"stayvoucher/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type VoucherService interface {
	Issue(ctx context.Context, voucher *model.Voucher) error
	GetByID(ctx context.Context, id string) (*model.Voucher, error)
	GetAll(ctx context.Context, filter model.VoucherFilter, limit int, offset int64) ([]*model.Voucher, int64, error)
	Update(ctx context.Context, id string, updates *model.VoucherUpdate) (*model.Voucher, error)
	Delete(ctx context.Context, id string) error
	Preview(ctx context.Context, subjectID string, req *model.PreviewRequest) (*model.PreviewResult, error)
}

type voucherService struct {
	repo       repository.VoucherRepository
	redemption RedemptionCoordinator
	validator  *validator.VoucherValidator
	cfg        *config.Config
}

func NewVoucherService(
	repo repository.VoucherRepository,
	redemption RedemptionCoordinator,
	validator *validator.VoucherValidator,
	cfg *config.Config,
) VoucherService {
	return &voucherService{
		repo:       repo,
		redemption: redemption,
		validator:  validator,
		cfg:        cfg,
	}
}

func (s *voucherService) Issue(ctx context.Context, voucher *model.Voucher) error {
	s.applyDefaults(voucher)
	s.sanitize(voucher)
	if err := s.validate(voucher); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, voucher); err != nil {
		if errors.Is(err, voucherserrors.ErrDuplicateCode) {
			return apperrors.Conflict("Voucher code already exists")
		}
		s.cfg.Log.Error("Failed to issue voucher", "code", voucher.Code, "error", err)
		return apperrors.Internal("Failed to issue voucher", err)
	}

	s.cfg.Log.Info("Voucher issued successfully",
		"id", voucher.ID,
		"code", voucher.Code,
		"usage_limit", voucher.UsageLimit,
	)
	return nil
}

func (s *voucherService) GetByID(ctx context.Context, id string) (*model.Voucher, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Voucher ID cannot be empty")
	}

	voucher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, voucherserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Voucher", id)
		}
		if errors.Is(err, voucherserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid voucher ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve voucher", err)
	}

	return voucher, nil
}

func (s *voucherService) GetAll(ctx context.Context, filter model.VoucherFilter, limit int, offset int64) ([]*model.Voucher, int64, error) {
	if filter.Code != "" {
		filter.Code = sanitizer.SanitizeVoucherCode(filter.Code)
	}

	var count int64
	var vouchers []*model.Voucher
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count vouchers", "error", errCount)
			errCount = apperrors.Internal("Failed to count vouchers", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		vouchers, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list vouchers", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve vouchers", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return vouchers, count, nil
}

func (s *voucherService) Update(ctx context.Context, id string, updates *model.VoucherUpdate) (*model.Voucher, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Voucher ID cannot be empty")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Voucher update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	var updated *model.Voucher
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			if errors.Is(err, voucherserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Voucher", id)
			}
			if errors.Is(err, voucherserrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid voucher ID format")
			}
			return apperrors.Internal("Failed to check voucher existence", err)
		}

		set, err := s.buildUpdateSet(existing, updates)
		if err != nil {
			return err
		}
		if len(set) == 0 {
			updated = existing
			return nil
		}

		updated, err = s.repo.Update(sessCtx, id, set)
		if err != nil {
			return apperrors.Internal("Failed to update voucher", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update voucher", "id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Voucher updated successfully", "id", id)
	return updated, nil
}

func (s *voucherService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Voucher ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, voucherserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Voucher", id)
		}
		if errors.Is(err, voucherserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid voucher ID format")
		}
		if errors.Is(err, voucherserrors.ErrInUse) {
			return apperrors.Conflict("Voucher has recorded usage and cannot be deleted")
		}
		return apperrors.Internal("Failed to delete voucher", err)
	}

	s.cfg.Log.Info("Voucher deleted successfully", "id", id)
	return nil
}

// Preview evaluates policy and discount against a snapshot without touching
// quota. The answer can go stale the moment it is produced.
func (s *voucherService) Preview(ctx context.Context, subjectID string, req *model.PreviewRequest) (*model.PreviewResult, error) {
	voucher, err := s.resolveVoucher(ctx, req)
	if err != nil {
		return nil, err
	}
	s.redemption.ApplyDefaults(voucher)

	quantity := sanitizer.ClampQuantity(req.Quantity)

	rejection := policy.Validate(voucher, policy.Input{
		Now:         time.Now().UTC(),
		HotelID:     req.HotelID,
		SubjectID:   subjectID,
		Quantity:    quantity,
		OrderAmount: req.OrderAmount,
	})
	if rejection != nil {
		return nil, apperrors.PolicyRejected(string(rejection.Reason), rejection.Message)
	}

	discount := sanitizer.RoundMoney(policy.ComputeDiscount(voucher, req.OrderAmount))
	return &model.PreviewResult{
		VoucherID:    voucher.ID,
		Code:         voucher.Code,
		DiscountType: voucher.DiscountType,
		Discount:     discount,
		FinalAmount:  sanitizer.RoundMoney(req.OrderAmount - discount),
	}, nil
}

// --- Helpers ---

func (s *voucherService) resolveVoucher(ctx context.Context, req *model.PreviewRequest) (*model.Voucher, error) {
	switch {
	case req.VoucherID != "":
		return s.GetByID(ctx, req.VoucherID)
	case req.Code != "":
		voucher, err := s.repo.FindByCode(ctx, sanitizer.SanitizeVoucherCode(req.Code))
		if err != nil {
			if errors.Is(err, voucherserrors.ErrNotFound) {
				return nil, apperrors.NotFound("Voucher")
			}
			return nil, apperrors.Internal("Failed to retrieve voucher", err)
		}
		return voucher, nil
	default:
		return nil, apperrors.InvalidInput("Either voucher_id or code is required")
	}
}

func (s *voucherService) applyDefaults(v *model.Voucher) {
	if v.Status == "" {
		v.Status = model.VoucherStatusActive
	}
	if v.ValidFrom.IsZero() {
		v.ValidFrom = time.Now().UTC().Truncate(time.Millisecond)
	}
	// Counters always start clean regardless of the payload.
	v.UsedCount = 0
	v.UsedBy = nil
}

func (s *voucherService) sanitize(v *model.Voucher) {
	v.Code = sanitizer.SanitizeVoucherCode(v.Code)
	v.Title = sanitizer.SanitizeTitle(v.Title)
	v.Description = sanitizer.SanitizeDescription(v.Description)
	v.ApplicableHotels = sanitizer.SanitizeSlice(v.ApplicableHotels, strings.TrimSpace)
}

func (s *voucherService) validate(v *model.Voucher) error {
	if err := s.validator.Validate(v); err != nil {
		s.cfg.Log.Warn("Voucher validation failed", "error", err)
		return apperrors.Validation("Voucher validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *voucherService) buildUpdateSet(existing *model.Voucher, updates *model.VoucherUpdate) (bson.M, error) {
	set := bson.M{}

	if updates.Title != nil {
		set["title"] = sanitizer.SanitizeTitle(*updates.Title)
	}
	if updates.Description != nil {
		set["description"] = sanitizer.SanitizeDescription(*updates.Description)
	}
	if updates.DiscountType != nil {
		set["discount_type"] = *updates.DiscountType
	}
	if updates.DiscountValue != nil {
		set["discount_value"] = *updates.DiscountValue
	}
	if updates.MinOrderValue != nil {
		set["min_order_value"] = *updates.MinOrderValue
	}
	if updates.MaxDiscount != nil {
		set["max_discount"] = *updates.MaxDiscount
	}
	if updates.ValidFrom != nil {
		set["valid_from"] = *updates.ValidFrom
	}
	if updates.ValidTo != nil {
		set["valid_to"] = *updates.ValidTo
	}
	if updates.UsageLimit != nil {
		// Shrinking below what is already used would violate the cap going
		// forward without a way to honor it.
		if *updates.UsageLimit > 0 && *updates.UsageLimit < existing.UsedCount {
			return nil, apperrors.Conflict("Usage limit cannot be set below the current used count")
		}
		set["usage_limit"] = *updates.UsageLimit
	}
	if updates.PerSubjectLimit != nil {
		set["per_subject_limit"] = *updates.PerSubjectLimit
	}
	if updates.ApplicableHotels != nil {
		set["applicable_hotels"] = sanitizer.SanitizeSlice(updates.ApplicableHotels, strings.TrimSpace)
	}
	if updates.Status != nil {
		set["status"] = *updates.Status
	}
	if updates.Price != nil {
		set["price"] = *updates.Price
	}

	// The merged document must still satisfy the cross-field rules.
	merged := *existing
	if updates.DiscountType != nil {
		merged.DiscountType = *updates.DiscountType
	}
	if updates.DiscountValue != nil {
		merged.DiscountValue = *updates.DiscountValue
	}
	if updates.ValidFrom != nil {
		merged.ValidFrom = *updates.ValidFrom
	}
	if updates.ValidTo != nil {
		merged.ValidTo = *updates.ValidTo
	}
	if merged.DiscountType == model.DiscountTypePercentage && merged.DiscountValue > 100 {
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": "percentage discount cannot exceed 100"})
	}
	if !merged.ValidFrom.IsZero() && !merged.ValidTo.After(merged.ValidFrom) {
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": "valid_to must be after valid_from"})
	}

	return set, nil
}
