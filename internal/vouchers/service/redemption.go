package service

import (
	"context"
	"errors"

	voucherserrors "stayvoucher/internal/vouchers/errors"
	"stayvoucher/internal/vouchers/repository"
	"stayvoucher/pkg/config"
	apperrors "stayvoucher/pkg/errors"
	"stayvoucher/pkg/model"
)

// RedemptionCoordinator owns the atomic quota lifecycle of a voucher. Reserve
// and Release are the only paths that mutate used_count and used_by.
type RedemptionCoordinator interface {
	ApplyDefaults(v *model.Voucher)
	Reserve(ctx context.Context, v *model.Voucher, subjectID string, quantity int64) error
	Release(ctx context.Context, voucherID, subjectID string, quantity int64) error
}

type redemptionCoordinator struct {
	repo repository.VoucherRepository
	cfg  *config.Config
}

func NewRedemptionCoordinator(repo repository.VoucherRepository, cfg *config.Config) RedemptionCoordinator {
	return &redemptionCoordinator{
		repo: repo,
		cfg:  cfg,
	}
}

// ApplyDefaults fills the configured per-subject limit into vouchers that do
// not carry one, so policy checks and reservation guards use the same cap.
// Callers apply it to the loaded snapshot before any policy evaluation.
func (c *redemptionCoordinator) ApplyDefaults(v *model.Voucher) {
	if v.PerSubjectLimit == 0 {
		v.PerSubjectLimit = c.cfg.DefaultPerSubjectLimit
	}
}

// Reserve takes quantity units of quota for the subject, or fails with a
// quota error. The update filters carry both caps, so two racing requests for
// the last unit cannot both succeed regardless of what either one read
// beforehand.
//
// Two shapes are possible in storage: the subject already has a usage entry
// (increment it) or it does not (push a new one). Each shape has its own
// guarded update; a push that loses the race to the subject's own first
// reservation falls back to the increment once.
func (c *redemptionCoordinator) Reserve(ctx context.Context, v *model.Voucher, subjectID string, quantity int64) error {
	params := repository.ReserveParams{
		VoucherID:       v.ID,
		SubjectID:       subjectID,
		Quantity:        quantity,
		UsageLimit:      v.UsageLimit,
		PerSubjectLimit: v.PerSubjectLimit,
	}

	ok, err := c.repo.ReserveExisting(ctx, params)
	if err != nil {
		return apperrors.Internal("Failed to reserve voucher quota", err)
	}

	if !ok {
		if params.PerSubjectLimit > 0 && quantity > params.PerSubjectLimit {
			return apperrors.QuotaExceeded("Requested quantity exceeds the per-subject limit")
		}

		ok, err = c.repo.ReserveNew(ctx, params)
		if err != nil {
			return apperrors.Internal("Failed to reserve voucher quota", err)
		}

		if !ok {
			// The push guard also fails when this subject's first entry was
			// just created concurrently; the increment settles it.
			ok, err = c.repo.ReserveExisting(ctx, params)
			if err != nil {
				return apperrors.Internal("Failed to reserve voucher quota", err)
			}
		}
	}

	if !ok {
		// Both guarded updates also match nothing when the document is gone,
		// which is a missing voucher, not exhaustion.
		if _, findErr := c.repo.FindByID(ctx, v.ID); errors.Is(findErr, voucherserrors.ErrNotFound) {
			return apperrors.NotFound("Voucher")
		}

		c.cfg.Log.Info("Voucher quota reservation rejected",
			"voucher_id", v.ID,
			"subject_id", subjectID,
			"quantity", quantity,
		)
		return apperrors.QuotaExceeded("Voucher usage limit reached")
	}

	c.cfg.Log.Info("Voucher quota reserved",
		"voucher_id", v.ID,
		"subject_id", subjectID,
		"quantity", quantity,
	)

	// Flip to expired when the cap is now fully consumed. Advisory only; a
	// failure here never affects the reservation.
	if v.UsageLimit > 0 {
		if err := c.repo.MarkExhausted(ctx, v.ID); err != nil {
			c.cfg.Log.Warn("Failed to mark voucher exhausted",
				"voucher_id", v.ID,
				"error", err,
			)
		}
	}

	return nil
}

// Release returns previously reserved quota. Used as compensation when a step
// after the reservation fails.
func (c *redemptionCoordinator) Release(ctx context.Context, voucherID, subjectID string, quantity int64) error {
	if err := c.repo.Release(ctx, voucherID, subjectID, quantity); err != nil {
		return apperrors.Internal("Failed to release voucher quota", err)
	}

	c.cfg.Log.Info("Voucher quota released",
		"voucher_id", voucherID,
		"subject_id", subjectID,
		"quantity", quantity,
	)
	return nil
}
