package validator

import (
	"errors"
	"fmt"
	"strings"

	"stayvoucher/pkg/logger"
	"stayvoucher/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type VoucherValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewVoucherValidator(log *logger.Logger) *VoucherValidator {
	v := validator.New()

	log.Info("Voucher validator initialized successfully")

	return &VoucherValidator{
		validate: v,
		logger:   log,
	}
}

func (v *VoucherValidator) Validate(voucher *model.Voucher) error {
	if err := v.validate.Struct(voucher); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if voucher.DiscountType == model.DiscountTypePercentage && voucher.DiscountValue > 100 {
		return ValidationErrors{
			ValidationError{
				Field:   "DiscountValue",
				Message: "percentage discount cannot exceed 100",
			},
		}
	}

	if !voucher.ValidFrom.IsZero() && !voucher.ValidTo.After(voucher.ValidFrom) {
		return ValidationErrors{
			ValidationError{
				Field:   "ValidTo",
				Message: "valid_to must be after valid_from",
			},
		}
	}

	return nil
}

func (v *VoucherValidator) ValidateUpdate(update *model.VoucherUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.DiscountType != nil && update.DiscountValue != nil {
		if *update.DiscountType == model.DiscountTypePercentage && *update.DiscountValue > 100 {
			return ValidationErrors{
				ValidationError{
					Field:   "DiscountValue",
					Message: "percentage discount cannot exceed 100",
				},
			}
		}
	}

	if update.ValidFrom != nil && update.ValidTo != nil {
		if !update.ValidTo.After(*update.ValidFrom) {
			return ValidationErrors{
				ValidationError{
					Field:   "ValidTo",
					Message: "valid_to must be after valid_from",
				},
			}
		}
	}

	return nil
}

func (v *VoucherValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be %s or greater", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
