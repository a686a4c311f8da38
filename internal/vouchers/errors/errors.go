package errors

import "errors"

var (
	ErrNotFound = errors.New("voucher not found")

	ErrInvalidID = errors.New("invalid voucher ID format")

	ErrDuplicateCode = errors.New("voucher code already exists")

	ErrInUse = errors.New("voucher has recorded usage and cannot be deleted")
)
