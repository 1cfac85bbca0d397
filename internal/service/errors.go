package service

import "errors"

// Sentinel errors returned by the POS services. Handlers map them to HTTP
// status codes with errors.Is; anything else is treated as an internal error.
var (
	ErrSessionAlreadyOpen   = errors.New("a cash session is already open for this store")
	ErrSessionNotFound      = errors.New("cash session not found")
	ErrSessionClosed        = errors.New("cash session is closed")
	ErrSessionStoreMismatch = errors.New("cash session does not belong to this store")

	ErrSaleNotFound        = errors.New("sale not found")
	ErrStoreNotFound       = errors.New("store not found")
	ErrVariantNotFound     = errors.New("product variant not found")
	ErrLineNotFound        = errors.New("sale line not found in this sale")
	ErrInsufficientPayment = errors.New("total payments are less than the sale total")
	ErrInsufficientStock   = errors.New("insufficient stock for requested quantity")

	ErrOverReturn = errors.New("requested return quantity exceeds the remaining returnable quantity")

	ErrVoucherNotFound     = errors.New("voucher not found")
	ErrVoucherExpired      = errors.New("voucher has expired")
	ErrInsufficientBalance = errors.New("voucher balance is insufficient")
)
