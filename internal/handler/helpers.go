package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/apierror"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps service sentinels to HTTP status codes so every handler
// reports the same status for the same business failure.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSaleNotFound),
		errors.Is(err, service.ErrStoreNotFound),
		errors.Is(err, service.ErrVariantNotFound),
		errors.Is(err, service.ErrLineNotFound),
		errors.Is(err, service.ErrVoucherNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSessionAlreadyOpen),
		errors.Is(err, service.ErrSessionClosed),
		errors.Is(err, service.ErrSessionStoreMismatch),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrOverReturn):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInsufficientPayment):
		status = http.StatusPaymentRequired
	case errors.Is(err, service.ErrVoucherExpired):
		status = http.StatusGone
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	c.JSON(status, apierror.New(err.Error()))
}
