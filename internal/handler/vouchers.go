package handler

import (
	"net/http"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type VoucherHandler struct{ svc service.VoucherService }

func NewVoucherHandler(svc service.VoucherService) *VoucherHandler {
	return &VoucherHandler{svc: svc}
}

// Validate godoc
// @Summary Looks up a voucher by code and reports its redeemable balance
// @Tags vouchers
// @Produce json
// @Security BearerAuth
// @Param code path string true "Voucher code"
// @Success 200 {object} dto.VoucherResponse
// @Failure 404 {object} apierror.APIError
// @Failure 410 {object} apierror.APIError
// @Router /v1/vouchers/{code} [get]
func (h *VoucherHandler) Validate(c *gin.Context) {
	resp, err := h.svc.Validate(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
