package handler

import (
	"net/http"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/dto"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/middleware"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReturnHandler struct{ svc service.ReturnService }

func NewReturnHandler(svc service.ReturnService) *ReturnHandler {
	return &ReturnHandler{svc: svc}
}

// Create godoc
// @Summary Processes a partial or full return against a sale
// @Tags returns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateReturnRequest true "Return data"
// @Success 201 {object} dto.ReturnResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/returns [post]
func (h *ReturnHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.CreateReturn(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
