package handler

import (
	"net/http"

	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/apierror"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/dto"
	"github.com/Sastreriaprats/Sastreriaprats-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct{ svc service.ProductService }

func NewProductHandler(svc service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// Search godoc
// @Summary Searches sellable variants by name, SKU or barcode
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search text"
// @Param store_id query string true "Store whose stock to show"
// @Success 200 {array} dto.SellableVariantResponse
// @Router /v1/products/search [get]
func (h *ProductHandler) Search(c *gin.Context) {
	var filter dto.ProductSearchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return
	}
	if err := validate.Struct(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return
	}
	resp, err := h.svc.Search(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Barcode resolves an exact barcode scan to one sellable variant.
func (h *ProductHandler) Barcode(c *gin.Context) {
	storeID := c.Query("store_id")
	if storeID == "" {
		c.JSON(http.StatusBadRequest, apierror.New("store_id is required"))
		return
	}
	resp, err := h.svc.FindByBarcode(c.Request.Context(), c.Param("code"), storeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
