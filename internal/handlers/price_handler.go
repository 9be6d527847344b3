package handlers

import (
	"net/http"
	"strings"

	"flipduel/internal/auth"
	"flipduel/internal/models"
	"flipduel/internal/services"

	"github.com/gin-gonic/gin"
)

type PriceHandler struct {
	priceService *services.PriceService
}

func NewPriceHandler(priceService *services.PriceService) *PriceHandler {
	return &PriceHandler{priceService: priceService}
}

type updatePriceRequest struct {
	AssetID string `json:"asset_id" binding:"required"`
	Price   int64  `json:"price" binding:"required"`
	Source  string `json:"source"`
}

// UpdatePrice ingests one pushed price (authorized updaters only)
// POST /api/prices
func (h *PriceHandler) UpdatePrice(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.priceService.UpdatePrice(c.Request.Context(), wallet, req.AssetID, req.Price, req.Source); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type batchUpdateRequest struct {
	Updates []models.PriceUpdate `json:"updates" binding:"required"`
}

// BatchUpdatePrices ingests up to 50 prices in one call
// POST /api/prices/batch
func (h *PriceHandler) BatchUpdatePrices(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req batchUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.priceService.BatchUpdatePrices(c.Request.Context(), wallet, req.Updates); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "count": len(req.Updates)})
}

// GetPrice returns the oracle view of one asset price (0 when unknown)
// GET /api/prices/:asset_id
func (h *PriceHandler) GetPrice(c *gin.Context) {
	assetID := c.Param("asset_id")

	data, err := h.priceService.GetPriceData(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, err)
		return
	}
	if data == nil {
		c.JSON(http.StatusOK, gin.H{"asset_id": assetID, "price": 0})
		return
	}

	c.JSON(http.StatusOK, data)
}

// GetPrices resolves a comma-separated list of asset ids
// GET /api/prices?ids=a,b,c
func (h *PriceHandler) GetPrices(c *gin.Context) {
	idsParam := c.Query("ids")
	if idsParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids query parameter required"})
		return
	}

	prices, err := h.priceService.GetMultiplePrices(c.Request.Context(), strings.Split(idsParam, ","))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"prices": prices})
}
