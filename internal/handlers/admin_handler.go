package handlers

import (
	"net/http"
	"time"

	"flipduel/internal/auth"
	"flipduel/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	authService  *services.AuthService
	duelService  *services.DuelService
	priceService *services.PriceService
}

func NewAdminHandler(
	authService *services.AuthService,
	duelService *services.DuelService,
	priceService *services.PriceService,
) *AdminHandler {
	return &AdminHandler{
		authService:  authService,
		duelService:  duelService,
		priceService: priceService,
	}
}

// AdminMiddleware rejects callers without admin access
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, exists := auth.GetWalletAddress(c)
		if !exists || !h.authService.IsAdmin(wallet) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

type setFeeRequest struct {
	FeePercent int `json:"fee_percent"`
}

// SetPlatformFee updates the platform fee percentage
// POST /api/admin/fee
func (h *AdminHandler) SetPlatformFee(c *gin.Context) {
	var req setFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.duelService.SetPlatformFee(c.Request.Context(), req.FeePercent); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fee_percent": req.FeePercent})
}

// WithdrawFees sweeps accrued platform fees to the treasury wallet
// POST /api/admin/fees/withdraw
func (h *AdminHandler) WithdrawFees(c *gin.Context) {
	amount, err := h.duelService.WithdrawFees(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawn": amount})
}

type updaterRequest struct {
	Wallet string `json:"wallet" binding:"required"`
}

// AddOracleUpdater authorizes a wallet to push prices
// POST /api/admin/oracle/updaters
func (h *AdminHandler) AddOracleUpdater(c *gin.Context) {
	wallet, _ := auth.GetWalletAddress(c)

	var req updaterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.priceService.AddUpdater(c.Request.Context(), wallet, req.Wallet); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RemoveOracleUpdater revokes a wallet's updater authorization
// DELETE /api/admin/oracle/updaters/:wallet
func (h *AdminHandler) RemoveOracleUpdater(c *gin.Context) {
	wallet, _ := auth.GetWalletAddress(c)

	if err := h.priceService.RemoveUpdater(c.Request.Context(), wallet, c.Param("wallet")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListOracleUpdaters lists authorized oracle updater wallets
// GET /api/admin/oracle/updaters
func (h *AdminHandler) ListOracleUpdaters(c *gin.Context) {
	updaters, err := h.priceService.ListUpdaters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updaters": updaters})
}

type setIntervalRequest struct {
	IntervalMs int64 `json:"interval_ms" binding:"required"`
}

// SetOracleInterval changes the per-asset re-pricing cadence
// POST /api/admin/oracle/interval
func (h *AdminHandler) SetOracleInterval(c *gin.Context) {
	wallet, _ := auth.GetWalletAddress(c)

	var req setIntervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	interval := time.Duration(req.IntervalMs) * time.Millisecond
	if err := h.priceService.SetMinUpdateInterval(c.Request.Context(), wallet, interval); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"interval_ms": req.IntervalMs})
}
