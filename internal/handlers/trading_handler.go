package handlers

import (
	"net/http"

	"flipduel/internal/auth"
	"flipduel/internal/services"

	"github.com/gin-gonic/gin"
)

type TradingHandler struct {
	tradingService *services.TradingService
	treasury       *services.TreasuryService
}

func NewTradingHandler(tradingService *services.TradingService, treasury *services.TreasuryService) *TradingHandler {
	return &TradingHandler{
		tradingService: tradingService,
		treasury:       treasury,
	}
}

type tradeRequest struct {
	AssetID string `json:"asset_id" binding:"required"`
}

// Buy executes a buy inside the caller's duel portfolio
// POST /api/duels/:id/buy
func (h *TradingHandler) Buy(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	duelID, ok := parseDuelID(c)
	if !ok {
		return
	}

	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	portfolio, err := h.tradingService.Buy(c.Request.Context(), wallet, duelID, req.AssetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// Sell executes a sell inside the caller's duel portfolio
// POST /api/duels/:id/sell
func (h *TradingHandler) Sell(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	duelID, ok := parseDuelID(c)
	if !ok {
		return
	}

	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	portfolio, err := h.tradingService.Sell(c.Request.Context(), wallet, duelID, req.AssetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// GetMyPortfolio returns the caller's portfolio stats for a duel
// GET /api/duels/:id/portfolio
func (h *TradingHandler) GetMyPortfolio(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	duelID, ok := parseDuelID(c)
	if !ok {
		return
	}

	stats, err := h.tradingService.GetPortfolioStats(c.Request.Context(), duelID, wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetTradeHistory returns a participant's trades for a duel
// GET /api/duels/:id/trades/:wallet
func (h *TradingHandler) GetTradeHistory(c *gin.Context) {
	duelID, ok := parseDuelID(c)
	if !ok {
		return
	}

	trades, err := h.tradingService.GetTradeHistory(c.Request.Context(), duelID, c.Param("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

type depositRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// Deposit credits the caller's ledger account (on-ramp stand-in)
// POST /api/wallet/deposit
func (h *TradingHandler) Deposit(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.treasury.Deposit(c.Request.Context(), wallet, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// GetBalance returns the caller's ledger balance
// GET /api/wallet/balance
func (h *TradingHandler) GetBalance(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	balance, err := h.treasury.GetBalance(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet, "balance": balance})
}
