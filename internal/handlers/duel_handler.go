package handlers

import (
	"net/http"
	"strconv"

	"flipduel/internal/auth"
	"flipduel/internal/services"

	"github.com/gin-gonic/gin"
)

type DuelHandler struct {
	duelService *services.DuelService
}

func NewDuelHandler(duelService *services.DuelService) *DuelHandler {
	return &DuelHandler{
		duelService: duelService,
	}
}

func parseDuelID(c *gin.Context) (uint64, bool) {
	duelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duel id"})
		return 0, false
	}
	return duelID, true
}

// CreateDuel creates a new duel
// POST /api/duels
func (h *DuelHandler) CreateDuel(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req services.CreateDuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	duel, err := h.duelService.CreateDuel(c.Request.Context(), wallet, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, duel)
}

type joinDuelRequest struct {
	EntryFee int64 `json:"entry_fee" binding:"required"`
}

// JoinDuel stakes the entry fee and joins an open duel
// POST /api/duels/:id/join
func (h *DuelHandler) JoinDuel(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	duelID, ok := parseDuelID(c)
	if !ok {
		return
	}

	var req joinDuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	duel, err := h.duelService.JoinDuel(c.Request.Context(), wallet, duelID, req.EntryFee)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, duel)
}

// StartDuel manually starts an open duel (creator only)
// POST /api/duels/:id/start
func (h *DuelHandler) StartDuel(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	duelID, ok := parseDuelID(c)
	if !ok {
		return
	}

	duel, err := h.duelService.StartDuel(c.Request.Context(), wallet, duelID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, duel)
}

// CloseDuel closes an expired duel and determines the winner
// POST /api/duels/:id/close
func (h *DuelHandler) CloseDuel(c *gin.Context) {
	duelID, ok := parseDuelID(c)
	if !ok {
		return
	}

	duel, err := h.duelService.CloseDuel(c.Request.Context(), duelID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, duel)
}

// ClaimRewards pays out a closed duel to its winner
// POST /api/duels/:id/claim
func (h *DuelHandler) ClaimRewards(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	duelID, ok := parseDuelID(c)
	if !ok {
		return
	}

	result, err := h.duelService.ClaimRewards(c.Request.Context(), wallet, duelID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelDuel cancels an open duel (creator only, <2 participants)
// POST /api/duels/:id/cancel
func (h *DuelHandler) CancelDuel(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	duelID, ok := parseDuelID(c)
	if !ok {
		return
	}

	duel, err := h.duelService.CancelDuel(c.Request.Context(), wallet, duelID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, duel)
}

// GetDuel retrieves a duel by id
// GET /api/duels/:id
func (h *DuelHandler) GetDuel(c *gin.Context) {
	duelID, ok := parseDuelID(c)
	if !ok {
		return
	}

	duel, err := h.duelService.GetDuel(c.Request.Context(), duelID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, duel)
}

// GetActiveDuels lists ids of open or running duels
// GET /api/duels/active
func (h *DuelHandler) GetActiveDuels(c *gin.Context) {
	ids, err := h.duelService.GetActiveDuelIDs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"duel_ids": ids})
}

// GetMyDuels lists every duel the caller has participated in
// GET /api/duels
func (h *DuelHandler) GetMyDuels(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ids, err := h.duelService.GetUserDuelIDs(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"duel_ids": ids})
}

// GetUserDuels lists duels for an arbitrary wallet
// GET /api/duels/user/:wallet
func (h *DuelHandler) GetUserDuels(c *gin.Context) {
	wallet := c.Param("wallet")

	ids, err := h.duelService.GetUserDuelIDs(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"duel_ids": ids})
}

// GetLeaderboard returns the ranked standings of a duel
// GET /api/duels/:id/leaderboard
func (h *DuelHandler) GetLeaderboard(c *gin.Context) {
	duelID, ok := parseDuelID(c)
	if !ok {
		return
	}

	entries, err := h.duelService.GetLeaderboard(c.Request.Context(), duelID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// GetDuelEvents returns a duel's audit trail
// GET /api/duels/:id/events
func (h *DuelHandler) GetDuelEvents(c *gin.Context) {
	duelID, ok := parseDuelID(c)
	if !ok {
		return
	}

	events, err := h.duelService.GetDuelEvents(c.Request.Context(), duelID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetPlatformStats returns aggregate registry statistics
// GET /api/stats
func (h *DuelHandler) GetPlatformStats(c *gin.Context) {
	stats, err := h.duelService.GetPlatformStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
