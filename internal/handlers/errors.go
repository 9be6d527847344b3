package handlers

import (
	"errors"
	"net/http"

	"flipduel/internal/models"

	"github.com/gin-gonic/gin"
)

// respondError maps the closed error enumeration to HTTP statuses. The
// caller always receives exactly one error kind.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest

	switch {
	case errors.Is(err, models.ErrDuelNotFound),
		errors.Is(err, models.ErrPortfolioNotFound),
		errors.Is(err, models.ErrUpdaterNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrOnlyCreator),
		errors.Is(err, models.ErrNotWinner),
		errors.Is(err, models.ErrOnlyRegistry),
		errors.Is(err, models.ErrOnlyOracle),
		errors.Is(err, models.ErrOnlyOracleOwner),
		errors.Is(err, models.ErrOnlyAdmin),
		errors.Is(err, models.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrDuelFull),
		errors.Is(err, models.ErrAlreadyParticipant),
		errors.Is(err, models.ErrAlreadyClaimed),
		errors.Is(err, models.ErrAlreadyOwnsAsset),
		errors.Is(err, models.ErrAlreadyAuthorized):
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
