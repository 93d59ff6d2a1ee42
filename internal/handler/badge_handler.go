package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gamification-api/internal/dto"
	"github.com/noah-isme/sma-gamification-api/internal/models"
	"github.com/noah-isme/sma-gamification-api/pkg/response"
)

type badgeLister interface {
	ListWithProgress(ctx context.Context, userID string, viewerRole models.UserRole) (*dto.BadgeOverview, error)
}

// BadgeHandler exposes the badge catalog with the caller's progress.
type BadgeHandler struct {
	service badgeLister
}

// NewBadgeHandler constructs the handler.
func NewBadgeHandler(service badgeLister) *BadgeHandler {
	return &BadgeHandler{service: service}
}

// List godoc
// @Summary Badges of the current user
// @Description Earned and locked badges with progress towards each threshold
// @Tags Badges
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /badges [get]
func (h *BadgeHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	overview, err := h.service.ListWithProgress(c.Request.Context(), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}
