package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gamification-api/internal/dto"
	"github.com/noah-isme/sma-gamification-api/internal/middleware"
	"github.com/noah-isme/sma-gamification-api/internal/models"
	appErrors "github.com/noah-isme/sma-gamification-api/pkg/errors"
	"github.com/noah-isme/sma-gamification-api/pkg/response"
)

// IdempotencyHeader carries the action key when the body does not.
const IdempotencyHeader = "Idempotency-Key"

type progressionAwarder interface {
	AwardProgression(ctx context.Context, req dto.AwardRequest) (*dto.AwardResult, error)
	AwardAction(ctx context.Context, userID string, role models.UserRole, req dto.ActionAwardRequest) (*dto.AwardResult, error)
	AwardQuizCompletion(ctx context.Context, quiz dto.QuizCompletion) (*dto.AwardResult, error)
}

type progressionReader interface {
	Summary(ctx context.Context, userID string) (*dto.ProgressionSummary, bool, error)
	Leaderboard(ctx context.Context, limit int) (*dto.Leaderboard, bool, error)
}

// ProgressionHandler exposes XP awards and progression read models.
type ProgressionHandler struct {
	awards progressionAwarder
	reads  progressionReader
}

// NewProgressionHandler constructs the handler.
func NewProgressionHandler(awards progressionAwarder, reads progressionReader) *ProgressionHandler {
	return &ProgressionHandler{awards: awards, reads: reads}
}

// AwardAction godoc
// @Summary Reward a portal action for the current user
// @Tags Progression
// @Accept json
// @Produce json
// @Param payload body dto.ActionAwardRequest true "Action payload"
// @Param Idempotency-Key header string false "Action key used to reject duplicate submissions"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /progression/actions [post]
func (h *ProgressionHandler) AwardAction(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.ActionAwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid action payload"))
		return
	}
	if !optionalUUID(c, "related_id", req.RelatedID) {
		return
	}
	if req.ActionKey == "" {
		req.ActionKey = strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	}
	result, err := h.awards.AwardAction(c.Request.Context(), claims.UserID, claims.Role, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AwardQuiz godoc
// @Summary Reward a completed quiz for the current user
// @Tags Progression
// @Accept json
// @Produce json
// @Param payload body dto.QuizCompletion true "Quiz completion"
// @Success 200 {object} response.Envelope
// @Router /progression/quiz-completions [post]
func (h *ProgressionHandler) AwardQuiz(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.QuizCompletion
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid quiz payload"))
		return
	}
	quizID, ok := canonicalUUID(c, "quiz_id", req.QuizID)
	if !ok {
		return
	}
	req.QuizID = quizID
	req.UserID = claims.UserID
	result, err := h.awards.AwardQuizCompletion(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Award godoc
// @Summary Grant XP to a user
// @Description Raw award used by staff tooling. Admin targets are reported with success=false.
// @Tags Progression
// @Accept json
// @Produce json
// @Param payload body dto.AwardRequest true "Award payload"
// @Success 200 {object} response.Envelope
// @Router /progression/awards [post]
func (h *ProgressionHandler) Award(c *gin.Context) {
	if _, ok := requireClaims(c); !ok {
		return
	}
	var req dto.AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid award payload"))
		return
	}
	if req.UserID != "" {
		userID, ok := canonicalUUID(c, "user_id", req.UserID)
		if !ok {
			return
		}
		req.UserID = userID
	}
	if !optionalUUID(c, "related_id", req.RelatedID) {
		return
	}
	if req.ActionKey == "" {
		req.ActionKey = strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	}
	result, err := h.awards.AwardProgression(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Me godoc
// @Summary Progression summary of the current user
// @Tags Progression
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /progression/me [get]
func (h *ProgressionHandler) Me(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	h.writeSummary(c, claims.UserID)
}

// Summary godoc
// @Summary Progression summary of a user
// @Tags Progression
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /progression/users/{id} [get]
func (h *ProgressionHandler) Summary(c *gin.Context) {
	if _, ok := requireClaims(c); !ok {
		return
	}
	userID, ok := canonicalUUID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	h.writeSummary(c, userID)
}

func (h *ProgressionHandler) writeSummary(c *gin.Context, userID string) {
	summary, cacheHit, err := h.reads.Summary(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

// Leaderboard godoc
// @Summary XP leaderboard
// @Tags Progression
// @Produce json
// @Param limit query int false "Number of entries (1-100)"
// @Success 200 {object} response.Envelope
// @Router /progression/leaderboard [get]
func (h *ProgressionHandler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be between 1 and 100"))
			return
		}
		limit = parsed
	}
	board, cacheHit, err := h.reads.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, board, nil, middleware.ExtractMeta(c))
}
