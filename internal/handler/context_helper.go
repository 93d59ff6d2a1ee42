package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/sma-gamification-api/internal/middleware"
	"github.com/noah-isme/sma-gamification-api/internal/models"
	appErrors "github.com/noah-isme/sma-gamification-api/pkg/errors"
	"github.com/noah-isme/sma-gamification-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// requireClaims writes a 401 and returns false when the request carries no user.
func requireClaims(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// canonicalUUID returns value in canonical form, or writes a 400 and returns false
// when it is not a UUID. Ids are stored in uuid columns, so a malformed id would
// otherwise surface as a database error.
func canonicalUUID(c *gin.Context, field, value string) (string, bool) {
	parsed, err := uuid.Parse(value)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("%s must be a valid UUID", field)))
		return "", false
	}
	return parsed.String(), true
}

// optionalUUID canonicalizes an optional id in place.
func optionalUUID(c *gin.Context, field string, value *string) bool {
	if value == nil {
		return true
	}
	id, ok := canonicalUUID(c, field, *value)
	if ok {
		*value = id
	}
	return ok
}
