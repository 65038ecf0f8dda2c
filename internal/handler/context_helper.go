package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/novalab-io/labms-api/internal/middleware"
	"github.com/novalab-io/labms-api/internal/models"
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
