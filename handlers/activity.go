package handlers

import (
	"becky-backend/database"
	"becky-backend/services"
	"becky-backend/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /activity - ledger activity feed for current user
func GetActivity(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)
	pagination.Normalize()

	activities, err := services.NewActivityService(database.DB).
		List(c.Request.Context(), userID, pagination.Offset(), pagination.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"page":       pagination.Page,
		"limit":      pagination.Limit,
	})
}
