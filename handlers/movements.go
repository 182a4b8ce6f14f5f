package handlers

import (
	"becky-backend/database"
	"becky-backend/models"
	"becky-backend/services"
	"becky-backend/utils"
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func accountParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		utils.NotFound(c, "Account not found")
		return uuid.Nil, false
	}
	return id, true
}

func movementParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.NotFound(c, "Movement not found")
		return uuid.Nil, false
	}
	return id, true
}

// GET /movements/account/:accountId
func GetAccountMovements(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	accountID, ok := accountParam(c)
	if !ok {
		return
	}

	movements, err := services.NewMovementService(database.DB).ListByAccount(c.Request.Context(), userID, accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movements": movements, "count": len(movements)})
}

// POST /movements/account/:accountId
func CreateMovement(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	accountID, ok := accountParam(c)
	if !ok {
		return
	}

	var req models.CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	movement, err := services.NewMovementService(database.DB).Create(c.Request.Context(), userID, accountID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Movement created successfully", gin.H{"movement": movement})
}

// PUT /movements/:id
func UpdateMovement(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	movementID, ok := movementParam(c)
	if !ok {
		return
	}

	var req models.UpdateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	movement, err := services.NewMovementService(database.DB).Update(c.Request.Context(), userID, movementID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Movement updated", gin.H{"movement": movement})
}

// DELETE /movements/:id
func DeleteMovement(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	movementID, ok := movementParam(c)
	if !ok {
		return
	}

	if err := services.NewMovementService(database.DB).Delete(c.Request.Context(), userID, movementID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Movement deleted", nil)
}

// GET /movements/monthly?month=march&concept=needs
func GetMonthlyExpenses(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	concept := c.Query("concept")
	if concept == "" {
		concept = c.Query("category")
	}

	result, err := services.NewMovementService(database.DB).MonthlyExpenses(c.Request.Context(), userID,
		c.Query("month"), models.Concept(strings.ToLower(concept)))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

var exportContentTypes = map[services.ExportFormat]string{
	services.ExportCSV:  "text/csv; charset=utf-8",
	services.ExportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// GET /movements/account/:accountId/export?format=csv|xlsx
func ExportMovements(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	accountID, ok := accountParam(c)
	if !ok {
		return
	}
	format := services.ExportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))

	var buf bytes.Buffer
	if err := services.NewMovementService(database.DB).Export(c.Request.Context(), userID, accountID, format, &buf); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"movimientos_%s.%s\"",
		time.Now().Format("20060102"), format))
	c.Data(http.StatusOK, exportContentTypes[format], buf.Bytes())
}
