package handlers

import (
	"becky-backend/database"
	"becky-backend/models"
	"becky-backend/services"
	"becky-backend/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func reportService() *services.ReportService {
	ns := services.GetNotificationService()
	return services.NewReportService(database.DB, ns.Mailer()).WithDebtAlerter(ns)
}

func reportParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.NotFound(c, "Reporte no encontrado")
		return uuid.Nil, false
	}
	return id, true
}

// GET /reports
func GetReports(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	reports, err := reportService().List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// POST /reports
func CreateReport(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req models.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	report, err := reportService().Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Reporte programado", gin.H{"report": report})
}

// PUT /reports/:id/toggle
func ToggleReport(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	reportID, ok := reportParam(c)
	if !ok {
		return
	}

	var req struct {
		IsActive *bool `json:"isActive" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	report, err := reportService().Toggle(c.Request.Context(), userID, reportID, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Reporte actualizado", gin.H{"report": report})
}

// DELETE /reports/:id
func DeleteReport(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	reportID, ok := reportParam(c)
	if !ok {
		return
	}

	if err := reportService().Delete(c.Request.Context(), userID, reportID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Reporte eliminado exitosamente", nil)
}

// POST /reports/send-now
func SendReportNow(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req struct {
		ReportType models.ReportType `json:"reportType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := reportService().SendNow(c.Request.Context(), userID, req.ReportType); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Reporte enviado exitosamente", nil)
}

// GET /reports/preview/:type
func PreviewReport(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	reportType := models.ReportType(c.Param("type"))

	data, err := reportService().Preview(c.Request.Context(), userID, reportType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"type": reportType, "data": data})
}

// POST /reports/test-email
func SendTestEmail(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	if err := reportService().SendTestEmail(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Email de prueba enviado exitosamente", nil)
}
