package handlers

import (
	"becky-backend/database"
	"becky-backend/models"
	"becky-backend/services"
	"becky-backend/utils"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func ledger() *services.Ledger {
	return services.NewLedger(database.DB).WithNotifier(services.GetNotificationService())
}

// POST /loans/shared-expense
func CreateSharedExpense(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req models.SharedExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	result, err := ledger().CreateSharedExpense(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Shared expense created successfully", gin.H{
		"expense": result.Expense,
		"summary": result.Summary,
	})
}

// POST /loans/simple-loan
func CreateSimpleLoan(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req models.SimpleLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	result, err := ledger().CreateSimpleLoan(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Loan created successfully"
	if req.LoanType == models.LoanBorrowed {
		message = "Borrowed amount recorded successfully"
	}
	utils.SuccessResponse(c, http.StatusOK, message, gin.H{
		"loan":    result.Loan,
		"summary": result.Summary,
	})
}

// GET /loans/pending
func GetPendingLoans(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	result, err := ledger().GetPendingLoans(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PATCH /loans/:movementId/settle
func SettleLoan(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	movementID, err := uuid.Parse(c.Param("movementId"))
	if err != nil {
		utils.NotFound(c, "Loan not found")
		return
	}

	// the body is optional: no body settles the full pending amount
	var req models.SettleLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequest(c, err.Error())
		return
	}

	result, err := ledger().SettleLoan(c.Request.Context(), userID, movementID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Loan settlement recorded successfully", gin.H{
		"settlement":      result.Settlement,
		"remainingAmount": result.RemainingAmount,
		"status":          result.Status,
	})
}
