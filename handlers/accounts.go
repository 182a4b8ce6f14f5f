package handlers

import (
	"becky-backend/database"
	"becky-backend/models"
	"becky-backend/services"
	"becky-backend/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /accounts
func GetAccounts(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	accounts, err := services.NewAccountService(database.DB).List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts, "count": len(accounts)})
}

// POST /accounts
func CreateAccount(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	account, err := services.NewAccountService(database.DB).Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Account created successfully", gin.H{"account": account})
}
