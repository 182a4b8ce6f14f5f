package handlers

import (
	"becky-backend/database"
	"becky-backend/models"
	"becky-backend/services"
	"becky-backend/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /contacts
func GetContacts(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	contacts, err := services.NewContactService(database.DB).List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contacts": contacts, "count": len(contacts)})
}

// POST /contacts
func CreateContact(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req models.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	contact, err := services.NewContactService(database.DB).Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Contact created successfully", gin.H{"contact": contact})
}
