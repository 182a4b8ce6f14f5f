package handlers

import (
	"becky-backend/database"
	"becky-backend/models"
	"becky-backend/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

type UpdateProfileRequest struct {
	Name          string   `json:"name"`
	MonthlyBudget *float64 `json:"monthlyBudget"`
	SavingsGoal   *float64 `json:"savingsGoal"`
	Categories    []string `json:"categories"`
}

type UpdateFCMTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// GET /users/me
func GetProfile(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}

// PUT /users/me
func UpdateProfile(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if (req.MonthlyBudget != nil && *req.MonthlyBudget < 0) || (req.SavingsGoal != nil && *req.SavingsGoal < 0) {
		utils.BadRequest(c, "Budget and savings goal cannot be negative")
		return
	}

	var user models.User
	if err := database.DB.Preload("Context").First(&user, "id = ?", userID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	if name := utils.CleanText(req.Name); name != "" {
		database.DB.Model(&user).Update("name", name)
	}

	if user.Context != nil && (req.MonthlyBudget != nil || req.SavingsGoal != nil || req.Categories != nil) {
		prefs := user.Context.Preferences
		if req.MonthlyBudget != nil {
			prefs.MonthlyBudget = *req.MonthlyBudget
		}
		if req.SavingsGoal != nil {
			prefs.SavingsGoal = *req.SavingsGoal
		}
		if req.Categories != nil {
			prefs.Categories = utils.CleanList(req.Categories)
		}
		user.Context.Preferences = prefs
		database.DB.Model(user.Context).Select("preferences").Updates(user.Context)
	}

	utils.SuccessResponse(c, http.StatusOK, "Profile updated", gin.H{"user": user.ToResponse()})
}

// PUT /users/me/fcm-token
func UpdateFCMToken(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req UpdateFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	database.DB.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", req.Token)

	utils.SuccessResponse(c, http.StatusOK, "FCM token updated", nil)
}
