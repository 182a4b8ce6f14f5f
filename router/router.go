package router

import (
	"becky-backend/config"
	"becky-backend/handlers"
	"becky-backend/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": config.AppConfig.AppName,
		})
	})

	// ==========================================
	// AUTH ROUTES (public)
	// ==========================================
	auth := r.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/")
	api.Use(middleware.AuthRequired())
	{
		// User
		api.GET("/users/me", handlers.GetProfile)
		api.PUT("/users/me", handlers.UpdateProfile)
		api.PUT("/users/me/fcm-token", handlers.UpdateFCMToken)

		// Accounts
		api.GET("/accounts", handlers.GetAccounts)
		api.POST("/accounts", handlers.CreateAccount)

		// Movements
		api.GET("/movements/monthly", handlers.GetMonthlyExpenses)
		api.GET("/movements/account/:accountId", handlers.GetAccountMovements)
		api.POST("/movements/account/:accountId", handlers.CreateMovement)
		api.GET("/movements/account/:accountId/export", handlers.ExportMovements)
		api.PUT("/movements/:id", handlers.UpdateMovement)
		api.DELETE("/movements/:id", handlers.DeleteMovement)

		// Contacts
		api.GET("/contacts", handlers.GetContacts)
		api.POST("/contacts", handlers.CreateContact)

		// Loans
		api.POST("/loans/shared-expense", handlers.CreateSharedExpense)
		api.POST("/loans/simple-loan", handlers.CreateSimpleLoan)
		api.GET("/loans/pending", handlers.GetPendingLoans)
		api.PATCH("/loans/:movementId/settle", handlers.SettleLoan)

		// Reports
		api.GET("/reports", handlers.GetReports)
		api.POST("/reports", handlers.CreateReport)
		api.PUT("/reports/:id/toggle", handlers.ToggleReport)
		api.DELETE("/reports/:id", handlers.DeleteReport)
		api.POST("/reports/send-now", handlers.SendReportNow)
		api.GET("/reports/preview/:type", handlers.PreviewReport)
		api.POST("/reports/test-email", handlers.SendTestEmail)

		// Activity
		api.GET("/activity", handlers.GetActivity)

		// Chat
		api.POST("/chat/becky", middleware.UserRateLimit(config.AppConfig.ChatRatePerMinute), handlers.ChatWithBecky)
	}

	return r
}
