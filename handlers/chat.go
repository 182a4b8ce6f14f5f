package handlers

import (
	"becky-backend/config"
	"becky-backend/database"
	"becky-backend/services"
	"becky-backend/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ChatModel is the LLM client; nil when no API key is configured.
var ChatModel services.ChatModel

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

func chatService() *services.ChatService {
	var history services.ChatHistory
	if database.Redis != nil {
		history = services.NewRedisHistory(database.Redis)
	}
	return services.NewChatService(database.DB, ChatModel, config.AppConfig.OpenAIModel, history).
		WithLedger(ledger())
}

// POST /chat/becky
func ChatWithBecky(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Message is required")
		return
	}

	reply, err := chatService().Reply(c.Request.Context(), userID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": reply})
}
