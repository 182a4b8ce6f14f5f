package handlers

import (
	"becky-backend/logger"
	"becky-backend/services"
	"becky-backend/utils"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its status code. Unexpected errors
// are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	msg, public := services.PublicMessage(err)
	switch {
	case services.IsValidation(err):
		utils.BadRequest(c, msg)
	case errors.Is(err, services.ErrNotFound):
		utils.NotFound(c, msg)
	case errors.Is(err, services.ErrUnauthorized):
		utils.Unauthorized(c, msg)
	case public && errors.Is(err, services.ErrUnavailable):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, msg)
	default:
		logger.FromContext(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		utils.InternalError(c, "Internal server error")
	}
}
