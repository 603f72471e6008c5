package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/poolrides/carpool-backend/internal/services"
)

// WebSocketHandler upgrades the connection and registers it with the hub
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		userRole := c.GetString("userRole")

		services.HandleWebSocket(hub, c.Writer, c.Request, userID, userRole)
	}
}
