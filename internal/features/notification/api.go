package notification

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	hub *Hub
}

func NewNotificationApi(hub *Hub) *NotificationApi {
	return &NotificationApi{hub: hub}
}

// Setup godoc
// @Summary      Workflow event stream
// @Description  WebSocket stream of committed workflow advances
// @Tags         websocket
// @Router       /ws/events [get]
func (h *NotificationApi) Setup(app *fiber.App) {
	app.Get("/ws/events", websocket.New(h.hub.Serve))
}
