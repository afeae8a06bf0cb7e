package stream

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"voiceowl/backend/internal/logging"
	"voiceowl/backend/internal/services"
)

// Handler upgrades /stream requests to websockets and pumps frames through
// a per-connection Session.
type Handler struct {
	service  *services.TranscriptionService
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new Handler.
func NewHandler(service *services.TranscriptionService, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			// the browser client is served from a different origin in dev
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles one websocket connection for its whole lifetime.
func (h *Handler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	h.logger.Info("websocket client connected", "remote", conn.RemoteAddr().String())
	session := NewSession(h.service, h.logger)
	defer session.Close()

	ctx := c.Request().Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			h.logger.Info("websocket client disconnected", "remote", conn.RemoteAddr().String())
			return nil
		}
		resp := session.HandleMessage(ctx, data)
		if resp == nil {
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			h.logger.Error("websocket write failed", "error", err)
			return nil
		}
	}
}
