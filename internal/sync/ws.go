package sync

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // events carry no private data
	},
}

func WSHandler(hub *Hub) gin.HandlerFunc {
	logger := hub.logger.With().Str("transport", "ws").Logger()
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Debug().Err(err).Msg("upgrade failed")
			return
		}

		// Written before registration so it never races a broadcast.
		if err := ws.WriteMessage(websocket.TextMessage, hub.welcome("websocket")); err != nil {
			_ = ws.Close()
			return
		}
		hub.AddWS(ws)
		logger.Info().Str("remote", c.ClientIP()).Msg("client connected")

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		logger.Info().Str("remote", c.ClientIP()).Msg("client disconnected")
	}
}
