package server

import (
	"log/slog"
	"net/http"

	"github.com/1363V4/datastar-void/internal/feed"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the wall is public and anonymous
	},
}

func (s *Server) handleIndex(c echo.Context) error {
	viewer := viewerFrom(c)

	data := map[string]any{
		"ViewerName": viewer.Name,
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return s.indexTemplate.Execute(c.Response(), data)
}

// handlePostMessage accepts a post. Empty text is accepted and dropped; a
// failed store write is the caller's problem, not silently swallowed.
func (s *Server) handlePostMessage(c echo.Context) error {
	text := c.FormValue("message")

	msg, ok, err := s.publisher.Publish(c.Request().Context(), text)
	if err != nil {
		slog.Error("Failed to publish message", "error", err)
		return c.String(http.StatusInternalServerError, "Failed to publish message")
	}
	if ok {
		slog.Debug("Message published", "id", msg.ID)
	}
	return c.NoContent(http.StatusOK)
}

// handleFeed opens one viewer's feed session and streams rendered updates
// until the client disconnects or the server shuts down.
func (s *Server) handleFeed(c echo.Context) error {
	viewer := viewerFrom(c)

	response := c.Response()
	response.Header().Set(echo.HeaderContentType, "text/event-stream")
	response.Header().Set("Cache-Control", "no-cache")
	response.Header().Set("Connection", "keep-alive")
	response.WriteHeader(http.StatusOK)
	response.Flush()

	session := feed.NewSession(viewer, s.strategy)
	if err := session.Run(c.Request().Context(), newSSESink(response)); err != nil {
		// The stream already started; an echo error response would corrupt
		// it. The session has logged the cause.
		return nil
	}
	return nil
}

// handleFeedWS attaches a WebSocket viewer to the fan-out hub.
func (s *Server) handleFeedWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	if err := s.hub.Register(conn); err != nil {
		slog.Warn("Failed to register with hub", "error", err)
		return nil
	}

	// Read pump blocks until the connection closes
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(conn)
	return nil
}
