package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// The wall
	s.echo.GET("/", s.handleIndex, s.withViewer)
	s.echo.GET("/void", s.handleFeed, s.withViewer)
	s.echo.POST("/message", s.handlePostMessage, newRateLimiter(s.config.PostRatePerSecond, s.config.PostBurst))

	// WebSocket transport only exists when the broadcast channel does
	if s.hub != nil {
		s.echo.GET("/ws/void", s.handleFeedWS)
	}
}
