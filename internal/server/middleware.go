package server

import (
	"log/slog"
	"net/http"

	"github.com/1363V4/datastar-void/internal/domain"
	"github.com/1363V4/datastar-void/internal/names"
	"github.com/labstack/echo/v4"
)

const (
	sessionName      = "void"
	sessionKeyViewer = "user_id"
	viewerContextKey = "viewer"
)

// withViewer assigns the anonymous viewer identity if absent and threads it
// through the request context. The name is generated exactly once per
// browser session; every later request reuses it.
func (s *Server) withViewer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// A decode error means a stale or tampered cookie; Get still returns
		// a fresh session to write into.
		sess, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			slog.Debug("Resetting undecodable viewer session", "error", err)
		}

		name, ok := sess.Values[sessionKeyViewer].(string)
		if !ok || name == "" {
			name = names.Random()
			sess.Values[sessionKeyViewer] = name
			if err := sess.Save(c.Request(), c.Response()); err != nil {
				return c.String(http.StatusInternalServerError, "Failed to save session")
			}
		}

		c.Set(viewerContextKey, domain.Viewer{Name: name})
		return next(c)
	}
}

// viewerFrom returns the identity assigned by withViewer.
func viewerFrom(c echo.Context) domain.Viewer {
	if viewer, ok := c.Get(viewerContextKey).(domain.Viewer); ok {
		return viewer
	}
	return domain.Viewer{}
}
