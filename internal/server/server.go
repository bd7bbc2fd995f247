package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/1363V4/datastar-void/internal/broadcast"
	"github.com/1363V4/datastar-void/internal/config"
	"github.com/1363V4/datastar-void/internal/feed"
	"github.com/1363V4/datastar-void/internal/wall"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
)

const sessionMaxAgeDays = 7

type Server struct {
	echo          *echo.Echo
	config        *config.Config
	publisher     *wall.Publisher
	strategy      feed.Strategy
	hub           *broadcast.Hub   // nil when the push strategy is not in use
	redisClient   *goredis.Client  // nil in memory mode
	sessionStore  *sessions.CookieStore
	indexTemplate *template.Template
	startTime     time.Time
}

// NewServer wires the HTTP surface. hub and redisClient may be nil depending
// on the configured delivery mode and store backend.
func NewServer(cfg *config.Config, publisher *wall.Publisher, strategy feed.Strategy, hub *broadcast.Hub, redisClient *goredis.Client) (*Server, error) {
	indexTmpl, err := template.ParseFiles("web/templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * sessionMaxAgeDays,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:          e,
		config:        cfg,
		publisher:     publisher,
		strategy:      strategy,
		hub:           hub,
		redisClient:   redisClient,
		sessionStore:  sessionStore,
		indexTemplate: indexTmpl,
		startTime:     time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
