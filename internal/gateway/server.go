// Package gateway contains the HTTP surface of the board gateway: the login flow endpoints
// and the JSON routes that forward the board API on behalf of a browser session.
package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bulletinboard/board-gateway/internal/board"
	"github.com/bulletinboard/board-gateway/internal/sessions"
	"github.com/labstack/echo/v4"
)

const (
	loginPath    = "/auth/login"
	callbackPath = "/auth/callback"
	logoutPath   = "/auth/logout"
	mePath       = "/auth/me"
)

// HealthChecker reports whether the credential store can be reached.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	registry          *sessions.Registry
	health            HealthChecker
	version           string
	landingURL        string
	reportConcurrency int
}

func (s *Server) RegisterHandlers(e *echo.Echo, commonMiddlewares ...echo.MiddlewareFunc) {
	e.GET("/health", s.GetHealth)
	e.GET("/version", s.GetVersion)

	sessionMiddlewares := append(append([]echo.MiddlewareFunc{}, commonMiddlewares...), s.registry.Middleware())
	auth := e.Group("/auth", sessionMiddlewares...)
	auth.GET("/login", s.GetLogin, NoCaching)
	auth.GET("/callback", s.GetCallback, NoCaching)
	auth.GET("/logout", s.GetLogout, NoCaching)
	auth.POST("/logout", s.PostLogout, NoCaching)
	auth.GET("/me", s.GetMe, NoCaching)

	api := e.Group("/api", sessionMiddlewares...)
	api.GET("/posts", s.GetPosts)
	api.POST("/posts", s.PostPost)
	api.GET("/posts/tags/all", s.GetTags)
	api.GET("/posts/:id", s.GetPost)
	api.PUT("/posts/:id", s.PutPost)
	api.DELETE("/posts/:id", s.DeletePost)
	api.POST("/posts/:id/comments", s.PostComment)
	api.POST("/posts/:id/like", s.PostLike)
	api.GET("/posts/:id/likes", s.GetLikes)
	api.PUT("/comments/:id", s.PutComment)
	api.DELETE("/comments/:id", s.DeleteComment)
	api.GET("/users", s.GetUsers)
	api.GET("/users/:id", s.GetUser)
	api.PUT("/users/:id", s.PutUser)
	api.GET("/users/:id/posts", s.GetUserPosts)
	api.GET("/users/:id/weekly-summary", s.GetWeeklySummary)
	api.GET("/users/:id/weekly-reports", s.GetWeeklyReports)
	api.GET("/reports/weekly", s.GetAllWeeklyReports)
	api.GET("/feed", s.GetFeed)
	api.GET("/search", s.GetSearch)
}

// client builds a board client that sends through the dispatcher of the request's session.
func (s *Server) client(c echo.Context) (*board.Client, error) {
	session, err := sessions.FromContext(c)
	if err != nil {
		return &board.Client{}, err
	}
	return board.NewClient(board.WithSender(session.Dispatcher), board.WithReportConcurrency(s.reportConcurrency))
}

func (s *Server) GetHealth(c echo.Context) error {
	if err := s.health.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: "The credential store is not reachable"})
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) GetVersion(c echo.Context) error {
	return c.String(http.StatusOK, s.version)
}

type ServerOption func(*Server) error

func WithRegistry(registry *sessions.Registry) ServerOption {
	return func(s *Server) error {
		s.registry = registry
		return nil
	}
}

func WithHealthChecker(health HealthChecker) ServerOption {
	return func(s *Server) error {
		s.health = health
		return nil
	}
}

func WithVersion(version string) ServerOption {
	return func(s *Server) error {
		s.version = version
		return nil
	}
}

// WithLandingURL sets where the logged out page sends the user back to.
func WithLandingURL(landingURL string) ServerOption {
	return func(s *Server) error {
		s.landingURL = landingURL
		return nil
	}
}

func WithReportConcurrency(n int) ServerOption {
	return func(s *Server) error {
		if n <= 0 {
			return fmt.Errorf("report concurrency has to be positive, got %d", n)
		}
		s.reportConcurrency = n
		return nil
	}
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := Server{landingURL: "/", reportConcurrency: 4}
	for _, opt := range options {
		err := opt(&server)
		if err != nil {
			return &Server{}, err
		}
	}
	if server.registry == nil {
		return &Server{}, fmt.Errorf("session registry not initialized")
	}
	if server.health == nil {
		return &Server{}, fmt.Errorf("health checker not initialized")
	}
	return &server, nil
}
