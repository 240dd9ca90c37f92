package gateway

import (
	"log/slog"
	"net/http"

	"github.com/bulletinboard/board-gateway/internal/gwerrors"
	"github.com/bulletinboard/board-gateway/internal/sessions"
	"github.com/bulletinboard/board-gateway/internal/utils"
	"github.com/labstack/echo/v4"
)

// GetLogin sends the user to the identity provider flow of the board API.
func (s *Server) GetLogin(c echo.Context) error {
	return c.Redirect(http.StatusFound, s.registry.LoginURL().String())
}

// GetCallback stores the credentials the board API appended to the redirect and verifies them.
func (s *Server) GetCallback(c echo.Context) error {
	session, err := sessions.FromContext(c)
	if err != nil {
		return err
	}
	result, err := session.Bootstrapper.HandleCallback(c.Request().Context(), c.Request().URL)
	if err != nil {
		slog.Info(
			"LOGIN CALLBACK",
			"message",
			"login could not be completed",
			"sessionID",
			session.ID,
			"error",
			err,
			"requestID",
			utils.GetRequestID(c),
		)
	}
	return c.Redirect(http.StatusFound, result.RedirectTo)
}

// GetLogout ends the session and renders the logged out page.
func (s *Server) GetLogout(c echo.Context) error {
	if err := s.logout(c); err != nil {
		return err
	}
	return c.Render(http.StatusOK, "logout", map[string]any{
		"loginURL":   loginPath,
		"landingURL": s.landingURL,
	})
}

func (s *Server) PostLogout(c echo.Context) error {
	if err := s.logout(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) logout(c echo.Context) error {
	session, err := sessions.FromContext(c)
	if err != nil {
		return err
	}
	if err := session.Bootstrapper.Logout(c.Request().Context()); err != nil {
		return err
	}
	s.registry.Remove(c, session.ID)
	slog.Info("LOGOUT", "message", "session ended", "sessionID", session.ID, "requestID", utils.GetRequestID(c))
	return nil
}

// GetMe returns the verified user of the session. A session with a stored token but no
// verified identity is verified again first.
func (s *Server) GetMe(c echo.Context) error {
	session, err := sessions.FromContext(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if !session.Bootstrapper.Authenticated(ctx) {
		if err := session.Bootstrapper.Start(ctx); err != nil {
			return err
		}
	}
	identity, ok := session.Bootstrapper.Identity()
	if !ok {
		return gwerrors.NewAPIError(http.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(http.StatusOK, identity)
}
