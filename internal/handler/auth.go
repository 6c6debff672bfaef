package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"wedding-invitation/internal/apperror"
	"wedding-invitation/internal/i18n"
	"wedding-invitation/internal/session"
)

type signUpRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	FullName string `json:"full_name" form:"fullName"`
}

type signInRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type sessionResponse struct {
	Session *session.Session `json:"session"`
	Message string           `json:"message"`
}

func (s *Server) signUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithInternal(err)
	}

	sess, err := s.deps.Sessions.SignUp(c.Request().Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, sess)
	return c.JSON(http.StatusCreated, sessionResponse{
		Session: sess,
		Message: i18n.T(lang(c), "message.success.signUp"),
	})
}

func (s *Server) signIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithInternal(err)
	}

	sess, err := s.deps.Sessions.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, sess)
	return c.JSON(http.StatusOK, sessionResponse{
		Session: sess,
		Message: i18n.T(lang(c), "message.success.signIn"),
	})
}

func (s *Server) signOut(c echo.Context) error {
	if token := bearerToken(c); token != "" {
		if err := s.deps.Sessions.SignOut(c.Request().Context(), token); err != nil {
			return err
		}
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, map[string]string{"message": i18n.T(lang(c), "message.success.signOut")})
}

func (s *Server) currentSession(c echo.Context) error {
	who := identity(c)
	profile, err := s.deps.Sessions.Profile(c.Request().Context(), who)
	if err != nil {
		return err
	}

	name := who.Email
	if profile.FullName != nil && *profile.FullName != "" {
		name = *profile.FullName
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user":     who,
		"profile":  profile,
		"greeting": i18n.T(lang(c), "dashboard.welcome", name),
	})
}

func (s *Server) setSessionCookie(c echo.Context, sess *session.Session) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
