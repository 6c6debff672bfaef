package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"wedding-invitation/internal/apperror"
	"wedding-invitation/internal/i18n"
	"wedding-invitation/internal/metrics"
	"wedding-invitation/internal/models"
)

const (
	identityKey       = "identity"
	sessionCookieName = "session"
)

func requestLogger(log zerolog.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		LogMethod:    true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(v.Method, route, v.Status)

			if route == "/healthz" || route == "/metrics" {
				return nil
			}

			evt := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// requireAuth resolves the bearer token or session cookie to an identity and
// stores it on the context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			return apperror.ErrUnauthorized
		}
		who, err := s.deps.Sessions.Authenticate(c.Request().Context(), token)
		if err != nil {
			return err
		}
		c.Set(identityKey, who)
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// identity returns the caller set by requireAuth, or nil.
func identity(c echo.Context) *models.Identity {
	who, _ := c.Get(identityKey).(*models.Identity)
	return who
}

func lang(c echo.Context) language.Tag {
	return i18n.Match(c.Request().Header.Get("Accept-Language"))
}

type requestValidator struct{}

func (requestValidator) Validate(i interface{}) error {
	return models.ValidateStruct(i)
}
