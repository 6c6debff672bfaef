// Package handler exposes the invitation services over HTTP and handles
// RSVP replies arriving over WhatsApp.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/guestbook"
	"wedding-invitation/internal/invitation"
	"wedding-invitation/internal/metrics"
	"wedding-invitation/internal/session"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface needs.
type Deps struct {
	Sessions    *session.Provider
	Invitations *invitation.Service
	Guestbook   *guestbook.Service
	RSVP        *RSVPHandler
	Metrics     *metrics.Metrics
	Store       Pinger
	// PublicBaseURL prefixes public invitation links.
	PublicBaseURL string
	// MediaDir is served under /media when photos are kept on disk.
	MediaDir string
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
	// MaxUploadBytes bounds photo uploads; the request body limit on the
	// upload route leaves room for multipart framing on top of it.
	MaxUploadBytes int64
	Log            zerolog.Logger
}

const (
	// bodyLimit applies to every JSON and form request.
	bodyLimit = "1M"
	// publicBodyLimit applies to unauthenticated guest writes.
	publicBodyLimit = "64K"
	// multipartOverhead is added to MaxUploadBytes for the upload route.
	multipartOverhead = 64 << 10
)

// Server is the HTTP surface.
type Server struct {
	e    *echo.Echo
	deps Deps
	log  zerolog.Logger
}

// NewServer builds the echo instance and registers every route.
func NewServer(d Deps) *Server {
	s := &Server{
		e:    echo.New(),
		deps: d,
		log:  d.Log,
	}
	s.deps.PublicBaseURL = strings.TrimRight(d.PublicBaseURL, "/")
	if s.deps.MaxUploadBytes <= 0 {
		s.deps.MaxUploadBytes = invitation.DefaultMaxUploadBytes
	}

	e := s.e
	e.HideBanner = true
	e.HidePort = true
	e.Validator = requestValidator{}
	e.HTTPErrorHandler = HTTPErrorHandler(s.log)

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     []string{s.deps.PublicBaseURL},
			AllowCredentials: true,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Accept-Language"},
		}),
		middleware.RequestID(),
		requestLogger(s.log, d.Metrics),
		middleware.RecoverWithConfig(middleware.RecoverConfig{
			LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
				s.log.Error().Err(err).Str("stack", string(stack)).Msg("panic recovered")
				return nil
			},
		}),
		middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
			Limit: bodyLimit,
			Skipper: func(c echo.Context) bool {
				return c.Path() == uploadRoute
			},
		}),
	)

	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.e

	e.GET("/healthz", s.health)
	if s.deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}
	if s.deps.MediaDir != "" {
		e.Static("/media", s.deps.MediaDir)
	}

	auth := e.Group("/api/auth")
	auth.POST("/signup", s.signUp)
	auth.POST("/signin", s.signIn)
	auth.POST("/signout", s.signOut)
	auth.GET("/session", s.currentSession, s.requireAuth)

	api := e.Group("/api", s.requireAuth)
	api.GET("/invitations", s.listInvitations)
	api.POST("/invitations", s.createInvitation)
	api.GET("/invitations/:id", s.getInvitation)
	api.PUT("/invitations/:id", s.updateInvitation)
	api.DELETE("/invitations/:id", s.deleteInvitation)
	api.POST("/invitations/:id/publish", s.publishInvitation)
	api.POST("/invitations/:id/unpublish", s.unpublishInvitation)
	api.GET("/invitations/:id/messages", s.ownerMessages)
	api.GET("/invitations/:id/rsvps", s.ownerRSVPs)
	api.POST("/invitations/:id/share", s.shareInvitation)
	api.GET("/themes", s.themes)
	api.POST(strings.TrimPrefix(uploadRoute, "/api"), s.uploadPhoto, middleware.BodyLimit(uploadLimit(s.deps.MaxUploadBytes)))

	public := e.Group("/invitation/:slug", middleware.BodyLimit(publicBodyLimit))
	public.GET("", s.publicInvitation)
	public.GET("/qr.png", s.publicQRCode)
	public.GET("/messages", s.publicMessages)
	public.POST("/messages", s.appendMessage)
	public.POST("/rsvp", s.respond)
}

// ServeHTTP lets the server be driven directly, e.g. by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Msg("starting HTTP server")
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.e.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(c.Request().Context()); err != nil {
			s.log.Error().Err(err).Msg("health check failed")
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

const uploadRoute = "/api/photos/:role"

// uploadLimit renders the upload route's body limit in kilobytes, rounded up.
func uploadLimit(maxUpload int64) string {
	return fmt.Sprintf("%dK", (maxUpload+multipartOverhead+1023)/1024)
}

func (s *Server) publicURL(slug string) string {
	return s.deps.PublicBaseURL + "/invitation/" + slug
}
