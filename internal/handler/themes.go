package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"wedding-invitation/internal/i18n"
	"wedding-invitation/internal/theme"
)

type themesResponse struct {
	Templates []publicTemplate `json:"templates"`
	Music     []publicMusic    `json:"music"`
}

// themes lists the template and music choices for the create and edit forms.
func (s *Server) themes(c echo.Context) error {
	l := lang(c)

	var resp themesResponse
	for _, t := range theme.Templates() {
		resp.Templates = append(resp.Templates, publicTemplate{Template: t, Name: i18n.T(l, t.Key)})
	}
	for _, m := range theme.Tracks() {
		resp.Music = append(resp.Music, publicMusic{Music: m, Name: i18n.T(l, m.Key)})
	}
	return c.JSON(http.StatusOK, resp)
}
