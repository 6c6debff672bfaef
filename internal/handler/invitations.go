package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"wedding-invitation/internal/apperror"
	"wedding-invitation/internal/i18n"
	"wedding-invitation/internal/models"
)

type invitationRequest struct {
	models.InvitationFields
	Publish bool `json:"publish"`
}

type invitationResponse struct {
	*models.Invitation
	PublicURL string `json:"public_url,omitempty"`
}

type shareRequest struct {
	PhoneNumber string `json:"phone_number" form:"phoneNumber"`
	GuestName   string `json:"guest_name" form:"guestName"`
}

func (s *Server) view(inv *models.Invitation) invitationResponse {
	resp := invitationResponse{Invitation: inv}
	if inv.Slug != nil {
		resp.PublicURL = s.publicURL(*inv.Slug)
	}
	return resp
}

// bindInvitation reads the create/edit payload either as JSON or as the
// original form fields.
func bindInvitation(c echo.Context) (models.InvitationFields, bool, error) {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEApplicationForm) || strings.HasPrefix(ctype, echo.MIMEMultipartForm) {
		values, err := c.FormParams()
		if err != nil {
			return models.InvitationFields{}, false, apperror.ErrBadRequest.WithInternal(err)
		}
		return models.ParseInvitationForm(values), parseBool(values.Get("publish")), nil
	}

	var req invitationRequest
	if err := c.Bind(&req); err != nil {
		return models.InvitationFields{}, false, apperror.ErrBadRequest.WithInternal(err)
	}
	return req.InvitationFields, req.Publish, nil
}

func parseBool(s string) bool {
	if strings.EqualFold(s, "on") {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

func (s *Server) listInvitations(c echo.Context) error {
	invs, err := s.deps.Invitations.ListOwned(c.Request().Context(), identity(c))
	if err != nil {
		return err
	}
	out := make([]invitationResponse, 0, len(invs))
	for i := range invs {
		out = append(out, s.view(&invs[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createInvitation(c echo.Context) error {
	fields, publish, err := bindInvitation(c)
	if err != nil {
		return err
	}

	inv, err := s.deps.Invitations.Create(c.Request().Context(), identity(c), fields, publish)
	if err != nil {
		return err
	}

	key := "message.success.created"
	if publish {
		key = "message.success.published"
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"invitation": s.view(inv),
		"message":    i18n.T(lang(c), key),
	})
}

func (s *Server) getInvitation(c echo.Context) error {
	inv, err := s.deps.Invitations.Get(c.Request().Context(), identity(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.view(inv))
}

func (s *Server) updateInvitation(c echo.Context) error {
	fields, publish, err := bindInvitation(c)
	if err != nil {
		return err
	}

	inv, err := s.deps.Invitations.Update(c.Request().Context(), identity(c), c.Param("id"), fields, publish)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"invitation": s.view(inv),
		"message":    i18n.T(lang(c), "message.success.updated"),
	})
}

func (s *Server) publishInvitation(c echo.Context) error {
	return s.setPublished(c, true)
}

func (s *Server) unpublishInvitation(c echo.Context) error {
	return s.setPublished(c, false)
}

func (s *Server) setPublished(c echo.Context, published bool) error {
	inv, err := s.deps.Invitations.SetPublished(c.Request().Context(), identity(c), c.Param("id"), published)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"invitation": s.view(inv),
		"message":    i18n.T(lang(c), "message.success.updated"),
	})
}

func (s *Server) deleteInvitation(c echo.Context) error {
	if err := s.deps.Invitations.Delete(c.Request().Context(), identity(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": i18n.T(lang(c), "message.success.deleted")})
}

func (s *Server) ownerMessages(c echo.Context) error {
	msgs, err := s.deps.Guestbook.ListForOwner(c.Request().Context(), identity(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

func (s *Server) ownerRSVPs(c echo.Context) error {
	report, err := s.deps.Guestbook.ListResponses(c.Request().Context(), identity(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) shareInvitation(c echo.Context) error {
	var req shareRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithInternal(err)
	}
	if s.deps.RSVP == nil {
		return apperror.ErrTransport.WithMessage("WhatsApp sharing is disabled")
	}

	l := lang(c)
	share, err := s.deps.RSVP.Share(c.Request().Context(), identity(c), c.Param("id"), req.PhoneNumber, req.GuestName, l)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"share":   share,
		"message": i18n.T(l, "message.success.shared"),
	})
}

func (s *Server) uploadPhoto(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperror.NewValidation("a photo file is required", map[string]string{"file": "required"})
	}
	f, err := fh.Open()
	if err != nil {
		return apperror.ErrBadRequest.WithInternal(err)
	}
	defer f.Close()

	url, err := s.deps.Invitations.UploadPhoto(c.Request().Context(), identity(c), c.Param("role"), f, fh.Filename)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"url":     url,
		"message": i18n.T(lang(c), "message.success.uploaded"),
	})
}
