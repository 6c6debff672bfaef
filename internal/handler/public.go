package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/skip2/go-qrcode"

	"wedding-invitation/internal/apperror"
	"wedding-invitation/internal/guestbook"
	"wedding-invitation/internal/i18n"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/theme"
)

const qrSize = 512

type publicTemplate struct {
	theme.Template
	Name string `json:"name"`
}

type publicMusic struct {
	theme.Music
	Name string `json:"name"`
}

// publicInvitationResponse is what guests see. The owner id is left out.
type publicInvitationResponse struct {
	*models.Invitation
	OwnerID   string         `json:"user_id,omitempty"`
	Template  publicTemplate `json:"template"`
	Music     *publicMusic   `json:"music,omitempty"`
	PublicURL string         `json:"public_url"`
}

type messageRequest struct {
	GuestName  string  `json:"guest_name" form:"guestName"`
	Message    string  `json:"message" form:"message"`
	GuestEmail *string `json:"guest_email" form:"guestEmail"`
}

type rsvpRequest struct {
	GuestName      string  `json:"guest_name" form:"guestName"`
	Status         string  `json:"attendance_status" form:"attendanceStatus"`
	GuestEmail     *string `json:"guest_email" form:"guestEmail"`
	GuestPhone     *string `json:"guest_phone" form:"guestPhone"`
	Message        *string `json:"message" form:"message"`
	NumberOfGuests *int    `json:"number_of_guests" form:"numberOfGuests"`
}

func (s *Server) publicInvitation(c echo.Context) error {
	inv, err := s.deps.Invitations.FetchPublic(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}

	l := lang(c)
	tmpl := theme.TemplateFor(inv.TemplateID)
	resp := publicInvitationResponse{
		Invitation: inv,
		Template:   publicTemplate{Template: tmpl, Name: i18n.T(l, tmpl.Key)},
		PublicURL:  s.publicURL(inv.SlugValue()),
	}
	if m, ok := theme.MusicFor(inv.MusicChoice); ok {
		resp.Music = &publicMusic{Music: m, Name: i18n.T(l, m.Key)}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) publicQRCode(c echo.Context) error {
	inv, err := s.deps.Invitations.FetchPublic(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	png, err := qrcode.Encode(s.publicURL(inv.SlugValue()), qrcode.Medium, qrSize)
	if err != nil {
		return apperror.NewInternal("failed to render QR code", err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (s *Server) publicMessages(c echo.Context) error {
	ctx := c.Request().Context()
	inv, err := s.deps.Invitations.FetchPublic(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	msgs, err := s.deps.Guestbook.List(ctx, inv.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

func (s *Server) appendMessage(c echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithInternal(err)
	}

	ctx := c.Request().Context()
	inv, err := s.deps.Invitations.FetchPublic(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	msg, err := s.deps.Guestbook.Append(ctx, inv.ID, req.GuestName, req.Message, req.GuestEmail)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"guest_message": msg,
		"message":       i18n.T(lang(c), "message.success.sent"),
	})
}

func (s *Server) respond(c echo.Context) error {
	var req rsvpRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithInternal(err)
	}

	ctx := c.Request().Context()
	inv, err := s.deps.Invitations.FetchPublic(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	r, err := s.deps.Guestbook.Respond(ctx, inv.ID, guestbook.RSVPInput{
		GuestName:      req.GuestName,
		Status:         models.RSVPStatus(req.Status),
		GuestEmail:     req.GuestEmail,
		GuestPhone:     req.GuestPhone,
		Message:        req.Message,
		NumberOfGuests: req.NumberOfGuests,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"rsvp":    r,
		"message": i18n.T(lang(c), "message.success.rsvp"),
	})
}
