package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"wedding-invitation/internal/apperror"
	"wedding-invitation/internal/guestbook"
	"wedding-invitation/internal/i18n"
	"wedding-invitation/internal/invitation"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/whatsapp"
)

const minPhoneDigits = 8

// Messenger delivers a text message to a phone number.
type Messenger interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

type RSVPConfig struct {
	PublicBaseURL      string
	DefaultCountryCode string
}

// RSVPHandler shares invitation links over WhatsApp and turns the replies
// into RSVP responses.
type RSVPHandler struct {
	messenger   Messenger
	invitations *invitation.Service
	guestbook   *guestbook.Service
	cfg         RSVPConfig
	log         zerolog.Logger
}

// NewRSVPHandler creates a new RSVP handler. A nil messenger disables
// sharing.
func NewRSVPHandler(messenger Messenger, invitations *invitation.Service, gb *guestbook.Service, cfg RSVPConfig, log zerolog.Logger) *RSVPHandler {
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &RSVPHandler{
		messenger:   messenger,
		invitations: invitations,
		guestbook:   gb,
		cfg:         cfg,
		log:         log,
	}
}

// Share sends the public link of a published invitation to a guest and
// remembers the number so the reply can be attributed.
func (h *RSVPHandler) Share(ctx context.Context, caller *models.Identity, invitationID, phoneNumber, guestName string, lang language.Tag) (*models.Share, error) {
	if h.messenger == nil {
		return nil, apperror.ErrTransport.WithMessage(i18n.T(lang, "whatsapp.disabled"))
	}

	guestName = strings.TrimSpace(guestName)
	phone := whatsapp.NormalizePhoneNumber(phoneNumber, h.cfg.DefaultCountryCode)
	fields := map[string]string{}
	if guestName == "" {
		fields["guest_name"] = "notblank"
	}
	if len(phone) < minPhoneDigits {
		fields["phone_number"] = "phone"
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidation("guest name and phone number are required", fields)
	}

	inv, err := h.invitations.Get(ctx, caller, invitationID)
	if err != nil {
		return nil, err
	}
	if !inv.IsPublished || inv.Slug == nil {
		return nil, apperror.NewValidation("only published invitations can be shared",
			map[string]string{"is_published": "published"})
	}

	venue := i18n.T(lang, "venue.tbd")
	if inv.VenueName != nil {
		venue = *inv.VenueName
	}
	link := h.cfg.PublicBaseURL + "/invitation/" + *inv.Slug
	text := i18n.T(lang, "whatsapp.invitation",
		guestName, inv.BrideName, inv.GroomName, inv.WeddingDate, venue, link)

	if err := h.messenger.SendMessage(ctx, phone, text); err != nil {
		return nil, apperror.ErrTransport.WithMessage("failed to send WhatsApp message").WithInternal(err)
	}

	share, err := h.guestbook.RecordShare(ctx, inv.ID, guestName, phone)
	if err != nil {
		return nil, err
	}
	h.log.Info().
		Str("invitation_id", inv.ID).
		Str("phone", phone).
		Msg("invitation shared")
	return share, nil
}

// HandleMessage processes incoming WhatsApp messages for RSVP responses.
// Messages from numbers nobody shared an invitation with, and messages that
// are not a clear answer, are ignored.
func (h *RSVPHandler) HandleMessage(ctx context.Context, sender, text string) error {
	phone := whatsapp.NormalizePhoneNumber(sender, h.cfg.DefaultCountryCode)

	share, err := h.guestbook.LatestShare(ctx, phone)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up share: %w", err)
	}

	status, lang, ok := classifyReply(text)
	if !ok {
		return nil
	}

	inv, err := h.guestbook.PublishedInvitation(ctx, share.InvitationID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			h.log.Debug().Str("invitation_id", share.InvitationID).Msg("reply for an unpublished invitation")
			return nil
		}
		return err
	}

	if _, err := h.guestbook.Respond(ctx, inv.ID, guestbook.RSVPInput{
		GuestName:  share.GuestName,
		Status:     status,
		GuestPhone: &phone,
	}); err != nil {
		return fmt.Errorf("failed to record RSVP: %w", err)
	}

	if h.messenger == nil {
		return nil
	}
	var reply string
	switch status {
	case models.RSVPAccepted:
		reply = i18n.T(lang, "whatsapp.accepted", inv.BrideName, inv.GroomName, inv.WeddingDate)
	case models.RSVPDeclined:
		reply = i18n.T(lang, "whatsapp.declined", inv.BrideName, inv.GroomName)
	default:
		reply = i18n.T(lang, "whatsapp.maybe")
	}
	if err := h.messenger.SendMessage(ctx, phone, reply); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}

type replyKeywords struct {
	lang    language.Tag
	decline []string
	maybe   []string
	accept  []string
}

var replyLanguages = []replyKeywords{
	{
		lang:    language.Indonesian,
		decline: []string{"tidak", "tdk", "gak", "nggak", "enggak", "ga bisa", "tidak bisa", "berhalangan", "maaf tidak"},
		maybe:   []string{"mungkin", "belum tahu", "belum tau", "belum pasti"},
		accept:  []string{"ya", "iya", "yaa", "hadir", "datang", "insyaallah", "insya allah", "siap", "bisa"},
	},
	{
		lang:    language.English,
		decline: []string{"no", "nope", "decline", "declining", "not coming", "cant come", "wont come", "cant make it", "cannot", "unable", "not attending"},
		maybe:   []string{"maybe", "perhaps", "not sure", "unsure"},
		accept:  []string{"yes", "yep", "yeah", "accept", "accepting", "attending", "coming", "will come", "will be there", "sure"},
	},
}

var replySymbols = []struct {
	symbol string
	status models.RSVPStatus
}{
	{"❌", models.RSVPDeclined},
	{"👎", models.RSVPDeclined},
	{"✅", models.RSVPAccepted},
	{"👍", models.RSVPAccepted},
}

// classifyReply maps a free-text WhatsApp reply to an RSVP status and the
// language it was written in. Declines are checked before accepts so that
// "not coming" or "tidak hadir" never count as yes.
func classifyReply(text string) (models.RSVPStatus, language.Tag, bool) {
	padded := " " + strings.Join(replyWords(text), " ") + " "

	for _, kind := range []struct {
		status models.RSVPStatus
		pick   func(replyKeywords) []string
	}{
		{models.RSVPDeclined, func(k replyKeywords) []string { return k.decline }},
		{models.RSVPMaybe, func(k replyKeywords) []string { return k.maybe }},
		{models.RSVPAccepted, func(k replyKeywords) []string { return k.accept }},
	} {
		for _, kw := range replyLanguages {
			for _, phrase := range kind.pick(kw) {
				if strings.Contains(padded, " "+phrase+" ") {
					return kind.status, kw.lang, true
				}
			}
		}
	}

	for _, s := range replySymbols {
		if strings.Contains(text, s.symbol) {
			return s.status, i18n.Default(), true
		}
	}
	return "", language.Und, false
}

// replyWords lower-cases text, drops apostrophes and splits it into words.
func replyWords(text string) []string {
	text = strings.ToLower(text)
	text = strings.NewReplacer("'", "", "’", "").Replace(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
