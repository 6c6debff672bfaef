// Package guestbook manages what guests attach to a published invitation:
// well-wish messages, RSVP responses and the record of links shared with
// them over WhatsApp.
package guestbook

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/apperror"
	"wedding-invitation/internal/metrics"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
)

// Store is the subset of the record store the guestbook needs.
type Store interface {
	GetInvitation(ctx context.Context, id string) (*models.Invitation, error)
	GetOwnedInvitation(ctx context.Context, id, ownerID string) (*models.Invitation, error)
	AddGuestMessage(ctx context.Context, msg *models.GuestMessage) error
	ListGuestMessages(ctx context.Context, invitationID string) ([]models.GuestMessage, error)
	AddRSVPResponse(ctx context.Context, r *models.RSVPResponse) error
	ListRSVPResponses(ctx context.Context, invitationID string) ([]models.RSVPResponse, error)
	AddShare(ctx context.Context, share *models.Share) error
	LatestShareByPhone(ctx context.Context, phoneNumber string) (*models.Share, error)
}

// RSVPInput is an attendance answer as submitted by a guest.
type RSVPInput struct {
	GuestName      string            `json:"guest_name" validate:"notblank"`
	Status         models.RSVPStatus `json:"attendance_status" validate:"required,oneof=accepted declined maybe"`
	GuestEmail     *string           `json:"guest_email" validate:"omitempty,email"`
	GuestPhone     *string           `json:"guest_phone" validate:"omitempty,max=32"`
	Message        *string           `json:"message"`
	NumberOfGuests *int              `json:"number_of_guests" validate:"omitempty,min=1,max=50"`
}

// RSVPReport is the owner's view of an invitation's responses.
type RSVPReport struct {
	Responses []models.RSVPResponse `json:"responses"`
	Summary   models.RSVPSummary    `json:"summary"`
}

type messageInput struct {
	GuestName  string  `json:"guest_name" validate:"notblank"`
	Message    string  `json:"message" validate:"notblank"`
	GuestEmail *string `json:"guest_email" validate:"omitempty,email"`
}

// Service implements the guest-facing relations of an invitation.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the guestbook. m may be nil.
func NewService(store Store, m *metrics.Metrics, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{store: store, metrics: m, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds a guest message to a published invitation. No authentication
// is required.
func (s *Service) Append(ctx context.Context, invitationID, guestName, message string, guestEmail *string) (*models.GuestMessage, error) {
	in := messageInput{
		GuestName:  strings.TrimSpace(guestName),
		Message:    strings.TrimSpace(message),
		GuestEmail: trimOptional(guestEmail),
	}
	if err := models.ValidateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.published(ctx, invitationID); err != nil {
		return nil, err
	}

	msg := &models.GuestMessage{
		ID:           uuid.NewString(),
		InvitationID: invitationID,
		GuestName:    in.GuestName,
		GuestEmail:   in.GuestEmail,
		Message:      in.Message,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.AddGuestMessage(ctx, msg); err != nil {
		return nil, storeError(err)
	}

	s.metrics.GuestMessageAdded()
	s.log.Info().Str("invitation_id", invitationID).Str("message_id", msg.ID).Msg("guest message added")
	return msg, nil
}

// List returns the messages of a published invitation, newest first.
func (s *Service) List(ctx context.Context, invitationID string) ([]models.GuestMessage, error) {
	if _, err := s.published(ctx, invitationID); err != nil {
		return nil, err
	}
	return s.listMessages(ctx, invitationID)
}

// ListForOwner returns the messages of an owned invitation, draft or not.
func (s *Service) ListForOwner(ctx context.Context, caller *models.Identity, invitationID string) ([]models.GuestMessage, error) {
	if err := s.owned(ctx, caller, invitationID); err != nil {
		return nil, err
	}
	return s.listMessages(ctx, invitationID)
}

func (s *Service) listMessages(ctx context.Context, invitationID string) ([]models.GuestMessage, error) {
	msgs, err := s.store.ListGuestMessages(ctx, invitationID)
	if err != nil {
		return nil, storeError(err)
	}
	return msgs, nil
}

// Respond records an RSVP for a published invitation.
func (s *Service) Respond(ctx context.Context, invitationID string, in RSVPInput) (*models.RSVPResponse, error) {
	in.GuestName = strings.TrimSpace(in.GuestName)
	in.Status = models.RSVPStatus(strings.ToLower(strings.TrimSpace(string(in.Status))))
	in.GuestEmail = trimOptional(in.GuestEmail)
	in.GuestPhone = trimOptional(in.GuestPhone)
	in.Message = trimOptional(in.Message)
	if err := models.ValidateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.published(ctx, invitationID); err != nil {
		return nil, err
	}

	r := &models.RSVPResponse{
		ID:               uuid.NewString(),
		InvitationID:     invitationID,
		GuestName:        in.GuestName,
		AttendanceStatus: in.Status,
		GuestEmail:       in.GuestEmail,
		GuestPhone:       in.GuestPhone,
		Message:          in.Message,
		NumberOfGuests:   in.NumberOfGuests,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.store.AddRSVPResponse(ctx, r); err != nil {
		return nil, storeError(err)
	}

	s.metrics.RSVPRecorded(string(r.AttendanceStatus))
	s.log.Info().
		Str("invitation_id", invitationID).
		Str("guest", r.GuestName).
		Str("status", string(r.AttendanceStatus)).
		Msg("rsvp recorded")
	return r, nil
}

// ListResponses returns the RSVP responses of an owned invitation with their
// summary.
func (s *Service) ListResponses(ctx context.Context, caller *models.Identity, invitationID string) (*RSVPReport, error) {
	if err := s.owned(ctx, caller, invitationID); err != nil {
		return nil, err
	}
	rs, err := s.store.ListRSVPResponses(ctx, invitationID)
	if err != nil {
		return nil, storeError(err)
	}
	return &RSVPReport{Responses: rs, Summary: models.Summarize(rs)}, nil
}

// RecordShare notes that the invitation link was sent to phoneNumber so that
// replies from it can be matched to the invitation.
func (s *Service) RecordShare(ctx context.Context, invitationID, guestName, phoneNumber string) (*models.Share, error) {
	share := &models.Share{
		ID:           uuid.NewString(),
		InvitationID: invitationID,
		GuestName:    strings.TrimSpace(guestName),
		PhoneNumber:  phoneNumber,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.AddShare(ctx, share); err != nil {
		return nil, storeError(err)
	}
	return share, nil
}

// LatestShare returns the most recent share sent to phoneNumber.
func (s *Service) LatestShare(ctx context.Context, phoneNumber string) (*models.Share, error) {
	share, err := s.store.LatestShareByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperror.NewNotFound("share")
		}
		return nil, apperror.ErrTransport.WithInternal(err)
	}
	return share, nil
}

// PublishedInvitation returns the invitation guests are addressing.
func (s *Service) PublishedInvitation(ctx context.Context, invitationID string) (*models.Invitation, error) {
	return s.published(ctx, invitationID)
}

// published returns the invitation if it exists and is published. Drafts
// look the same as missing invitations.
func (s *Service) published(ctx context.Context, invitationID string) (*models.Invitation, error) {
	if strings.TrimSpace(invitationID) == "" {
		return nil, apperror.NewNotFound("invitation")
	}
	inv, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, storeError(err)
	}
	if !inv.IsPublished {
		return nil, apperror.NewNotFound("invitation")
	}
	return inv, nil
}

func (s *Service) owned(ctx context.Context, caller *models.Identity, invitationID string) error {
	if caller == nil || caller.ID == "" {
		return apperror.ErrUnauthorized
	}
	if _, err := s.store.GetOwnedInvitation(ctx, invitationID, caller.ID); err != nil {
		return storeError(err)
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func storeError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvitationMissing):
		return apperror.NewNotFound("invitation")
	default:
		return apperror.ErrTransport.WithInternal(err)
	}
}
