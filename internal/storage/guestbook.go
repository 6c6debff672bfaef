package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"wedding-invitation/internal/models"
)

// AddGuestMessage inserts a guest message. A message for a missing invitation
// fails with ErrInvitationMissing and leaves nothing behind.
func (s *Storage) AddGuestMessage(ctx context.Context, msg *models.GuestMessage) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO guest_messages
		(id, invitation_id, guest_name, guest_email, message, created_at)
		VALUES (:id, :invitation_id, :guest_name, :guest_email, :message, :created_at)`, msg)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return ErrInvitationMissing
		}
		return fmt.Errorf("failed to insert guest message: %w", err)
	}
	return nil
}

// ListGuestMessages returns the invitation's messages, newest first.
func (s *Storage) ListGuestMessages(ctx context.Context, invitationID string) ([]models.GuestMessage, error) {
	msgs := []models.GuestMessage{}
	err := s.db.SelectContext(ctx, &msgs, `SELECT id, invitation_id, guest_name, guest_email, message, created_at
		FROM guest_messages WHERE invitation_id = ? ORDER BY created_at DESC, rowid DESC`, invitationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guest messages: %w", err)
	}
	return msgs, nil
}

// AddRSVPResponse inserts an RSVP response.
func (s *Storage) AddRSVPResponse(ctx context.Context, r *models.RSVPResponse) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO rsvp_responses
		(id, invitation_id, guest_name, attendance_status, guest_email, guest_phone, message, number_of_guests, created_at)
		VALUES (:id, :invitation_id, :guest_name, :attendance_status, :guest_email, :guest_phone, :message, :number_of_guests, :created_at)`, r)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return ErrInvitationMissing
		}
		return fmt.Errorf("failed to insert rsvp response: %w", err)
	}
	return nil
}

// ListRSVPResponses returns the invitation's responses, newest first.
func (s *Storage) ListRSVPResponses(ctx context.Context, invitationID string) ([]models.RSVPResponse, error) {
	rs := []models.RSVPResponse{}
	err := s.db.SelectContext(ctx, &rs, `SELECT id, invitation_id, guest_name, attendance_status, guest_email,
			guest_phone, message, number_of_guests, created_at
		FROM rsvp_responses WHERE invitation_id = ? ORDER BY created_at DESC, rowid DESC`, invitationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rsvp responses: %w", err)
	}
	return rs, nil
}

// AddShare records that an invitation link was sent to a phone number.
func (s *Storage) AddShare(ctx context.Context, share *models.Share) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO invitation_shares
		(id, invitation_id, guest_name, phone_number, created_at)
		VALUES (:id, :invitation_id, :guest_name, :phone_number, :created_at)`, share)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return ErrInvitationMissing
		}
		return fmt.Errorf("failed to insert share: %w", err)
	}
	return nil
}

// LatestShareByPhone returns the most recent share sent to phoneNumber.
func (s *Storage) LatestShareByPhone(ctx context.Context, phoneNumber string) (*models.Share, error) {
	var share models.Share
	err := s.db.GetContext(ctx, &share, `SELECT id, invitation_id, guest_name, phone_number, created_at
		FROM invitation_shares WHERE phone_number = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, phoneNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	return &share, nil
}
