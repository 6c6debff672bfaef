package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"wedding-invitation/internal/models"
)

const invitationColumns = `id, user_id, bride_name, groom_name, wedding_date, wedding_time,
	venue_name, venue_address, additional_info, template_id, music_choice,
	bride_photo_url, groom_photo_url, is_published, slug, created_at, updated_at`

// CreateInvitation inserts a new invitation row.
func (s *Storage) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO wedding_invitations (`+invitationColumns+`)
		VALUES (:id, :user_id, :bride_name, :groom_name, :wedding_date, :wedding_time,
			:venue_name, :venue_address, :additional_info, :template_id, :music_choice,
			:bride_photo_url, :groom_photo_url, :is_published, :slug, :created_at, :updated_at)`, inv)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to insert invitation: %w", err)
	}
	return nil
}

// UpdateInvitation overwrites the mutable columns of the row matching both
// inv.ID and inv.OwnerID. ErrNotFound means no such owned row exists.
func (s *Storage) UpdateInvitation(ctx context.Context, inv *models.Invitation) error {
	res, err := s.db.NamedExecContext(ctx, `UPDATE wedding_invitations SET
			bride_name = :bride_name,
			groom_name = :groom_name,
			wedding_date = :wedding_date,
			wedding_time = :wedding_time,
			venue_name = :venue_name,
			venue_address = :venue_address,
			additional_info = :additional_info,
			template_id = :template_id,
			music_choice = :music_choice,
			bride_photo_url = :bride_photo_url,
			groom_photo_url = :groom_photo_url,
			is_published = :is_published,
			slug = :slug,
			updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id`, inv)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to update invitation: %w", err)
	}
	return expectOne(res)
}

// GetOwnedInvitation returns the invitation with id if ownerID owns it.
func (s *Storage) GetOwnedInvitation(ctx context.Context, id, ownerID string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.db.GetContext(ctx, &inv,
		`SELECT `+invitationColumns+` FROM wedding_invitations WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

// GetInvitation returns the invitation with id regardless of owner.
func (s *Storage) GetInvitation(ctx context.Context, id string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.db.GetContext(ctx, &inv,
		`SELECT `+invitationColumns+` FROM wedding_invitations WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return &inv, nil
}

// GetInvitationBySlug returns the single invitation carrying slug. More than
// one match is reported as an error rather than picking one.
func (s *Storage) GetInvitationBySlug(ctx context.Context, slug string) (*models.Invitation, error) {
	var invs []models.Invitation
	err := s.db.SelectContext(ctx, &invs,
		`SELECT `+invitationColumns+` FROM wedding_invitations WHERE slug = ? LIMIT 2`, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation by slug: %w", err)
	}
	switch len(invs) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &invs[0], nil
	default:
		return nil, fmt.Errorf("slug %q matches %d invitations", slug, len(invs))
	}
}

// ListInvitationsByOwner returns the owner's invitations, newest first.
func (s *Storage) ListInvitationsByOwner(ctx context.Context, ownerID string) ([]models.Invitation, error) {
	invs := []models.Invitation{}
	err := s.db.SelectContext(ctx, &invs,
		`SELECT `+invitationColumns+` FROM wedding_invitations
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invs, nil
}

// PhotoURLInUse reports whether an invitation other than exceptID still
// uses url as its bride or groom photo.
func (s *Storage) PhotoURLInUse(ctx context.Context, url, exceptID string) (bool, error) {
	var inUse bool
	err := s.db.GetContext(ctx, &inUse,
		`SELECT EXISTS (SELECT 1 FROM wedding_invitations
			WHERE id <> ? AND (bride_photo_url = ? OR groom_photo_url = ?))`, exceptID, url, url)
	if err != nil {
		return false, fmt.Errorf("failed to check photo references: %w", err)
	}
	return inUse, nil
}

// DeleteInvitation removes the owned invitation. Guest messages, RSVP
// responses and shares go with it through ON DELETE CASCADE.
func (s *Storage) DeleteInvitation(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM wedding_invitations WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
