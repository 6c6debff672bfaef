// Package invitation implements the invitation lifecycle: drafts, publishing,
// owner-scoped edits and deletes, public lookup by slug and photo uploads.
//
// Every owner-scoped operation takes the caller's identity explicitly. An
// invitation owned by someone else is reported exactly like one that does not
// exist.
package invitation

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
	"wedding-invitation/internal/objectstore"
	"wedding-invitation/internal/storage"
)

const (
	maxSlugAttempts = 5

	// DefaultMaxUploadBytes bounds photo uploads unless overridden.
	DefaultMaxUploadBytes = 5 << 20
)

// Store is the subset of the record store the lifecycle needs.
type Store interface {
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	UpdateInvitation(ctx context.Context, inv *models.Invitation) error
	GetOwnedInvitation(ctx context.Context, id, ownerID string) (*models.Invitation, error)
	GetInvitationBySlug(ctx context.Context, slug string) (*models.Invitation, error)
	ListInvitationsByOwner(ctx context.Context, ownerID string) ([]models.Invitation, error)
	DeleteInvitation(ctx context.Context, id, ownerID string) error
	PhotoURLInUse(ctx context.Context, url, exceptID string) (bool, error)
}

// Service is the invitation lifecycle manager.
type Service struct {
	store     Store
	objects   objectstore.Store
	metrics   *metrics.Metrics
	log       zerolog.Logger
	now       func() time.Time
	newToken  func() (string, error)
	maxUpload int64
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMaxUploadBytes sets the largest accepted photo.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// NewService creates the lifecycle manager. m may be nil.
func NewService(store Store, objects objectstore.Store, m *metrics.Metrics, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		objects:   objects,
		metrics:   m,
		log:       log,
		now:       time.Now,
		newToken:  func() (string, error) { return randomToken(slugTokenLength) },
		maxUpload: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new invitation owned by caller. The slug is assigned here
// and never changes afterwards.
func (s *Service) Create(ctx context.Context, caller *models.Identity, fields models.InvitationFields, publish bool) (*models.Invitation, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	inv := &models.Invitation{
		ID:          uuid.NewString(),
		OwnerID:     caller.ID,
		IsPublished: publish,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	inv.Apply(fields)

	if err := s.saveWithSlug(ctx, inv, s.store.CreateInvitation); err != nil {
		return nil, storeError(err)
	}

	s.metrics.InvitationCreated(publish)
	s.log.Info().
		Str("invitation_id", inv.ID).
		Str("owner_id", inv.OwnerID).
		Str("slug", inv.SlugValue()).
		Bool("published", publish).
		Msg("invitation created")
	return inv, nil
}

// Update overwrites the content of an owned invitation and sets its
// publication state to publish.
func (s *Service) Update(ctx context.Context, caller *models.Identity, id string, fields models.InvitationFields, publish bool) (*models.Invitation, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	prev := *inv

	inv.Apply(fields)
	inv.IsPublished = publish
	inv.UpdatedAt = s.now().UTC()

	if err := s.write(ctx, inv); err != nil {
		return nil, storeError(err)
	}

	if publish && !prev.IsPublished {
		s.metrics.InvitationPublished()
	}
	s.log.Info().
		Str("invitation_id", inv.ID).
		Bool("published", publish).
		Msg("invitation updated")

	s.removeOrphanedPhotos(ctx, &prev, inv)
	return inv, nil
}

// SetPublished moves an owned invitation between draft and published
// without touching its content.
func (s *Service) SetPublished(ctx context.Context, caller *models.Identity, id string, published bool) (*models.Invitation, error) {
	inv, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if inv.IsPublished == published && (inv.Slug != nil || !published) {
		return inv, nil
	}

	was := inv.IsPublished
	inv.IsPublished = published
	inv.UpdatedAt = s.now().UTC()
	if err := s.write(ctx, inv); err != nil {
		return nil, storeError(err)
	}

	if published && !was {
		s.metrics.InvitationPublished()
	}
	s.log.Info().
		Str("invitation_id", inv.ID).
		Bool("published", published).
		Msg("invitation publication changed")
	return inv, nil
}

// Get returns an owned invitation.
func (s *Service) Get(ctx context.Context, caller *models.Identity, id string) (*models.Invitation, error) {
	return s.owned(ctx, caller, id)
}

// ListOwned returns the caller's invitations, newest first.
func (s *Service) ListOwned(ctx context.Context, caller *models.Identity) ([]models.Invitation, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	invs, err := s.store.ListInvitationsByOwner(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err)
	}
	return invs, nil
}

// FetchPublic returns the published invitation carrying slug. Drafts are
// reported as not found.
func (s *Service) FetchPublic(ctx context.Context, slug string) (*models.Invitation, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperror.NewNotFound("invitation")
	}
	inv, err := s.store.GetInvitationBySlug(ctx, slug)
	if err != nil {
		return nil, storeError(err)
	}
	if !inv.IsPublished {
		return nil, apperror.NewNotFound("invitation")
	}
	return inv, nil
}

// Delete removes an owned invitation together with its guest messages and
// RSVP responses. Deleting something the caller does not own, or that is
// already gone, is ErrNotFound.
func (s *Service) Delete(ctx context.Context, caller *models.Identity, id string) error {
	inv, err := s.owned(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteInvitation(ctx, inv.ID, caller.ID); err != nil {
		return storeError(err)
	}

	s.metrics.InvitationDeleted()
	s.log.Info().Str("invitation_id", inv.ID).Msg("invitation deleted")

	s.removeOrphanedPhotos(ctx, inv, nil)
	return nil
}

func (s *Service) owned(ctx context.Context, caller *models.Identity, id string) (*models.Invitation, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperror.NewNotFound("invitation")
	}
	inv, err := s.store.GetOwnedInvitation(ctx, id, caller.ID)
	if err != nil {
		return nil, storeError(err)
	}
	return inv, nil
}

// write persists an existing row, giving it a slug first if it is being
// published without one.
func (s *Service) write(ctx context.Context, inv *models.Invitation) error {
	if inv.IsPublished && inv.Slug == nil {
		return s.saveWithSlug(ctx, inv, s.store.UpdateInvitation)
	}
	return s.store.UpdateInvitation(ctx, inv)
}

// saveWithSlug assigns a fresh slug and calls save, drawing a new token
// whenever the slug is already taken.
func (s *Service) saveWithSlug(ctx context.Context, inv *models.Invitation, save func(context.Context, *models.Invitation) error) error {
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return apperror.NewInternal("failed to generate slug", err)
		}
		slug := buildSlug(inv.BrideName, inv.GroomName, token)
		inv.Slug = &slug

		err = save(ctx, inv)
		if !errors.Is(err, storage.ErrSlugTaken) {
			return err
		}
		s.log.Warn().Str("slug", slug).Int("attempt", attempt).Msg("slug collision")
	}
	inv.Slug = nil
	return storage.ErrSlugTaken
}

// removeOrphanedPhotos deletes photos referenced by prev that next no longer
// uses. Only objects under the owner's prefix that no other invitation
// references are touched, and failures are logged.
func (s *Service) removeOrphanedPhotos(ctx context.Context, prev, next *models.Invitation) {
	if s.objects == nil {
		return
	}
	var keep []*string
	if next != nil {
		keep = []*string{next.BridePhotoURL, next.GroomPhotoURL}
	}

	for _, old := range []*string{prev.BridePhotoURL, prev.GroomPhotoURL} {
		if old == nil || *old == "" || contains(keep, *old) {
			continue
		}
		objectPath, ok := s.objects.PathFromURL(*old)
		if !ok || !strings.HasPrefix(objectPath, prev.OwnerID+"/") {
			continue
		}
		inUse, err := s.store.PhotoURLInUse(ctx, *old, prev.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("path", objectPath).Msg("failed to check photo references")
			continue
		}
		if inUse {
			continue
		}
		if err := s.objects.Delete(ctx, objectPath); err != nil {
			s.log.Warn().Err(err).Str("path", objectPath).Msg("failed to delete orphaned photo")
			continue
		}
		s.log.Debug().Str("path", objectPath).Msg("orphaned photo deleted")
	}
}

func contains(urls []*string, url string) bool {
	for _, u := range urls {
		if u != nil && *u == url {
			return true
		}
	}
	return false
}

func requireCaller(caller *models.Identity) error {
	if caller == nil || caller.ID == "" {
		return apperror.ErrUnauthorized
	}
	return nil
}

func storeError(err error) error {
	if appErr := apperror.As(err); appErr != nil {
		return appErr
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperror.NewNotFound("invitation")
	case errors.Is(err, storage.ErrSlugTaken):
		return apperror.ErrConflict.WithMessage("could not assign a unique slug").WithInternal(err)
	default:
		return apperror.ErrTransport.WithInternal(err)
	}
}
