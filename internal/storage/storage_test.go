package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/storage/storagetest"
)

func strPtr(s string) *string { return &s }

func newInvitation(id, owner, slug string, at time.Time) *models.Invitation {
	return &models.Invitation{
		ID:          id,
		OwnerID:     owner,
		BrideName:   "Siti",
		GroomName:   "Budi",
		WeddingDate: "2025-12-20",
		TemplateID:  1,
		MusicChoice: 1,
		Slug:        strPtr(slug),
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func TestNewStorageCreatesDatabaseFile(t *testing.T) {
	path := t.TempDir() + "/nested/invitations.db"

	s, err := storage.NewStorage(context.Background(), path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Ping(context.Background()))
}

func TestInvitationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := storagetest.New(t)
	storagetest.CreateUser(t, s, "owner")

	at := time.Date(2025, 1, 2, 3, 4, 5, 600, time.UTC)
	inv := newInvitation("inv-1", "owner", "siti-budi-aaaaaa", at)
	inv.WeddingTime = strPtr("10:00")
	inv.VenueName = strPtr("Masjid Agung")
	require.NoError(t, s.CreateInvitation(ctx, inv))

	got, err := s.GetOwnedInvitation(ctx, "inv-1", "owner")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-20", got.WeddingDate)
	assert.Equal(t, "10:00", *got.WeddingTime)
	assert.Equal(t, "Masjid Agung", *got.VenueName)
	assert.Nil(t, got.VenueAddress)
	assert.False(t, got.IsPublished)
	assert.True(t, at.Equal(got.CreatedAt))

	bySlug, err := s.GetInvitationBySlug(ctx, "siti-budi-aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", bySlug.ID)
}

func TestOwnerScopedAccess(t *testing.T) {
	ctx := context.Background()
	s := storagetest.New(t)
	storagetest.CreateUser(t, s, "owner")
	storagetest.CreateUser(t, s, "intruder")

	inv := newInvitation("inv-1", "owner", "siti-budi-aaaaaa", time.Now().UTC())
	require.NoError(t, s.CreateInvitation(ctx, inv))

	_, err := s.GetOwnedInvitation(ctx, "inv-1", "intruder")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	hijack := *inv
	hijack.OwnerID = "intruder"
	hijack.BrideName = "Mallory"
	assert.ErrorIs(t, s.UpdateInvitation(ctx, &hijack), storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteInvitation(ctx, "inv-1", "intruder"), storage.ErrNotFound)

	got, err := s.GetInvitation(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "Siti", got.BrideName)
}

func TestSlugUniqueness(t *testing.T) {
	ctx := context.Background()
	s := storagetest.New(t)
	storagetest.CreateUser(t, s, "owner")

	now := time.Now().UTC()
	require.NoError(t, s.CreateInvitation(ctx, newInvitation("inv-1", "owner", "same", now)))
	err := s.CreateInvitation(ctx, newInvitation("inv-2", "owner", "same", now))
	assert.ErrorIs(t, err, storage.ErrSlugTaken)

	// Several drafts without a slug are fine.
	a := newInvitation("inv-3", "owner", "", now)
	a.Slug = nil
	b := newInvitation("inv-4", "owner", "", now)
	b.Slug = nil
	require.NoError(t, s.CreateInvitation(ctx, a))
	require.NoError(t, s.CreateInvitation(ctx, b))
}

func TestListInvitationsByOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := storagetest.New(t)
	storagetest.CreateUser(t, s, "owner")
	storagetest.CreateUser(t, s, "other")

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateInvitation(ctx, newInvitation("old", "owner", "a", base)))
	require.NoError(t, s.CreateInvitation(ctx, newInvitation("new", "owner", "b", base.Add(time.Hour))))
	require.NoError(t, s.CreateInvitation(ctx, newInvitation("theirs", "other", "c", base)))

	invs, err := s.ListInvitationsByOwner(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, invs, 2)
	assert.Equal(t, "new", invs[0].ID)
	assert.Equal(t, "old", invs[1].ID)

	none, err := s.ListInvitationsByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestDeleteCascadesToDependents(t *testing.T) {
	ctx := context.Background()
	s := storagetest.New(t)
	storagetest.CreateUser(t, s, "owner")

	now := time.Now().UTC()
	require.NoError(t, s.CreateInvitation(ctx, newInvitation("inv-1", "owner", "a", now)))
	require.NoError(t, s.AddGuestMessage(ctx, &models.GuestMessage{
		ID: "m1", InvitationID: "inv-1", GuestName: "Tamu", Message: "Selamat!", CreatedAt: now,
	}))
	require.NoError(t, s.AddRSVPResponse(ctx, &models.RSVPResponse{
		ID: "r1", InvitationID: "inv-1", GuestName: "Tamu", AttendanceStatus: models.RSVPAccepted, CreatedAt: now,
	}))
	require.NoError(t, s.AddShare(ctx, &models.Share{
		ID: "s1", InvitationID: "inv-1", GuestName: "Tamu", PhoneNumber: "628123", CreatedAt: now,
	}))

	require.NoError(t, s.DeleteInvitation(ctx, "inv-1", "owner"))

	msgs, err := s.ListGuestMessages(ctx, "inv-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	rs, err := s.ListRSVPResponses(ctx, "inv-1")
	require.NoError(t, err)
	assert.Empty(t, rs)
	_, err = s.LatestShareByPhone(ctx, "628123")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.DeleteInvitation(ctx, "inv-1", "owner"), storage.ErrNotFound)
}

func TestPhotoURLInUse(t *testing.T) {
	ctx := context.Background()
	s := storagetest.New(t)
	storagetest.CreateUser(t, s, "owner")

	const photo = "http://localhost:8080/media/owner/bride_1.png"
	now := time.Now().UTC()
	a := newInvitation("inv-a", "owner", "a", now)
	a.BridePhotoURL = strPtr(photo)
	require.NoError(t, s.CreateInvitation(ctx, a))

	inUse, err := s.PhotoURLInUse(ctx, photo, "inv-a")
	require.NoError(t, err)
	assert.False(t, inUse, "the excluded row does not count")

	b := newInvitation("inv-b", "owner", "b", now)
	b.GroomPhotoURL = strPtr(photo)
	require.NoError(t, s.CreateInvitation(ctx, b))

	inUse, err = s.PhotoURLInUse(ctx, photo, "inv-a")
	require.NoError(t, err)
	assert.True(t, inUse)

	inUse, err = s.PhotoURLInUse(ctx, "http://localhost:8080/media/owner/other.png", "inv-a")
	require.NoError(t, err)
	assert.False(t, inUse)
}

func TestGuestMessageReferentialIntegrity(t *testing.T) {
	ctx := context.Background()
	s := storagetest.New(t)

	err := s.AddGuestMessage(ctx, &models.GuestMessage{
		ID: "m1", InvitationID: "missing", GuestName: "Tamu", Message: "Halo", CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, storage.ErrInvitationMissing)

	msgs, err := s.ListGuestMessages(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestGuestMessagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := storagetest.New(t)
	storagetest.CreateUser(t, s, "owner")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateInvitation(ctx, newInvitation("inv-1", "owner", "a", base)))
	for i, name := range []string{"first", "second", "third"} {
		require.NoError(t, s.AddGuestMessage(ctx, &models.GuestMessage{
			ID:           name,
			InvitationID: "inv-1",
			GuestName:    name,
			Message:      "Selamat!",
			CreatedAt:    base.Add(time.Duration(i) * 1500 * time.Millisecond),
		}))
	}

	msgs, err := s.ListGuestMessages(ctx, "inv-1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := storagetest.New(t)
	storagetest.CreateUser(t, s, "owner")

	now := time.Now().UTC()
	require.NoError(t, s.CreateSession(ctx, &models.Session{
		ID: "sess-1", UserID: "owner", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))

	_, err := s.GetSession(ctx, "sess-1", now)
	require.NoError(t, err)

	_, err = s.GetSession(ctx, "sess-1", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.DeleteSession(ctx, "sess-1"))
	_, err = s.GetSession(ctx, "sess-1", now)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := storagetest.New(t)
	storagetest.CreateUser(t, s, "owner")

	now := time.Now().UTC()
	err := s.CreateUser(ctx,
		&models.User{ID: "dup", Email: "owner@example.com", PasswordHash: "x", CreatedAt: now},
		&models.UserProfile{ID: "p-dup", UserID: "dup", CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, storage.ErrEmailTaken)
}
