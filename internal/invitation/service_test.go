package invitation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-invitation/internal/apperror"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/objectstore"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/storage/storagetest"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fixture struct {
	svc   *Service
	store *storage.Storage
	disk  *objectstore.DiskStore
	clock *time.Time
	alice *models.Identity
	bob   *models.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := storagetest.New(t)
	disk, err := objectstore.NewDiskStore(t.TempDir(), "http://localhost:8080", zerolog.Nop())
	require.NoError(t, err)

	clock := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	f := &fixture{
		store: store,
		disk:  disk,
		clock: &clock,
		alice: storagetest.CreateUser(t, store, "alice"),
		bob:   storagetest.CreateUser(t, store, "bob"),
	}
	f.svc = NewService(store, disk, nil, zerolog.Nop(),
		WithClock(func() time.Time { return *f.clock }),
		WithMaxUploadBytes(1024))
	return f
}

func (f *fixture) tick() {
	*f.clock = f.clock.Add(time.Second)
}

func sitiBudi() models.InvitationFields {
	return models.InvitationFields{
		BrideName:   "Siti",
		GroomName:   "Budi",
		WeddingDate: "2025-12-20",
	}
}

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, publish := range []bool{false, true} {
		inv, err := f.svc.Create(ctx, f.alice, sitiBudi(), publish)
		require.NoError(t, err)

		assert.NotEmpty(t, inv.ID)
		assert.Equal(t, f.alice.ID, inv.OwnerID)
		assert.Equal(t, publish, inv.IsPublished)
		assert.Equal(t, models.DefaultTemplateID, inv.TemplateID)
		assert.Equal(t, models.DefaultMusicChoice, inv.MusicChoice)
		require.NotNil(t, inv.Slug)
		assert.True(t, strings.HasPrefix(*inv.Slug, "siti-budi-"), *inv.Slug)
		assert.Len(t, *inv.Slug, len("siti-budi-")+slugTokenLength)
		assert.Equal(t, inv.CreatedAt, inv.UpdatedAt)
	}
}

func TestCreateRequiresCallerAndMandatoryFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, nil, sitiBudi(), false)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	for _, mutate := range []func(*models.InvitationFields){
		func(in *models.InvitationFields) { in.BrideName = "" },
		func(in *models.InvitationFields) { in.GroomName = "   " },
		func(in *models.InvitationFields) { in.WeddingDate = "" },
		func(in *models.InvitationFields) { in.WeddingDate = "20-12-2025" },
		func(in *models.InvitationFields) { in.TemplateID = 9 },
	} {
		fields := sitiBudi()
		mutate(&fields)
		_, err := f.svc.Create(ctx, f.alice, fields, false)
		assert.True(t, errors.Is(err, apperror.ErrValidation), "fields %+v: %v", fields, err)
	}

	invs, err := f.svc.ListOwned(ctx, f.alice)
	require.NoError(t, err)
	assert.Empty(t, invs)
}

func TestMandatoryFieldsRoundTripVerbatim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	fields := models.InvitationFields{
		BrideName:   " Siti Nurhaliza ",
		GroomName:   "Budi  Santoso",
		WeddingDate: "2025-12-20",
		WeddingTime: strPtr("10:30"),
		VenueName:   strPtr(""),
	}
	created, err := f.svc.Create(ctx, f.alice, fields, true)
	require.NoError(t, err)

	got, err := f.svc.FetchPublic(ctx, created.SlugValue())
	require.NoError(t, err)
	assert.Equal(t, fields.BrideName, got.BrideName)
	assert.Equal(t, fields.GroomName, got.GroomName)
	assert.Equal(t, fields.WeddingDate, got.WeddingDate)
	require.NotNil(t, got.WeddingTime)
	assert.Equal(t, "10:30", *got.WeddingTime)
	assert.Nil(t, got.VenueName)
}

func TestUpdateByNonOwnerChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	inv, err := f.svc.Create(ctx, f.alice, sitiBudi(), false)
	require.NoError(t, err)

	hijack := sitiBudi()
	hijack.BrideName = "Mallory"
	_, err = f.svc.Update(ctx, f.bob, inv.ID, hijack, true)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = f.svc.Update(ctx, nil, inv.ID, hijack, true)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	got, err := f.svc.Get(ctx, f.alice, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Siti", got.BrideName)
	assert.False(t, got.IsPublished)

	_, err = f.svc.Get(ctx, f.bob, inv.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUpdateOverwritesAndKeepsSlug(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	inv, err := f.svc.Create(ctx, f.alice, sitiBudi(), false)
	require.NoError(t, err)

	f.tick()
	fields := sitiBudi()
	fields.BrideName = "Siti Aminah"
	fields.TemplateID = 3
	updated, err := f.svc.Update(ctx, f.alice, inv.ID, fields, true)
	require.NoError(t, err)

	assert.Equal(t, "Siti Aminah", updated.BrideName)
	assert.Equal(t, 3, updated.TemplateID)
	assert.True(t, updated.IsPublished)
	assert.Equal(t, inv.SlugValue(), updated.SlugValue())
	assert.Equal(t, inv.OwnerID, updated.OwnerID)
	assert.True(t, updated.UpdatedAt.After(inv.UpdatedAt))

	_, err = f.svc.Update(ctx, f.alice, "missing", fields, true)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestFetchPublicHidesDrafts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	inv, err := f.svc.Create(ctx, f.alice, sitiBudi(), false)
	require.NoError(t, err)

	_, err = f.svc.FetchPublic(ctx, inv.SlugValue())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = f.svc.SetPublished(ctx, f.alice, inv.ID, true)
	require.NoError(t, err)
	got, err := f.svc.FetchPublic(ctx, inv.SlugValue())
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)

	_, err = f.svc.SetPublished(ctx, f.alice, inv.ID, false)
	require.NoError(t, err)
	_, err = f.svc.FetchPublic(ctx, inv.SlugValue())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = f.svc.FetchPublic(ctx, "no-such-slug")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	_, err = f.svc.FetchPublic(ctx, " ")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestSetPublishedRejectsNonOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	inv, err := f.svc.Create(ctx, f.alice, sitiBudi(), false)
	require.NoError(t, err)

	_, err = f.svc.SetPublished(ctx, f.bob, inv.ID, true)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	got, err := f.svc.Get(ctx, f.alice, inv.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
}

func TestPublishAssignsSlugToLegacyRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	now := f.clock.UTC()
	legacy := &models.Invitation{
		ID: "legacy-1", OwnerID: f.alice.ID,
		BrideName: "Siti", GroomName: "Budi", WeddingDate: "2025-12-20",
		TemplateID: 1, MusicChoice: 1, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.store.CreateInvitation(ctx, legacy))

	inv, err := f.svc.SetPublished(ctx, f.alice, legacy.ID, true)
	require.NoError(t, err)
	require.NotNil(t, inv.Slug)
	assert.True(t, strings.HasPrefix(*inv.Slug, "siti-budi-"))

	got, err := f.svc.FetchPublic(ctx, *inv.Slug)
	require.NoError(t, err)
	assert.Equal(t, legacy.ID, got.ID)
}

func TestSlugCollisionDrawsNewToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tokens := []string{"aaaaaa", "aaaaaa", "bbbbbb"}
	f.svc.newToken = func() (string, error) {
		tok := tokens[0]
		tokens = tokens[1:]
		return tok, nil
	}

	first, err := f.svc.Create(ctx, f.alice, sitiBudi(), true)
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, f.bob, sitiBudi(), true)
	require.NoError(t, err)

	assert.Equal(t, "siti-budi-aaaaaa", first.SlugValue())
	assert.Equal(t, "siti-budi-bbbbbb", second.SlugValue())
}

func TestSlugCollisionGivesUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.svc.newToken = func() (string, error) { return "same00", nil }

	_, err := f.svc.Create(ctx, f.alice, sitiBudi(), true)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.bob, sitiBudi(), true)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	invs, err := f.svc.ListOwned(ctx, f.bob)
	require.NoError(t, err)
	assert.Empty(t, invs)
}

func TestListOwnedNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	invs, err := f.svc.ListOwned(ctx, f.alice)
	require.NoError(t, err)
	assert.NotNil(t, invs)
	assert.Empty(t, invs)

	var ids []string
	for _, name := range []string{"Ani", "Dewi", "Rina"} {
		fields := sitiBudi()
		fields.BrideName = name
		inv, err := f.svc.Create(ctx, f.alice, fields, false)
		require.NoError(t, err)
		ids = append(ids, inv.ID)
		f.tick()
	}
	_, err = f.svc.Create(ctx, f.bob, sitiBudi(), false)
	require.NoError(t, err)

	invs, err = f.svc.ListOwned(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, invs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{invs[0].ID, invs[1].ID, invs[2].ID})

	_, err = f.svc.ListOwned(ctx, nil)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
}

func TestDeleteCascadesAndIsLoud(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	inv, err := f.svc.Create(ctx, f.alice, sitiBudi(), true)
	require.NoError(t, err)
	require.NoError(t, f.store.AddGuestMessage(ctx, &models.GuestMessage{
		ID: "m1", InvitationID: inv.ID, GuestName: "Tamu", Message: "Selamat!", CreatedAt: *f.clock,
	}))

	err = f.svc.Delete(ctx, f.bob, inv.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	require.NoError(t, f.svc.Delete(ctx, f.alice, inv.ID))

	msgs, err := f.store.ListGuestMessages(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	err = f.svc.Delete(ctx, f.alice, inv.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = f.svc.FetchPublic(ctx, inv.SlugValue())
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUploadPhoto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	url, err := f.svc.UploadPhoto(ctx, f.alice, RoleBride, bytes.NewReader(pngHeader), "Foto Siti.PNG")
	require.NoError(t, err)

	wantPath := "alice/bride_" + itoa(f.clock.UnixMilli()) + ".PNG"
	assert.Equal(t, "http://localhost:8080/media/"+wantPath, url)

	data, err := os.ReadFile(filepath.Join(f.disk.Root(), filepath.FromSlash(wantPath)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestUploadPhotoUsesSniffedExtension(t *testing.T) {
	f := newFixture(t)

	url, err := f.svc.UploadPhoto(context.Background(), f.alice, RoleGroom, bytes.NewReader(pngHeader), "photo")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "/alice/groom_"+itoa(f.clock.UnixMilli())+".png"), url)
}

func TestPhotoExtension(t *testing.T) {
	png := mimetype.Lookup("image/png")
	tests := []struct {
		fileName string
		want     string
	}{
		{"Foto.PNG", ".PNG"},
		{"foto.jpeg", ".jpeg"},
		{"foto.tar.gz", ".gz"},
		{"foto", ".png"},
		{"foto.", ".png"},
		{"foto.p-g", ".png"},
		{"foto.verylongext", ".png"},
	}
	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			assert.Equal(t, tt.want, photoExtension(tt.fileName, png))
		})
	}
}

func TestUploadPhotoRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.UploadPhoto(ctx, nil, RoleBride, bytes.NewReader(pngHeader), "a.png")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	_, err = f.svc.UploadPhoto(ctx, f.alice, "witness", bytes.NewReader(pngHeader), "a.png")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = f.svc.UploadPhoto(ctx, f.alice, RoleBride, strings.NewReader("just some text"), "a.png")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = f.svc.UploadPhoto(ctx, f.alice, RoleBride, strings.NewReader(""), "a.png")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	big := append(append([]byte{}, pngHeader...), make([]byte, 2048)...)
	_, err = f.svc.UploadPhoto(ctx, f.alice, RoleBride, bytes.NewReader(big), "a.png")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

type failingStore struct{ objectstore.Store }

func (failingStore) Upload(context.Context, string, io.Reader, int64, string) error {
	return errors.New("bucket unreachable")
}

func TestUploadPhotoStorageFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store, failingStore{Store: f.disk}, nil, zerolog.Nop())

	_, err := svc.UploadPhoto(context.Background(), f.alice, RoleBride, bytes.NewReader(pngHeader), "a.png")
	assert.True(t, errors.Is(err, apperror.ErrUpload))
}

func TestReplacedAndDeletedPhotosAreRemoved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	oldBride, err := f.svc.UploadPhoto(ctx, f.alice, RoleBride, bytes.NewReader(pngHeader), "a.png")
	require.NoError(t, err)
	groom, err := f.svc.UploadPhoto(ctx, f.alice, RoleGroom, bytes.NewReader(pngHeader), "b.png")
	require.NoError(t, err)

	fields := sitiBudi()
	fields.BridePhotoURL = &oldBride
	fields.GroomPhotoURL = &groom
	inv, err := f.svc.Create(ctx, f.alice, fields, false)
	require.NoError(t, err)

	f.tick()
	newBride, err := f.svc.UploadPhoto(ctx, f.alice, RoleBride, bytes.NewReader(pngHeader), "c.png")
	require.NoError(t, err)
	fields.BridePhotoURL = &newBride
	_, err = f.svc.Update(ctx, f.alice, inv.ID, fields, false)
	require.NoError(t, err)

	assert.False(t, f.exists(t, oldBride), "replaced photo should be removed")
	assert.True(t, f.exists(t, newBride))
	assert.True(t, f.exists(t, groom), "unchanged photo must stay")

	require.NoError(t, f.svc.Delete(ctx, f.alice, inv.ID))
	assert.False(t, f.exists(t, newBride))
	assert.False(t, f.exists(t, groom))
}

func TestSharedPhotosAreKept(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	photo, err := f.svc.UploadPhoto(ctx, f.alice, RoleBride, bytes.NewReader(pngHeader), "a.png")
	require.NoError(t, err)

	fields := sitiBudi()
	fields.BridePhotoURL = &photo
	draft, err := f.svc.Create(ctx, f.alice, fields, false)
	require.NoError(t, err)
	f.tick()
	published, err := f.svc.Create(ctx, f.alice, fields, true)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.alice, draft.ID, sitiBudi(), false)
	require.NoError(t, err)
	assert.True(t, f.exists(t, photo), "photo still used by another invitation")

	require.NoError(t, f.svc.Delete(ctx, f.alice, draft.ID))
	assert.True(t, f.exists(t, photo))

	got, err := f.svc.FetchPublic(ctx, published.SlugValue())
	require.NoError(t, err)
	require.NotNil(t, got.BridePhotoURL)
	assert.Equal(t, photo, *got.BridePhotoURL)

	require.NoError(t, f.svc.Delete(ctx, f.alice, published.ID))
	assert.False(t, f.exists(t, photo), "last reference gone")
}

func TestForeignPhotoURLsAreLeftAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bobPhoto, err := f.svc.UploadPhoto(ctx, f.bob, RoleBride, bytes.NewReader(pngHeader), "a.png")
	require.NoError(t, err)

	fields := sitiBudi()
	fields.BridePhotoURL = &bobPhoto
	fields.GroomPhotoURL = strPtr("https://images.example.com/budi.jpg")
	inv, err := f.svc.Create(ctx, f.alice, fields, false)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.alice, inv.ID))
	assert.True(t, f.exists(t, bobPhoto), "photos outside the owner's prefix are never deleted")
}

func (f *fixture) exists(t *testing.T, url string) bool {
	t.Helper()
	p, ok := f.disk.PathFromURL(url)
	require.True(t, ok, url)
	_, err := os.Stat(filepath.Join(f.disk.Root(), filepath.FromSlash(p)))
	return err == nil
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
