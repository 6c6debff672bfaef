package invitation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"wedding-invitation/internal/apperror"
	"wedding-invitation/internal/models"
)

// Photo roles accepted by UploadPhoto.
const (
	RoleBride = "bride"
	RoleGroom = "groom"
)

// UploadPhoto stores an image under the caller's prefix and returns its
// public URL. The invitation record is not touched; callers attach the URL
// on their next Update.
func (s *Service) UploadPhoto(ctx context.Context, caller *models.Identity, role string, body io.Reader, fileName string) (string, error) {
	if err := requireCaller(caller); err != nil {
		return "", err
	}
	if role != RoleBride && role != RoleGroom {
		return "", apperror.NewValidation("photo role must be bride or groom", map[string]string{"role": "oneof"})
	}
	if s.objects == nil {
		return "", apperror.ErrUpload.WithMessage("photo storage is not configured")
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxUpload+1))
	if err != nil {
		return "", apperror.ErrBadRequest.WithMessage("failed to read photo").WithInternal(err)
	}
	if len(data) == 0 {
		return "", apperror.NewValidation("photo is empty", map[string]string{"file": "required"})
	}
	if int64(len(data)) > s.maxUpload {
		return "", apperror.NewValidation(
			fmt.Sprintf("photo is larger than %d bytes", s.maxUpload),
			map[string]string{"file": "max"})
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", apperror.NewValidation("file is not an image", map[string]string{"file": "image"})
	}

	objectPath := fmt.Sprintf("%s/%s_%d%s", caller.ID, role, s.now().UnixMilli(), photoExtension(fileName, mt))

	err = s.objects.Upload(ctx, objectPath, bytes.NewReader(data), int64(len(data)), mt.String())
	s.metrics.PhotoUploaded(role, err)
	if err != nil {
		s.log.Error().Err(err).Str("path", objectPath).Msg("photo upload failed")
		return "", apperror.ErrUpload.WithInternal(err)
	}

	url := s.objects.PublicURL(objectPath)
	s.log.Info().Str("path", objectPath).Int("bytes", len(data)).Msg("photo uploaded")
	return url, nil
}

// photoExtension keeps the client's extension as written when it is plain
// alphanumeric and otherwise uses the one matching the sniffed type.
func photoExtension(fileName string, mt *mimetype.MIME) string {
	ext := path.Ext(fileName)
	if len(ext) > 1 && len(ext) <= 6 && isAlnum(ext[1:]) {
		return ext
	}
	return mt.Extension()
}

func isAlnum(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
