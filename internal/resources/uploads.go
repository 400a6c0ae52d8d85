package resources

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/models"
)

// UploadService calls the generic /uploads endpoints used for the
// institute logo and similar standalone files.
type UploadService struct {
	backend Backend
	policy  apiclient.UploadPolicy
	logger  zerolog.Logger
}

// NewUploadService constructs the uploads module.
func NewUploadService(backend Backend, maxUploadBytes int64, logger zerolog.Logger) *UploadService {
	return &UploadService{
		backend: backend,
		policy: apiclient.UploadPolicy{
			MaxBytes: maxUploadBytes,
			Allowed:  []string{apiclient.UploadImage},
		},
		logger: logger.With().Str("component", "upload_resource").Logger(),
	}
}

// List returns previously uploaded files.
func (s *UploadService) List(ctx context.Context) ([]models.Upload, error) {
	var uploads []models.Upload
	if _, err := s.backend.Get(ctx, "/uploads", nil, &uploads); err != nil {
		return nil, err
	}
	if uploads == nil {
		uploads = []models.Upload{}
	}
	return uploads, nil
}

// Upload sends a logo image.
func (s *UploadService) Upload(ctx context.Context, file FileInput) (models.Upload, error) {
	var upload models.Upload
	parts, err := prepareFiles(ctx, "logo", []FileInput{file}, s.policy)
	if err != nil {
		return upload, err
	}
	if _, err := s.backend.Upload(ctx, "/uploads", apiclient.Multipart{Files: parts}, &upload); err != nil {
		return upload, err
	}
	s.logger.Info().Str("file", parts[0].FileName).Int("bytes", len(parts[0].Data)).Msg("file uploaded")
	return upload, nil
}

// Delete removes an uploaded file.
func (s *UploadService) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if _, err := s.backend.Delete(ctx, resourcePath("/uploads", id), nil); err != nil {
		return err
	}
	s.logger.Info().Str("id", id).Msg("upload deleted")
	return nil
}
