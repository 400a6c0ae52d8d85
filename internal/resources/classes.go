package resources

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/models"
)

// ClassFilter holds the filters of the classes list page.
type ClassFilter struct {
	Search  string
	Section string
	Status  string
	Teacher string
}

// Map returns the filter keys as sent to the backend.
func (f ClassFilter) Map() map[string]string {
	return map[string]string{
		"search":  f.Search,
		"section": f.Section,
		"status":  f.Status,
		"teacher": f.Teacher,
	}
}

// ClassService calls the /classes endpoints.
type ClassService struct {
	collection[models.ClassRecord, models.ClassInput]
	materialPolicy apiclient.UploadPolicy
}

// NewClassService constructs the classes module.
func NewClassService(backend Backend, maxUploadBytes int64, logger zerolog.Logger) *ClassService {
	return &ClassService{
		collection: newCollection[models.ClassRecord, models.ClassInput](backend, "/classes", "class", logger),
		materialPolicy: apiclient.UploadPolicy{
			MaxBytes: maxUploadBytes,
			Allowed:  []string{apiclient.UploadPDF, apiclient.UploadImage, apiclient.UploadDocument, apiclient.UploadZip},
		},
	}
}

// UploadMaterials attaches study materials to a class.
func (s *ClassService) UploadMaterials(ctx context.Context, classID string, files []FileInput) (models.ClassRecord, error) {
	var record models.ClassRecord
	if err := requireID(classID); err != nil {
		return record, err
	}
	parts, err := prepareFiles(ctx, "materials", files, s.materialPolicy)
	if err != nil {
		return record, err
	}
	if _, err := s.backend.Upload(ctx, s.path(classID, "materials"), apiclient.Multipart{Files: parts}, &record); err != nil {
		return record, err
	}
	s.logger.Info().Str("id", classID).Int("files", len(parts)).Msg("class materials uploaded")
	return record, nil
}

// DeleteMaterial removes one material from a class.
func (s *ClassService) DeleteMaterial(ctx context.Context, classID, materialID string) error {
	if err := requireID(classID); err != nil {
		return err
	}
	if err := requireID(materialID); err != nil {
		return err
	}
	_, err := s.backend.Delete(ctx, s.path(classID, "materials", materialID), nil)
	return err
}
