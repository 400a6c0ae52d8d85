package resources

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/models"
)

// HomeworkFilter holds the filters of the homework list page.
type HomeworkFilter struct {
	Search   string
	Class    string
	Subject  string
	Status   string
	Priority string
}

// Map returns the filter keys as sent to the backend.
func (f HomeworkFilter) Map() map[string]string {
	return map[string]string{
		"search":   f.Search,
		"class":    f.Class,
		"subject":  f.Subject,
		"status":   f.Status,
		"priority": f.Priority,
	}
}

// HomeworkService calls the /homework endpoints.
type HomeworkService struct {
	collection[models.HomeworkRecord, models.HomeworkInput]
	attachmentPolicy apiclient.UploadPolicy
}

// NewHomeworkService constructs the homework module.
func NewHomeworkService(backend Backend, maxUploadBytes int64, logger zerolog.Logger) *HomeworkService {
	return &HomeworkService{
		collection: newCollection[models.HomeworkRecord, models.HomeworkInput](backend, "/homework", "homework", logger),
		attachmentPolicy: apiclient.UploadPolicy{
			MaxBytes: maxUploadBytes,
			Allowed:  []string{apiclient.UploadPDF, apiclient.UploadImage, apiclient.UploadDocument},
		},
	}
}

// UploadAttachment attaches one file to a homework item.
func (s *HomeworkService) UploadAttachment(ctx context.Context, homeworkID string, file FileInput) (models.HomeworkRecord, error) {
	var record models.HomeworkRecord
	if err := requireID(homeworkID); err != nil {
		return record, err
	}
	parts, err := prepareFiles(ctx, "file", []FileInput{file}, s.attachmentPolicy)
	if err != nil {
		return record, err
	}
	if _, err := s.backend.Upload(ctx, s.path(homeworkID, "attachments"), apiclient.Multipart{Files: parts}, &record); err != nil {
		return record, err
	}
	s.logger.Info().Str("id", homeworkID).Str("file", parts[0].FileName).Msg("homework attachment uploaded")
	return record, nil
}

// DeleteAttachment removes one attachment from a homework item.
func (s *HomeworkService) DeleteAttachment(ctx context.Context, homeworkID, attachmentID string) error {
	if err := requireIDs(homeworkID, attachmentID); err != nil {
		return err
	}
	_, err := s.backend.Delete(ctx, s.path(homeworkID, "attachments", attachmentID), nil)
	return err
}
