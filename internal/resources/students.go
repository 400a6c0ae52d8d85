package resources

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/models"
)

// StudentFilter holds the filters of the students list page.
type StudentFilter struct {
	Search  string
	Class   string
	Section string
	Gender  string
	Status  string
}

// Map returns the filter keys as sent to the backend.
func (f StudentFilter) Map() map[string]string {
	return map[string]string{
		"search":  f.Search,
		"class":   f.Class,
		"section": f.Section,
		"gender":  f.Gender,
		"status":  f.Status,
	}
}

// StudentService calls the /students endpoints.
type StudentService struct {
	collection[models.StudentRecord, models.StudentInput]
	photoPolicy    apiclient.UploadPolicy
	documentPolicy apiclient.UploadPolicy
}

// NewStudentService constructs the students module.
func NewStudentService(backend Backend, maxUploadBytes int64, logger zerolog.Logger) *StudentService {
	return &StudentService{
		collection: newCollection[models.StudentRecord, models.StudentInput](backend, "/students", "student", logger),
		photoPolicy: apiclient.UploadPolicy{
			MaxBytes: maxUploadBytes,
			Allowed:  []string{apiclient.UploadImage},
		},
		documentPolicy: apiclient.UploadPolicy{
			MaxBytes: maxUploadBytes,
			Allowed:  []string{apiclient.UploadPDF, apiclient.UploadImage, apiclient.UploadDocument},
		},
	}
}

// UploadPhoto replaces the profile photo of a student.
func (s *StudentService) UploadPhoto(ctx context.Context, studentID string, file FileInput) (models.StudentRecord, error) {
	var record models.StudentRecord
	if err := requireID(studentID); err != nil {
		return record, err
	}
	parts, err := prepareFiles(ctx, "photo", []FileInput{file}, s.photoPolicy)
	if err != nil {
		return record, err
	}
	if _, err := s.backend.Upload(ctx, s.path(studentID, "photo"), apiclient.Multipart{Files: parts}, &record); err != nil {
		return record, err
	}
	s.logger.Info().Str("id", studentID).Msg("student photo uploaded")
	return record, nil
}

// UploadDocuments attaches documents such as certificates to a student.
func (s *StudentService) UploadDocuments(ctx context.Context, studentID string, files []FileInput) (models.StudentRecord, error) {
	var record models.StudentRecord
	if err := requireID(studentID); err != nil {
		return record, err
	}
	parts, err := prepareFiles(ctx, "documents", files, s.documentPolicy)
	if err != nil {
		return record, err
	}
	if _, err := s.backend.Upload(ctx, s.path(studentID, "documents"), apiclient.Multipart{Files: parts}, &record); err != nil {
		return record, err
	}
	s.logger.Info().Str("id", studentID).Int("files", len(parts)).Msg("student documents uploaded")
	return record, nil
}

// Login returns the login credentials of a student. They are kept out of
// the list and record payloads.
func (s *StudentService) Login(ctx context.Context, studentID string) (models.StudentLogin, error) {
	var login models.StudentLogin
	if err := requireID(studentID); err != nil {
		return login, err
	}
	_, err := s.backend.Get(ctx, s.path(studentID, "login"), nil, &login)
	return login, err
}

// UpdateLogin changes the login credentials of a student.
func (s *StudentService) UpdateLogin(ctx context.Context, studentID string, login models.StudentLogin) (models.StudentLogin, error) {
	var saved models.StudentLogin
	if err := requireID(studentID); err != nil {
		return saved, err
	}
	if strings.TrimSpace(login.Username) == "" {
		return saved, apiclient.NewValidationError("username", "Username is required")
	}
	if _, err := s.backend.Put(ctx, s.path(studentID, "login"), login, &saved); err != nil {
		return saved, err
	}
	s.logger.Info().Str("id", studentID).Msg("student login updated")
	return saved, nil
}
