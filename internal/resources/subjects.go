package resources

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/models"
)

// SubjectService calls the /subjects endpoints. Subjects are managed per
// class as one ordered list.
type SubjectService struct {
	backend Backend
	logger  zerolog.Logger
}

// NewSubjectService constructs the subjects module.
func NewSubjectService(backend Backend, logger zerolog.Logger) *SubjectService {
	return &SubjectService{
		backend: backend,
		logger:  logger.With().Str("component", "subject_resource").Logger(),
	}
}

// ForClass returns the subjects assigned to a class.
func (s *SubjectService) ForClass(ctx context.Context, classID string) ([]models.AssignedSubject, error) {
	if err := requireID(classID); err != nil {
		return nil, err
	}
	var subjects []models.AssignedSubject
	if _, err := s.backend.Get(ctx, resourcePath("/subjects", "class", classID), nil, &subjects); err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []models.AssignedSubject{}
	}
	return subjects, nil
}

// Assign replaces the subject list of a class.
func (s *SubjectService) Assign(ctx context.Context, assignment models.SubjectAssignment) (models.SubjectAssignment, error) {
	var saved models.SubjectAssignment
	if err := requireID(assignment.ClassID); err != nil {
		return saved, apiclient.NewValidationError("classId", "Class is required")
	}
	if len(assignment.Subjects) == 0 {
		return saved, apiclient.NewValidationError("subjects", "Add at least one subject")
	}
	seen := make(map[string]struct{}, len(assignment.Subjects))
	for _, subject := range assignment.Subjects {
		name := strings.ToLower(strings.TrimSpace(subject.SubjectName))
		if name == "" {
			return saved, apiclient.NewValidationError("subjectName", "Subject Name is required")
		}
		if subject.TotalMarks <= 0 {
			return saved, apiclient.NewValidationError("totalMarks", "Total Marks must be greater than 0")
		}
		if _, dup := seen[name]; dup {
			return saved, apiclient.NewValidationError("subjectName", "Subject "+subject.SubjectName+" is listed twice")
		}
		seen[name] = struct{}{}
	}

	if _, err := s.backend.Post(ctx, "/subjects/assign", assignment, &saved); err != nil {
		return saved, err
	}
	s.logger.Info().Str("class_id", assignment.ClassID).Int("subjects", len(assignment.Subjects)).Msg("subjects assigned")
	return saved, nil
}

// RemoveForClass clears the subject list of a class.
func (s *SubjectService) RemoveForClass(ctx context.Context, classID string) error {
	if err := requireID(classID); err != nil {
		return err
	}
	if _, err := s.backend.Delete(ctx, resourcePath("/subjects", "class", classID), nil); err != nil {
		return err
	}
	s.logger.Info().Str("class_id", classID).Msg("class subjects removed")
	return nil
}

// Dropdown returns subject names for select inputs.
func (s *SubjectService) Dropdown(ctx context.Context) ([]models.DropdownOption, error) {
	var options []models.DropdownOption
	if _, err := s.backend.Get(ctx, "/subjects/dropdown", nil, &options); err != nil {
		return nil, err
	}
	if options == nil {
		options = []models.DropdownOption{}
	}
	return options, nil
}
