package resources

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/models"
)

// ExamFilter holds the filters of the exams list page.
type ExamFilter struct {
	Search    string
	ClassName string
	Status    string
}

// Map returns the filter keys as sent to the backend.
func (f ExamFilter) Map() map[string]string {
	return map[string]string{
		"search":    f.Search,
		"className": f.ClassName,
		"status":    f.Status,
	}
}

// ExamService calls the /exams endpoints.
type ExamService struct {
	collection[models.ExamRecord, models.ExamInput]
}

// NewExamService constructs the exams module.
func NewExamService(backend Backend, logger zerolog.Logger) *ExamService {
	return &ExamService{
		collection: newCollection[models.ExamRecord, models.ExamInput](backend, "/exams", "exam", logger),
	}
}

// Publish toggles whether results of an exam are visible.
func (s *ExamService) Publish(ctx context.Context, id string, published bool) (models.ExamRecord, error) {
	var record models.ExamRecord
	if err := requireID(id); err != nil {
		return record, err
	}
	if _, err := s.backend.Patch(ctx, s.path(id, "publish"), models.PublishRequest{IsPublished: published}, &record); err != nil {
		return record, err
	}
	s.logger.Info().Str("id", id).Bool("published", published).Msg("exam publish state changed")
	return record, nil
}

// ExamMarksService calls the /exams/:id/marks endpoints.
type ExamMarksService struct {
	backend Backend
	logger  zerolog.Logger
}

// NewExamMarksService constructs the exam marks module.
func NewExamMarksService(backend Backend, logger zerolog.Logger) *ExamMarksService {
	return &ExamMarksService{
		backend: backend,
		logger:  logger.With().Str("component", "exam_marks_resource").Logger(),
	}
}

func marksPath(examID, classID string) string {
	return resourcePath("/exams", examID, "marks", classID)
}

// Roster returns the marks sheet of one class for an exam.
func (s *ExamMarksService) Roster(ctx context.Context, examID, classID string) (models.ExamMarksRecord, error) {
	var record models.ExamMarksRecord
	if err := requireIDs(examID, classID); err != nil {
		return record, err
	}
	_, err := s.backend.Get(ctx, marksPath(examID, classID), nil, &record)
	return record, err
}

// Save stores the whole roster in one call.
func (s *ExamMarksService) Save(ctx context.Context, examID, classID string, entries []models.MarksEntry) (models.ExamMarksRecord, error) {
	var record models.ExamMarksRecord
	if err := requireIDs(examID, classID); err != nil {
		return record, err
	}
	if len(entries) == 0 {
		return record, apiclient.NewValidationError("entries", "There are no marks to save")
	}
	if _, err := s.backend.Put(ctx, marksPath(examID, classID), models.SaveMarksRequest{Entries: entries}, &record); err != nil {
		return record, err
	}
	s.logger.Info().Str("exam_id", examID).Str("class_id", classID).Int("entries", len(entries)).Msg("exam marks saved")
	return record, nil
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if err := requireID(id); err != nil {
			return err
		}
	}
	return nil
}
