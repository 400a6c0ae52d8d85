package resources

import (
	"context"

	"github.com/noah-isme/gema-admin/internal/models"
)

// TeacherService exposes the read-only teacher reference list.
type TeacherService struct {
	backend Backend
}

// NewTeacherService constructs the teachers module.
func NewTeacherService(backend Backend) *TeacherService {
	return &TeacherService{backend: backend}
}

// Dropdown returns teacher names for select inputs.
func (s *TeacherService) Dropdown(ctx context.Context) ([]models.DropdownOption, error) {
	var options []models.DropdownOption
	if _, err := s.backend.Get(ctx, "/teachers/dropdown", nil, &options); err != nil {
		return nil, err
	}
	if options == nil {
		options = []models.DropdownOption{}
	}
	return options, nil
}
