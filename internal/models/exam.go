package models

import "time"

// Exam statuses.
const (
	ExamStatusActive    = "active"
	ExamStatusCompleted = "completed"
	ExamStatusInactive  = "inactive"
)

// ExamRecord is an examination as returned by the backend.
type ExamRecord struct {
	ID              string `json:"id"`
	ExaminationName string `json:"examinationName"`
	ExamName        string `json:"examName"`
	ClassName       string `json:"className"`
	ClassID         string `json:"classId,omitempty"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	IsPublished     bool   `json:"isPublished"`
	Status          string `json:"status,omitempty"`
}

// DeriveStatus returns the backend status when present, otherwise computes
// it from the date window.
func (e ExamRecord) DeriveStatus(now time.Time) string {
	if e.Status != "" {
		return e.Status
	}

	start, hasStart := ParseDate(e.StartDate)
	end, hasEnd := ParseDate(e.EndDate)
	if hasEnd && len(e.EndDate) == len("2006-01-02") {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	switch {
	case hasEnd && now.After(end):
		return ExamStatusCompleted
	case hasStart && !now.Before(start):
		return ExamStatusActive
	default:
		return ExamStatusInactive
	}
}

// ExamInput is the create/update payload for an exam.
type ExamInput struct {
	ExaminationName string `json:"examinationName"`
	ExamName        string `json:"examName"`
	ClassName       string `json:"className"`
	ClassID         string `json:"classId,omitempty"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	IsPublished     bool   `json:"isPublished"`
}

// PublishRequest toggles exam visibility.
type PublishRequest struct {
	IsPublished bool `json:"isPublished"`
}
