package forms

import "github.com/noah-isme/gema-admin/internal/models"

// ExamForm is the create/edit exam form.
type ExamForm struct {
	ExaminationName string `json:"examinationName" label:"Examination Name" validate:"required"`
	ExamName        string `json:"examName" label:"Exam Name" validate:"required"`
	ClassName       string `json:"className" label:"Class" validate:"required"`
	ClassID         string `json:"classId" label:"Class"`
	StartDate       string `json:"startDate" label:"Start Date" validate:"required,date"`
	EndDate         string `json:"endDate" label:"End Date" validate:"required,date,date_after=StartDate"`
	IsPublished     bool   `json:"isPublished" label:"Published"`
}

// ExamFormFrom fills the form from a stored record.
func ExamFormFrom(record models.ExamRecord) ExamForm {
	return ExamForm{
		ExaminationName: record.ExaminationName,
		ExamName:        record.ExamName,
		ClassName:       record.ClassName,
		ClassID:         record.ClassID,
		StartDate:       record.StartDate,
		EndDate:         record.EndDate,
		IsPublished:     record.IsPublished,
	}
}

// Input builds the API payload.
func (f ExamForm) Input() models.ExamInput {
	return models.ExamInput{
		ExaminationName: PlainText(f.ExaminationName),
		ExamName:        PlainText(f.ExamName),
		ClassName:       PlainText(f.ClassName),
		ClassID:         f.ClassID,
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
		IsPublished:     f.IsPublished,
	}
}
