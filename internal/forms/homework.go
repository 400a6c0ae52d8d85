package forms

import "github.com/noah-isme/gema-admin/internal/models"

// HomeworkForm is the create/edit homework form.
type HomeworkForm struct {
	Title    string `json:"title" label:"Title" validate:"required"`
	Date     string `json:"date" label:"Homework Date" validate:"required,date"`
	DueDate  string `json:"dueDate" label:"Due Date" validate:"required,date,date_after=Date"`
	Class    string `json:"class" label:"Class" validate:"required"`
	Subject  string `json:"subject" label:"Subject" validate:"required"`
	Teacher  string `json:"teacher" label:"Teacher"`
	Details  string `json:"details" label:"Details"`
	Priority string `json:"priority" label:"Priority" validate:"omitempty,oneof=low medium high"`
	Status   string `json:"status" label:"Status" validate:"omitempty,oneof=pending in-progress completed"`
}

// HomeworkFormFrom fills the form from a stored record.
func HomeworkFormFrom(record models.HomeworkRecord) HomeworkForm {
	return HomeworkForm{
		Title:    record.Title,
		Date:     record.Date,
		DueDate:  record.DueDate,
		Class:    record.Class,
		Subject:  record.Subject,
		Teacher:  record.Teacher,
		Details:  record.Details,
		Priority: record.Priority,
		Status:   record.Status,
	}
}

// Input builds the API payload. Details keep safe formatting.
func (f HomeworkForm) Input() models.HomeworkInput {
	return models.HomeworkInput{
		Title:    PlainText(f.Title),
		Date:     f.Date,
		DueDate:  f.DueDate,
		Class:    PlainText(f.Class),
		Subject:  PlainText(f.Subject),
		Teacher:  PlainText(f.Teacher),
		Details:  RichText(f.Details),
		Priority: f.Priority,
		Status:   f.Status,
	}
}
