package forms

import "github.com/noah-isme/gema-admin/internal/models"

// SubjectRow is one subject line of the assignment form.
type SubjectRow struct {
	SubjectName string  `json:"subjectName" label:"Subject Name" validate:"required"`
	TotalMarks  float64 `json:"totalMarks" label:"Total Marks" validate:"gt=0,lte=1000"`
	IsRequired  bool    `json:"isRequired" label:"Required"`
}

// SubjectAssignmentForm assigns an ordered subject list to a class.
type SubjectAssignmentForm struct {
	ClassID  string       `json:"classId" label:"Class" validate:"required"`
	Subjects []SubjectRow `json:"subjects" label:"Subjects" validate:"required,min=1,dive"`
}

// AddRow appends an empty subject row.
func (f *SubjectAssignmentForm) AddRow() {
	f.Subjects = append(f.Subjects, SubjectRow{})
}

// RemoveRow drops the row at idx.
func (f *SubjectAssignmentForm) RemoveRow(idx int) {
	if idx < 0 || idx >= len(f.Subjects) {
		return
	}
	rows := make([]SubjectRow, 0, len(f.Subjects)-1)
	rows = append(rows, f.Subjects[:idx]...)
	f.Subjects = append(rows, f.Subjects[idx+1:]...)
}

// Input builds the replace-on-submit payload, keeping row order.
func (f SubjectAssignmentForm) Input() models.SubjectAssignment {
	subjects := make([]models.AssignedSubject, 0, len(f.Subjects))
	for _, row := range f.Subjects {
		subjects = append(subjects, models.AssignedSubject{
			SubjectName: PlainText(row.SubjectName),
			TotalMarks:  row.TotalMarks,
			IsRequired:  row.IsRequired,
		})
	}
	return models.SubjectAssignment{ClassID: f.ClassID, Subjects: subjects}
}
