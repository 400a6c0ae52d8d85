package models

// AssignedSubject is one entry of a class subject list.
type AssignedSubject struct {
	ID          string  `json:"id,omitempty"`
	SubjectName string  `json:"subjectName"`
	TotalMarks  float64 `json:"totalMarks"`
	IsRequired  bool    `json:"isRequired"`
}

// SubjectAssignment is the ordered subject list of a class. It is always
// submitted whole and replaces what the backend holds.
type SubjectAssignment struct {
	ClassID  string            `json:"classId"`
	Subjects []AssignedSubject `json:"subjects"`
}
