package models

// MarksSubject is a subject column on a marks sheet.
type MarksSubject struct {
	ID         string  `json:"id"`
	Name       string  `json:"subjectName"`
	TotalMarks float64 `json:"totalMarks"`
	IsRequired bool    `json:"isRequired,omitempty"`
}

// StudentRef identifies a student on a roster.
type StudentRef struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	RegistrationNo string `json:"registrationNo,omitempty"`
	RollNo         string `json:"rollNo,omitempty"`
}

// SubjectMark is one cell of the marks sheet.
type SubjectMark struct {
	SubjectID     string   `json:"subjectId"`
	ObtainedMarks *float64 `json:"obtainedMarks"`
}

// MarksEntry is one roster row.
type MarksEntry struct {
	Student      StudentRef    `json:"student"`
	SubjectMarks []SubjectMark `json:"subjectMarks"`
	Total        float64       `json:"total"`
	Percentage   float64       `json:"percentage"`
}

// ExamMarksRecord is the roster of an exam for one class.
type ExamMarksRecord struct {
	ExamID   string         `json:"examId"`
	ClassID  string         `json:"classId"`
	Subjects []MarksSubject `json:"subjects"`
	Entries  []MarksEntry   `json:"entries"`
}

// SaveMarksRequest is the bulk payload saving a whole roster.
type SaveMarksRequest struct {
	Entries []MarksEntry `json:"entries"`
}
