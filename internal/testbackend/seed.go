package testbackend

import (
	"fmt"

	"github.com/noah-isme/gema-admin/internal/models"
)

// DefaultPassword is the account password before any change.
const DefaultPassword = "password123"

// Seed inserts records into a collection and returns their ids.
func (s *Server) Seed(resource string, values ...interface{}) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[resource]
	if !ok {
		panic(fmt.Sprintf("testbackend: unknown resource %q", resource))
	}
	ids := make([]string, 0, len(values))
	for _, value := range values {
		rec, err := toRecord(value)
		if err != nil {
			panic(fmt.Sprintf("testbackend: seed %s: %v", resource, err))
		}
		if rec.id() == "" {
			delete(rec, "id")
		}
		ids = append(ids, t.insert(rec).id())
	}
	return ids
}

// Count returns how many records a collection holds.
func (s *Server) Count(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[resource].records)
}

// Field returns one field of a stored record as a string.
func (s *Server) Field(resource, id, field string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rec := s.tables[resource].find(id)
	if rec == nil {
		return "", false
	}
	return rec.str(field), true
}

// SeedTeachers sets the teacher reference list.
func (s *Server) SeedTeachers(options ...models.DropdownOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teachers = append([]models.DropdownOption(nil), options...)
}

// SeedSubjects sets the subjects of a class.
func (s *Server) SeedSubjects(classID string, subjects ...models.AssignedSubject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[classID] = append([]models.AssignedSubject(nil), subjects...)
}

// SeedMarks stores a marks sheet.
func (s *Server) SeedMarks(sheet models.ExamMarksRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[marksKey(sheet.ExamID, sheet.ClassID)] = sheet
}

// Marks returns the stored marks sheet.
func (s *Server) Marks(examID, classID string) (models.ExamMarksRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sheet, ok := s.marks[marksKey(examID, classID)]
	return sheet, ok
}

// SeedInvoices sets the invoice history.
func (s *Server) SeedInvoices(invoices ...models.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = append([]models.Invoice(nil), invoices...)
}

// SeedLogin sets the credentials of a student.
func (s *Server) SeedLogin(studentID string, login models.StudentLogin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins[studentID] = login
}
