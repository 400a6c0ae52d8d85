// Package marks computes the exam marks sheet shown while entering results.
// Totals and percentages are derived on every edit and never persisted.
package marks

import (
	"fmt"
	"math"
	"sync"

	"github.com/noah-isme/gema-admin/internal/models"
)

// CellError describes an out-of-bounds or unknown cell.
type CellError struct {
	StudentID string
	SubjectID string
	Message   string
}

func (e *CellError) Error() string {
	return e.Message
}

// Sheet is the editable roster of one exam and class.
type Sheet struct {
	mu       sync.RWMutex
	examID   string
	classID  string
	subjects []models.MarksSubject
	index    map[string]models.MarksSubject
	rows     []row
}

type row struct {
	student models.StudentRef
	marks   map[string]*float64
}

// NewSheet builds a sheet from a roster fetched from the backend.
func NewSheet(record models.ExamMarksRecord) *Sheet {
	sheet := &Sheet{
		examID:   record.ExamID,
		classID:  record.ClassID,
		subjects: append([]models.MarksSubject(nil), record.Subjects...),
		index:    make(map[string]models.MarksSubject, len(record.Subjects)),
		rows:     make([]row, 0, len(record.Entries)),
	}
	for _, subject := range record.Subjects {
		sheet.index[subject.ID] = subject
	}
	for _, entry := range record.Entries {
		r := row{student: entry.Student, marks: map[string]*float64{}}
		for _, mark := range entry.SubjectMarks {
			if _, known := sheet.index[mark.SubjectID]; !known || mark.ObtainedMarks == nil {
				continue
			}
			value := *mark.ObtainedMarks
			r.marks[mark.SubjectID] = &value
		}
		sheet.rows = append(sheet.rows, r)
	}
	return sheet
}

// Subjects returns the subject columns in order.
func (s *Sheet) Subjects() []models.MarksSubject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MarksSubject(nil), s.subjects...)
}

// MaxTotal is the sum of total marks of every subject.
func (s *Sheet) MaxTotal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxTotalLocked()
}

func (s *Sheet) maxTotalLocked() float64 {
	var total float64
	for _, subject := range s.subjects {
		total += subject.TotalMarks
	}
	return total
}

// SetMark records the obtained marks of one cell. The value must lie in
// [0, totalMarks] of the subject.
func (s *Sheet) SetMark(studentID, subjectID string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := s.index[subjectID]
	if !ok {
		return &CellError{StudentID: studentID, SubjectID: subjectID, Message: "Unknown subject"}
	}
	if math.IsNaN(value) || value < 0 || value > subject.TotalMarks {
		return &CellError{
			StudentID: studentID,
			SubjectID: subjectID,
			Message:   fmt.Sprintf("%s marks must be between 0 and %s", subject.Name, formatNumber(subject.TotalMarks)),
		}
	}
	r, ok := s.rowLocked(studentID)
	if !ok {
		return &CellError{StudentID: studentID, SubjectID: subjectID, Message: "Unknown student"}
	}
	r.marks[subjectID] = &value
	return nil
}

// ClearMark empties one cell.
func (s *Sheet) ClearMark(studentID, subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rowLocked(studentID); ok {
		delete(r.marks, subjectID)
	}
}

// Total returns the obtained total and percentage of one student. The
// percentage is rounded to two decimals.
func (s *Sheet) Total(studentID string) (float64, float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rowLocked(studentID)
	if !ok {
		return 0, 0, false
	}
	total, percentage := s.computeLocked(r)
	return total, percentage, true
}

// Missing lists required subjects a student has no marks for.
func (s *Sheet) Missing(studentID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rowLocked(studentID)
	if !ok {
		return nil
	}
	var missing []string
	for _, subject := range s.subjects {
		if _, entered := r.marks[subject.ID]; subject.IsRequired && !entered {
			missing = append(missing, subject.ID)
		}
	}
	return missing
}

// ClassAverage is the mean percentage over students with at least one mark.
func (s *Sheet) ClassAverage() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum float64
	var counted int
	for idx := range s.rows {
		if len(s.rows[idx].marks) == 0 {
			continue
		}
		_, percentage := s.computeLocked(&s.rows[idx])
		sum += percentage
		counted++
	}
	if counted == 0 {
		return 0
	}
	return round2(sum / float64(counted))
}

// Entries renders the roster with totals filled in, ready for the bulk
// save call.
func (s *Sheet) Entries() []models.MarksEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]models.MarksEntry, 0, len(s.rows))
	for idx := range s.rows {
		r := &s.rows[idx]
		marks := make([]models.SubjectMark, 0, len(s.subjects))
		for _, subject := range s.subjects {
			mark := models.SubjectMark{SubjectID: subject.ID}
			if value, ok := r.marks[subject.ID]; ok {
				copied := *value
				mark.ObtainedMarks = &copied
			}
			marks = append(marks, mark)
		}
		total, percentage := s.computeLocked(r)
		entries = append(entries, models.MarksEntry{
			Student:      r.student,
			SubjectMarks: marks,
			Total:        total,
			Percentage:   percentage,
		})
	}
	return entries
}

// Record returns the whole sheet in the backend shape.
func (s *Sheet) Record() models.ExamMarksRecord {
	entries := s.Entries()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.ExamMarksRecord{
		ExamID:   s.examID,
		ClassID:  s.classID,
		Subjects: append([]models.MarksSubject(nil), s.subjects...),
		Entries:  entries,
	}
}

func (s *Sheet) rowLocked(studentID string) (*row, bool) {
	for idx := range s.rows {
		if s.rows[idx].student.ID == studentID {
			return &s.rows[idx], true
		}
	}
	return nil, false
}

func (s *Sheet) computeLocked(r *row) (float64, float64) {
	var total float64
	for _, value := range r.marks {
		total += *value
	}
	maxTotal := s.maxTotalLocked()
	if maxTotal <= 0 {
		return total, 0
	}
	return total, round2(total / maxTotal * 100)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func formatNumber(value float64) string {
	if value == math.Trunc(value) {
		return fmt.Sprintf("%.0f", value)
	}
	return fmt.Sprintf("%.2f", value)
}

// FormatPercentage renders a percentage with two decimals, e.g. "80.00".
func FormatPercentage(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
