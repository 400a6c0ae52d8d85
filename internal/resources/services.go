package resources

import (
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/apiclient"
)

// Options tune upload limits shared by all services.
type Options struct {
	MaxUploadBytes int64
}

// Services groups every resource module over one backend.
type Services struct {
	Classes  *ClassService
	Exams    *ExamService
	Marks    *ExamMarksService
	Homework *HomeworkService
	Subjects *SubjectService
	Students *StudentService
	Teachers *TeacherService
	Uploads  *UploadService
	Billing  *BillingService
	Account  *AccountService
}

// New wires all services over backend.
func New(backend Backend, opts Options, logger zerolog.Logger) *Services {
	maxBytes := opts.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = apiclient.DefaultMaxUploadBytes
	}

	return &Services{
		Classes:  NewClassService(backend, maxBytes, logger),
		Exams:    NewExamService(backend, logger),
		Marks:    NewExamMarksService(backend, logger),
		Homework: NewHomeworkService(backend, maxBytes, logger),
		Subjects: NewSubjectService(backend, logger),
		Students: NewStudentService(backend, maxBytes, logger),
		Teachers: NewTeacherService(backend),
		Uploads:  NewUploadService(backend, maxBytes, logger),
		Billing:  NewBillingService(backend, logger),
		Account:  NewAccountService(backend, logger),
	}
}
