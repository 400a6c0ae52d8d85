package resources_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/models"
	"github.com/noah-isme/gema-admin/internal/resources"
	"github.com/noah-isme/gema-admin/internal/testbackend"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

var pdfHeader = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")

func newServices(t *testing.T, opts ...testbackend.Option) (*resources.Services, *testbackend.Server) {
	t.Helper()
	srv := testbackend.New(t, append([]testbackend.Option{testbackend.WithToken("admin-token")}, opts...)...)
	client := srv.Client(t, testbackend.StaticToken("admin-token"))
	return resources.New(client, resources.Options{}, zerolog.Nop()), srv
}

func TestClassServiceCRUD(t *testing.T) {
	svc, srv := newServices(t)
	ctx := context.Background()

	created, err := svc.Classes.Create(ctx, models.ClassInput{Name: "Grade 7", Section: "A", Subject: "Math", MaxStudents: 30, Status: "active"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Grade 7", created.Name)

	updated, err := svc.Classes.Update(ctx, created.ID, models.ClassInput{Name: "Grade 7", Section: "B", Subject: "Math", MaxStudents: 25})
	require.NoError(t, err)
	require.Equal(t, "B", updated.Section)

	fetched, err := svc.Classes.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 25, fetched.MaxStudents)

	require.NoError(t, svc.Classes.Delete(ctx, created.ID))
	require.Equal(t, 0, srv.Count("classes"))

	_, err = svc.Classes.Get(ctx, created.ID)
	require.Error(t, err)
	require.Equal(t, "Class not found", apiclient.Message(err))
}

func TestListFiltersAndPagination(t *testing.T) {
	svc, srv := newServices(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		section := "A"
		if i%2 == 1 {
			section = "B"
		}
		srv.Seed("classes", models.ClassInput{Name: "Class " + string(rune('a'+i)), Section: section})
	}

	page, err := svc.Classes.List(ctx, resources.ListParams{
		Filters: resources.ClassFilter{Section: "A", Status: "all"}.Map(),
		Page:    1,
		Limit:   4,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 4)
	require.Equal(t, models.Pagination{Total: 6, Page: 1, Limit: 4, TotalPages: 2}, page.Pagination)
	for _, item := range page.Items {
		require.Equal(t, "A", item.Section)
	}

	second, err := svc.Classes.List(ctx, resources.ListParams{Filters: map[string]string{"section": "A"}, Page: 2, Limit: 4})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.Equal(t, 2, second.Pagination.Page)
}

func TestBulkDeleteAndStats(t *testing.T) {
	svc, srv := newServices(t)
	ctx := context.Background()
	ids := srv.Seed("homework",
		models.HomeworkInput{Title: "Essay", Status: "pending"},
		models.HomeworkInput{Title: "Worksheet", Status: "pending"},
		models.HomeworkInput{Title: "Lab", Status: "completed"},
	)

	stats, err := svc.Homework.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats["total"])
	require.Equal(t, 2, stats["pending"])

	result, err := svc.Homework.BulkDelete(ctx, ids[:2])
	require.NoError(t, err)
	require.Equal(t, 2, result.DeletedCount)
	require.Equal(t, 1, srv.Count("homework"))

	_, err = svc.Homework.BulkDelete(ctx, []string{" ", ""})
	require.True(t, apiclient.IsKind(err, apiclient.KindValidation))
	require.Equal(t, 1, srv.Calls("POST", "/homework/bulk-delete"))
}

func TestStudentConflictProse(t *testing.T) {
	svc, srv := newServices(t)
	srv.Seed("students", models.StudentInput{RegistrationNo: "REG-1", FirstName: "Ana"})

	_, err := svc.Students.Create(context.Background(), models.StudentInput{RegistrationNo: "reg-1", FirstName: "Bo"})
	require.Error(t, err)
	apiErr, ok := apiclient.AsError(err)
	require.True(t, ok)
	require.Equal(t, apiclient.KindConflict, apiErr.Kind)
	require.Equal(t, 409, apiErr.Status)
	require.Equal(t, "Student with this registration number already exists", apiErr.Message)
	require.Empty(t, apiErr.Fields)
}

func TestStudentConflictStructured(t *testing.T) {
	svc, srv := newServices(t, testbackend.WithStructuredConflicts())
	srv.Seed("students", models.StudentInput{RegistrationNo: "REG-1"})

	_, err := svc.Students.Create(context.Background(), models.StudentInput{RegistrationNo: "REG-1"})
	apiErr, ok := apiclient.AsError(err)
	require.True(t, ok)
	require.Equal(t, apiclient.KindConflict, apiErr.Kind)
	require.Equal(t, "registrationNo", apiErr.Field())
}

func TestStudentUploadsAndLogin(t *testing.T) {
	svc, srv := newServices(t)
	ctx := context.Background()
	id := srv.Seed("students", models.StudentInput{RegistrationNo: "REG-9", FirstName: "Cy"})[0]

	record, err := svc.Students.UploadPhoto(ctx, id, resources.FileInput{Name: "face.png", Reader: bytes.NewReader(pngHeader)})
	require.NoError(t, err)
	require.Contains(t, record.PhotoURL, "face.png")

	record, err = svc.Students.UploadDocuments(ctx, id, []resources.FileInput{
		{Name: "birth.pdf", Reader: bytes.NewReader(pdfHeader)},
		{Name: "report.pdf", Reader: bytes.NewReader(pdfHeader)},
	})
	require.NoError(t, err)
	require.Len(t, record.Documents, 2)

	_, err = svc.Students.UploadPhoto(ctx, id, resources.FileInput{Name: "cv.pdf", Reader: bytes.NewReader(pdfHeader)})
	require.ErrorIs(t, err, apiclient.ErrUploadTypeNotAllowed)

	received := srv.Received()
	require.Len(t, received, 3)
	require.Equal(t, "photo", received[0].Field)
	require.Equal(t, "image/png", received[0].ContentType)
	require.Equal(t, "documents", received[1].Field)

	_, err = svc.Students.UpdateLogin(ctx, id, models.StudentLogin{Username: "cy.student", Password: "s3cret!"})
	require.NoError(t, err)
	login, err := svc.Students.Login(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "cy.student", login.Username)
	require.Empty(t, login.Password)

	_, err = svc.Students.UpdateLogin(ctx, id, models.StudentLogin{Username: "  "})
	require.True(t, apiclient.IsKind(err, apiclient.KindValidation))
}

func TestClassMaterialsAndHomeworkAttachment(t *testing.T) {
	svc, srv := newServices(t)
	ctx := context.Background()
	classID := srv.Seed("classes", models.ClassInput{Name: "Science"})[0]
	homeworkID := srv.Seed("homework", models.HomeworkInput{Title: "Read"})[0]

	class, err := svc.Classes.UploadMaterials(ctx, classID, []resources.FileInput{{Name: "syllabus.pdf", Reader: bytes.NewReader(pdfHeader)}})
	require.NoError(t, err)
	require.Len(t, class.Materials, 1)
	require.NoError(t, svc.Classes.DeleteMaterial(ctx, classID, class.Materials[0].ID))

	homework, err := svc.Homework.UploadAttachment(ctx, homeworkID, resources.FileInput{Name: "sheet.png", Reader: bytes.NewReader(pngHeader)})
	require.NoError(t, err)
	require.Len(t, homework.Attachments, 1)
	require.Equal(t, "file", srv.Received()[1].Field)
	require.NoError(t, svc.Homework.DeleteAttachment(ctx, homeworkID, homework.Attachments[0].ID))

	_, err = svc.Classes.UploadMaterials(ctx, classID, nil)
	require.True(t, apiclient.IsKind(err, apiclient.KindValidation))
}

func TestExamPublishAndMarks(t *testing.T) {
	svc, srv := newServices(t)
	ctx := context.Background()
	examID := srv.Seed("exams", models.ExamInput{ExaminationName: "Midterm", ExamName: "Mid 2024", ClassName: "Grade 7"})[0]
	srv.SeedMarks(models.ExamMarksRecord{
		ExamID:   examID,
		ClassID:  "class-7",
		Subjects: []models.MarksSubject{{ID: "math", Name: "Math", TotalMarks: 100}},
		Entries:  []models.MarksEntry{{Student: models.StudentRef{ID: "s1", Name: "Ana"}}},
	})

	exam, err := svc.Exams.Publish(ctx, examID, true)
	require.NoError(t, err)
	require.True(t, exam.IsPublished)

	sheet, err := svc.Marks.Roster(ctx, examID, "class-7")
	require.NoError(t, err)
	require.Len(t, sheet.Subjects, 1)
	require.Len(t, sheet.Entries, 1)

	score := 88.0
	sheet.Entries[0].SubjectMarks = []models.SubjectMark{{SubjectID: "math", ObtainedMarks: &score}}
	_, err = svc.Marks.Save(ctx, examID, "class-7", sheet.Entries)
	require.NoError(t, err)

	stored, ok := srv.Marks(examID, "class-7")
	require.True(t, ok)
	require.Equal(t, 88.0, *stored.Entries[0].SubjectMarks[0].ObtainedMarks)

	_, err = svc.Marks.Save(ctx, examID, "class-7", nil)
	require.True(t, apiclient.IsKind(err, apiclient.KindValidation))
}

func TestSubjectAssignment(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	_, err := svc.Subjects.Assign(ctx, models.SubjectAssignment{
		ClassID: "class-1",
		Subjects: []models.AssignedSubject{
			{SubjectName: "Math", TotalMarks: 100, IsRequired: true},
			{SubjectName: "Art", TotalMarks: 50},
		},
	})
	require.NoError(t, err)

	subjects, err := svc.Subjects.ForClass(ctx, "class-1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	require.Equal(t, "Math", subjects[0].SubjectName)

	options, err := svc.Subjects.Dropdown(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.DropdownOption{{ID: "Art", Name: "Art"}, {ID: "Math", Name: "Math"}}, options)

	_, err = svc.Subjects.Assign(ctx, models.SubjectAssignment{
		ClassID:  "class-1",
		Subjects: []models.AssignedSubject{{SubjectName: "Math", TotalMarks: 100}, {SubjectName: "math", TotalMarks: 100}},
	})
	require.True(t, apiclient.IsKind(err, apiclient.KindValidation))

	require.NoError(t, svc.Subjects.RemoveForClass(ctx, "class-1"))
	subjects, err = svc.Subjects.ForClass(ctx, "class-1")
	require.NoError(t, err)
	require.Empty(t, subjects)
}

func TestDropdownsAndAccount(t *testing.T) {
	svc, srv := newServices(t)
	ctx := context.Background()
	srv.SeedTeachers(models.DropdownOption{ID: "t1", Name: "Mrs. Rahma"})
	srv.Seed("classes", models.ClassInput{Name: "Grade 8", Section: "C"})

	teachers, err := svc.Teachers.Dropdown(ctx)
	require.NoError(t, err)
	require.Equal(t, "Mrs. Rahma", teachers[0].Name)

	classes, err := svc.Classes.Dropdown(ctx)
	require.NoError(t, err)
	require.Equal(t, "Grade 8", classes[0].Name)
	require.Equal(t, "C", classes[0].Section)

	settings, err := svc.Account.Get(ctx)
	require.NoError(t, err)
	settings.Phone = "+62 812 0000"
	saved, err := svc.Account.Update(ctx, settings)
	require.NoError(t, err)
	require.Equal(t, "+62 812 0000", saved.Phone)

	_, err = svc.Account.Update(ctx, models.AccountSettings{})
	apiErr, ok := apiclient.AsError(err)
	require.True(t, ok)
	require.Equal(t, apiclient.KindValidation, apiErr.Kind)
	require.Equal(t, "instituteName", apiErr.Field())

	err = svc.Account.ChangePassword(ctx, models.PasswordChange{CurrentPassword: testbackend.DefaultPassword, NewPassword: "longer-pass", ConfirmPassword: "longer-pass"})
	require.NoError(t, err)
	require.Len(t, srv.PasswordChanges(), 1)

	err = svc.Account.ChangePassword(ctx, models.PasswordChange{CurrentPassword: "x", NewPassword: "longer-pass", ConfirmPassword: "other-pass"})
	require.Equal(t, "Passwords do not match", apiclient.Message(err))
	require.Len(t, srv.PasswordChanges(), 1)
}

func TestBillingAndUploads(t *testing.T) {
	svc, srv := newServices(t)
	ctx := context.Background()
	srv.SeedInvoices(
		models.Invoice{ID: "i1", Number: "INV-1", Status: "paid"},
		models.Invoice{ID: "i2", Number: "INV-2", Status: "due"},
		models.Invoice{ID: "i3", Number: "INV-3", Status: "paid"},
	)

	invoices, err := svc.Billing.Invoices(ctx, resources.ListParams{Filters: map[string]string{"status": "paid"}, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, invoices.Items, 2)
	require.Equal(t, 2, invoices.Pagination.Total)

	billing, err := svc.Billing.Get(ctx)
	require.NoError(t, err)
	billing.Plan = "premium"
	billing, err = svc.Billing.Update(ctx, billing)
	require.NoError(t, err)
	require.Equal(t, "premium", billing.Plan)

	upload, err := svc.Uploads.Upload(ctx, resources.FileInput{Name: "School Logo.png", Reader: bytes.NewReader(pngHeader)})
	require.NoError(t, err)
	require.Equal(t, "school-logo.png", upload.FileName)

	uploads, err := svc.Uploads.List(ctx)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	require.NoError(t, svc.Uploads.Delete(ctx, upload.ID))
}

func TestWrongTokenSurfacesUnauthorized(t *testing.T) {
	srv := testbackend.New(t, testbackend.WithToken("admin-token"))
	client := srv.Client(t, testbackend.StaticToken("stale"))
	svc := resources.New(client, resources.Options{}, zerolog.Nop())

	_, err := svc.Classes.Stats(context.Background())
	apiErr, ok := apiclient.AsError(err)
	require.True(t, ok)
	require.Equal(t, apiclient.KindHTTP, apiErr.Kind)
	require.Equal(t, 401, apiErr.Status)
	require.Equal(t, "Unauthorized", apiErr.Message)
}

func TestRequestsCarryCorrelationIDs(t *testing.T) {
	svc, srv := newServices(t)

	_, err := svc.Classes.Stats(context.Background())
	require.NoError(t, err)
	_, err = svc.Classes.Stats(context.Background())
	require.NoError(t, err)
	ctx := apiclient.ContextWithCorrelation(context.Background(), "trace-1")
	_, err = svc.Classes.Dropdown(ctx)
	require.NoError(t, err)

	ids := srv.CorrelationIDs()
	require.Len(t, ids, 3)
	require.NotEmpty(t, ids[0])
	require.NotEqual(t, ids[0], ids[1])
	require.Equal(t, "trace-1", ids[2])
}
