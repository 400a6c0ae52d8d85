package dashboard_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-admin/internal/dashboard"
	"github.com/noah-isme/gema-admin/internal/forms"
	"github.com/noah-isme/gema-admin/internal/listing"
	"github.com/noah-isme/gema-admin/internal/models"
	"github.com/noah-isme/gema-admin/internal/refresh"
	"github.com/noah-isme/gema-admin/internal/resources"
	"github.com/noah-isme/gema-admin/internal/testbackend"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) Loading(message string) { r.add("loading:" + message) }
func (r *recorder) Success(message string) { r.add("success:" + message) }
func (r *recorder) Error(message string)   { r.add("error:" + message) }

func setup(t *testing.T) (*resources.Services, *testbackend.Server) {
	t.Helper()
	srv := testbackend.New(t)
	client := srv.Client(t, nil)
	return resources.New(client, resources.Options{}, zerolog.Nop()), srv
}

func homeworkPage(svc *resources.Services, notifier dashboard.Notifier, broadcaster *refresh.Broadcaster) *dashboard.Page[models.HomeworkRecord] {
	return dashboard.NewPage(dashboard.PageConfig[models.HomeworkRecord]{
		Resource:    "homework",
		List:        svc.Homework.List,
		Stats:       svc.Homework.Stats,
		Broadcaster: broadcaster,
		Notifier:    notifier,
		Logger:      zerolog.Nop(),
	})
}

func TestDeleteRefreshesListAndStatsOnce(t *testing.T) {
	svc, srv := setup(t)
	ids := srv.Seed("homework",
		models.HomeworkInput{Title: "Essay", Status: "pending"},
		models.HomeworkInput{Title: "Lab", Status: "completed"},
	)
	page := homeworkPage(svc, nil, nil)
	defer page.Close()
	ctx := context.Background()

	require.NoError(t, page.Mount(ctx))
	require.Len(t, page.List().Snapshot().Items, 2)

	srv.ResetCalls()
	require.NoError(t, page.Delete(ctx, ids[0], svc.Homework.Delete))

	require.Equal(t, 1, srv.Calls("DELETE", "/homework/"+ids[0]))
	require.Equal(t, 1, srv.Calls("GET", "/homework"))
	require.Equal(t, 1, srv.Calls("GET", "/homework/stats"))
	require.Equal(t, 3, srv.TotalCalls())

	require.Len(t, page.List().Snapshot().Items, 1)
	stats, err := page.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats["total"])
}

func TestStatsFailureDoesNotBlockList(t *testing.T) {
	svc, srv := setup(t)
	srv.Seed("homework", models.HomeworkInput{Title: "Essay"})
	srv.Fail("GET", "/homework/stats", testbackend.Failure{Status: 500, Message: "stats offline"})
	notices := &recorder{}
	page := homeworkPage(svc, notices, nil)
	defer page.Close()

	require.NoError(t, page.Mount(context.Background()))
	require.Len(t, page.List().Snapshot().Items, 1)
	_, err := page.Stats()
	require.EqualError(t, err, "stats offline")
	require.Contains(t, notices.list(), "error:stats offline")
	require.NoError(t, page.Fatal())
}

func TestFailedInitialLoadIsFatal(t *testing.T) {
	svc, srv := setup(t)
	srv.Fail("GET", "/homework", testbackend.Failure{Status: 500, Message: "database down"})
	page := homeworkPage(svc, nil, nil)
	defer page.Close()

	err := page.Mount(context.Background())
	require.EqualError(t, err, "database down")
	require.EqualError(t, page.Fatal(), "database down")
	require.Empty(t, page.List().Snapshot().Items)
}

func TestRequiredReferenceDataIsFatalOptionalIsNot(t *testing.T) {
	svc, srv := setup(t)
	srv.Fail("GET", "/subjects/dropdown", testbackend.Failure{Status: 503, Message: "subjects unavailable"})
	notices := &recorder{}

	var teachers []models.DropdownOption
	page := dashboard.NewPage(dashboard.PageConfig[models.ClassRecord]{
		Resource: "classes",
		List:     svc.Classes.List,
		Stats:    svc.Classes.Stats,
		Required: []refresh.Loader{{Name: "teachers", Load: func(ctx context.Context) error {
			var err error
			teachers, err = svc.Teachers.Dropdown(ctx)
			return err
		}}},
		Optional: []refresh.Loader{{Name: "subjects", Load: func(ctx context.Context) error {
			_, err := svc.Subjects.Dropdown(ctx)
			return err
		}}},
		Notifier: notices,
		Logger:   zerolog.Nop(),
	})
	defer page.Close()

	require.NoError(t, page.Mount(context.Background()))
	require.NotNil(t, teachers)
	require.Contains(t, page.OptionalErrors(), "subjects")
	require.Contains(t, notices.list(), "error:Failed to load subjects: subjects unavailable")

	srv.Fail("GET", "/teachers/dropdown", testbackend.Failure{Status: 500, Message: "teachers unavailable"})
	require.ErrorContains(t, page.Mount(context.Background()), "teachers unavailable")
}

func TestInvalidClassFormNeverCallsCreate(t *testing.T) {
	svc, srv := setup(t)
	form := forms.NewState(nil, forms.ClassForm{})
	require.NoError(t, form.Set("section", "A"))
	require.NoError(t, form.Set("subject", "Math"))

	submitter := dashboard.NewSubmitter(dashboard.SubmitConfig[forms.ClassForm, models.ClassRecord]{
		Form: form,
		Save: func(ctx context.Context, values forms.ClassForm) (models.ClassRecord, error) {
			return svc.Classes.Create(ctx, values.Input())
		},
	})

	_, err := submitter.Submit(context.Background())
	require.ErrorIs(t, err, dashboard.ErrValidationFailed)
	require.Equal(t, "Class Name is required", form.Error("className"))
	require.Equal(t, 0, srv.Calls("POST", "/classes"))
}

func TestSubmitOrdering(t *testing.T) {
	svc, srv := setup(t)
	notices := &recorder{}
	page := homeworkPage(svc, notices, nil)
	defer page.Close()
	ctx := context.Background()
	require.NoError(t, page.Mount(ctx))

	form := forms.NewState(nil, forms.HomeworkForm{})
	form.Update(func(f *forms.HomeworkForm) {
		*f = forms.HomeworkForm{Title: "Essay", Date: "2025-03-01", DueDate: "2025-03-08", Class: "Grade 7", Subject: "English"}
	})

	var doneWith models.HomeworkRecord
	submitter := dashboard.NewSubmitter(dashboard.SubmitConfig[forms.HomeworkForm, models.HomeworkRecord]{
		Form: form,
		Save: func(ctx context.Context, values forms.HomeworkForm) (models.HomeworkRecord, error) {
			notices.add("save")
			return svc.Homework.Create(ctx, values.Input())
		},
		RecordID: func(record models.HomeworkRecord) string { return record.ID },
		Refresh: func(ctx context.Context, action string, ids ...string) refresh.Result {
			notices.add("refresh:" + action)
			require.Equal(t, forms.HomeworkForm{}, form.Values())
			return page.AfterMutation(ctx, action, ids...)
		},
		Done: func(record models.HomeworkRecord) {
			notices.add("done")
			doneWith = record
		},
		LoadingMessage: "Creating homework...",
		SuccessMessage: "Homework created",
		Notifier:       notices,
	})

	upload := func(name string, data []byte) dashboard.PendingUpload {
		return dashboard.PendingUpload{Name: name, Upload: func(ctx context.Context, id string) error {
			notices.add("upload:" + name)
			_, err := svc.Homework.UploadAttachment(ctx, id, resources.FileInput{Name: name, Reader: bytes.NewReader(data)})
			return err
		}}
	}

	srv.ResetCalls()
	outcome, err := submitter.Submit(ctx,
		upload("first.pdf", []byte("%PDF-1.4\n")),
		upload("broken.exe", []byte("\x7fELF\x02\x01\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00")),
		upload("last.pdf", []byte("%PDF-1.4\n")),
	)
	require.NoError(t, err)
	require.NotEmpty(t, outcome.Record.ID)
	require.Equal(t, outcome.Record.ID, doneWith.ID)
	require.Len(t, outcome.UploadErrors, 1)
	require.Contains(t, outcome.UploadErrors, "broken.exe")
	require.NoError(t, outcome.Refresh.Err())

	require.Equal(t, []string{
		"loading:Creating homework...",
		"save",
		"upload:first.pdf",
		"upload:broken.exe",
		"error:Failed to upload broken.exe: broken.exe has an unsupported file type",
		"upload:last.pdf",
		"refresh:created",
		"success:Homework created",
		"done",
	}, notices.list())

	require.Equal(t, 2, srv.Calls("POST", "/homework/"+outcome.Record.ID+"/attachments"))
	require.Equal(t, 1, srv.Calls("GET", "/homework"))
	require.Equal(t, 1, srv.Calls("GET", "/homework/stats"))
	require.Len(t, page.List().Snapshot().Items, 1)
}

func TestSubmitRejectsReentry(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	form := forms.NewState(nil, forms.PasswordForm{CurrentPassword: "old-pass", NewPassword: "new-password", ConfirmPassword: "new-password"})
	submitter := dashboard.NewSubmitter(dashboard.SubmitConfig[forms.PasswordForm, struct{}]{
		Form: form,
		Save: func(ctx context.Context, _ forms.PasswordForm) (struct{}, error) {
			close(entered)
			<-release
			return struct{}{}, nil
		},
	})

	errCh := make(chan error, 1)
	go func() {
		_, err := submitter.Submit(context.Background())
		errCh <- err
	}()
	<-entered
	require.True(t, submitter.Submitting())
	_, err := submitter.Submit(context.Background())
	require.ErrorIs(t, err, dashboard.ErrSubmitInProgress)

	close(release)
	require.NoError(t, <-errCh)
	require.False(t, submitter.Submitting())
}

func TestDuplicateStudentFocusesRegistrationNo(t *testing.T) {
	svc, srv := setup(t)
	srv.Seed("students", models.StudentInput{RegistrationNo: "REG-001", FirstName: "Ana"})
	notices := &recorder{}
	refreshed := false

	form := forms.NewState(nil, forms.StudentForm{})
	form.Update(func(f *forms.StudentForm) {
		*f = forms.StudentForm{
			RegistrationNo: "reg-001",
			FirstName:      "Bo",
			Gender:         "male",
			DateOfBirth:    "2011-01-09",
			AdmissionDate:  "2024-07-15",
			Class:          "Grade 8",
			Section:        "B",
			FatherName:     "Cahyo",
			FatherPhone:    "0812 3456 789",
		}
	})
	submitter := dashboard.NewSubmitter(dashboard.SubmitConfig[forms.StudentForm, models.StudentRecord]{
		Form: form,
		Save: func(ctx context.Context, values forms.StudentForm) (models.StudentRecord, error) {
			return svc.Students.Create(ctx, values.Input())
		},
		Refresh: func(context.Context, string, ...string) refresh.Result {
			refreshed = true
			return refresh.Result{}
		},
		Notifier: notices,
	})

	_, err := submitter.Submit(context.Background())
	require.Error(t, err)
	require.Equal(t, "Student with this registration number already exists", form.Error("registrationNo"))
	require.Equal(t, "registrationNo", form.Focus())
	require.False(t, refreshed)
	require.Equal(t, "reg-001", form.Values().RegistrationNo)
	require.Equal(t, []string{"loading:Saving...", "error:Student with this registration number already exists"}, notices.list())
}

func TestBulkDeleteThroughPage(t *testing.T) {
	svc, srv := setup(t)
	ids := srv.Seed("students",
		models.StudentInput{RegistrationNo: "R1"},
		models.StudentInput{RegistrationNo: "R2"},
		models.StudentInput{RegistrationNo: "R3"},
	)
	notices := &recorder{}
	page := dashboard.NewPage(dashboard.PageConfig[models.StudentRecord]{
		Resource: "students",
		List:     svc.Students.List,
		Stats:    svc.Students.Stats,
		Notifier: notices,
		Logger:   zerolog.Nop(),
	})
	defer page.Close()
	ctx := context.Background()
	require.NoError(t, page.Mount(ctx))

	result, err := page.BulkDelete(ctx, ids[:2], svc.Students.BulkDelete)
	require.NoError(t, err)
	require.Equal(t, 2, result.DeletedCount)
	require.Len(t, page.List().Snapshot().Items, 1)
	require.Contains(t, notices.list(), "success:2 records deleted")

	srv.Fail("POST", "/students/bulk-delete", testbackend.Failure{Status: 500, Message: "Request failed", Times: 1})
	srv.ResetCalls()
	_, err = page.BulkDelete(ctx, ids[2:], svc.Students.BulkDelete)
	require.Error(t, err)
	require.Equal(t, 0, srv.Calls("GET", "/students"))
}

func TestWatchRefreshesOnRemoteMutation(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, srv := setup(t)
	id := srv.Seed("homework", models.HomeworkInput{Title: "Essay"})[0]

	connect := func() *refresh.Broadcaster {
		client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		b := refresh.NewBroadcaster(client, "test:mutations", nil, "", zerolog.Nop())
		require.NoError(t, b.Start(ctx))
		return b
	}

	local := homeworkPage(svc, nil, connect())
	defer local.Close()
	remote := homeworkPage(svc, nil, connect())
	defer remote.Close()
	require.NoError(t, local.Mount(ctx))
	require.NoError(t, remote.Mount(ctx))

	refreshed := make(chan struct{}, 4)
	remote.List().Subscribe(func(snap listing.Snapshot[models.HomeworkRecord]) {
		if len(snap.Items) == 0 {
			refreshed <- struct{}{}
		}
	})
	remote.Watch(ctx)

	require.NoError(t, local.Delete(ctx, id, svc.Homework.Delete))

	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("remote page did not refresh")
	}
}
