package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-admin/internal/cli"
	"github.com/noah-isme/gema-admin/internal/config"
	"github.com/noah-isme/gema-admin/internal/models"
	"github.com/noah-isme/gema-admin/internal/refresh"
	"github.com/noah-isme/gema-admin/internal/session"
	"github.com/noah-isme/gema-admin/internal/testbackend"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	srv   *testbackend.Server
	cfg   config.Config
	store session.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := testbackend.New(t, testbackend.WithToken("admin-token"))
	return &harness{
		srv: srv,
		cfg: config.Config{
			AppName:        "gema-admin-test",
			BaseURL:        srv.BaseURL(),
			SessionBackend: config.SessionBackendMemory,
			EventsChannel:  "test:mutations",
			WatchSchedule:  "@every 1h",
			MaxUploadMB:    10,
		},
		store: session.NewMemoryStore(),
	}
}

func (h *harness) runContext(ctx context.Context, out io.Writer, args ...string) error {
	logger := zerolog.Nop()
	cfg := h.cfg
	return cli.Execute(ctx, cli.Options{Config: &cfg, Store: h.store, Logger: &logger, Out: out}, args)
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &syncBuffer{}
	err := h.runContext(context.Background(), out, args...)
	return out.String(), err
}

type listOutput struct {
	Items      []map[string]interface{} `json:"items"`
	Pagination models.Pagination        `json:"pagination"`
	Stats      models.Stats             `json:"stats"`
}

func decodeList(t *testing.T, raw string) listOutput {
	t.Helper()
	start := strings.Index(raw, "{")
	require.GreaterOrEqual(t, start, 0, raw)
	var out listOutput
	require.NoError(t, json.NewDecoder(strings.NewReader(raw[start:])).Decode(&out))
	return out
}

func TestCommandsRequireLogin(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "list", "homework")
	require.ErrorIs(t, err, session.ErrSessionMissing)
	require.Equal(t, 0, h.srv.TotalCalls())
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "login", "--token", "admin-token", "--name", "Dewi", "--role", "admin")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in")

	out, err = h.run(t, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, `"name": "Dewi"`)
	require.Contains(t, out, `"role": "admin"`)

	_, err = h.run(t, "logout")
	require.NoError(t, err)
	_, err = h.run(t, "whoami")
	require.ErrorIs(t, err, session.ErrSessionMissing)
}

func TestListAppliesFiltersAndPagination(t *testing.T) {
	h := newHarness(t)
	h.srv.Seed("homework",
		models.HomeworkInput{Title: "Essay", Class: "Grade 7", Status: "pending"},
		models.HomeworkInput{Title: "Lab", Class: "Grade 7", Status: "completed"},
		models.HomeworkInput{Title: "Poem", Class: "Grade 8", Status: "pending"},
		models.HomeworkInput{Title: "Map", Class: "Grade 7", Status: "pending"},
	)
	_, err := h.run(t, "login", "--token", "admin-token")
	require.NoError(t, err)

	out, err := h.run(t, "list", "homework", "--filter", "class=Grade 7,status=pending", "--filter", "subject=all", "--limit", "1", "--page", "2")
	require.NoError(t, err)
	list := decodeList(t, out)
	require.Len(t, list.Items, 1)
	require.Equal(t, models.Pagination{Total: 2, Page: 2, Limit: 1, TotalPages: 2}, list.Pagination)

	_, err = h.run(t, "list", "homework", "--filter", "broken")
	require.ErrorContains(t, err, `invalid filter "broken"`)

	_, err = h.run(t, "list", "homework", "--filter", "teacher=Budi")
	require.ErrorContains(t, err, `unknown filter "teacher"`)

	out, err = h.run(t, "list", "homework", "--search", "ma")
	require.NoError(t, err)
	list = decodeList(t, out)
	require.Len(t, list.Items, 1)
	require.Equal(t, "Map", list.Items[0]["title"])

	_, err = h.run(t, "list", "teachers")
	require.ErrorContains(t, err, `unknown resource "teachers"`)
}

func TestStatsPrintsCounts(t *testing.T) {
	h := newHarness(t)
	h.srv.Seed("students",
		models.StudentInput{RegistrationNo: "R1", Status: "active"},
		models.StudentInput{RegistrationNo: "R2", Status: "inactive"},
	)
	_, err := h.run(t, "login", "--token", "admin-token")
	require.NoError(t, err)

	out, err := h.run(t, "stats", "students")
	require.NoError(t, err)
	var stats models.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Equal(t, models.Stats{"total": 2, "active": 1, "inactive": 1}, stats)
}

func TestDeleteRefreshesOnceAndUsesBulkForSeveralIDs(t *testing.T) {
	h := newHarness(t)
	ids := h.srv.Seed("classes",
		models.ClassInput{Name: "7A"},
		models.ClassInput{Name: "7B"},
		models.ClassInput{Name: "7C"},
	)
	_, err := h.run(t, "login", "--token", "admin-token")
	require.NoError(t, err)

	h.srv.ResetCalls()
	out, err := h.run(t, "delete", "classes", ids[0])
	require.NoError(t, err)
	require.Contains(t, out, "Deleted 1 record(s)")
	require.Equal(t, 1, h.srv.Calls("DELETE", "/classes/"+ids[0]))
	require.Equal(t, 1, h.srv.Calls("GET", "/classes"))
	require.Equal(t, 1, h.srv.Calls("GET", "/classes/stats"))

	h.srv.ResetCalls()
	out, err = h.run(t, "delete", "classes", ids[1], ids[2])
	require.NoError(t, err)
	require.Contains(t, out, "Deleted 2 record(s)")
	require.Equal(t, 1, h.srv.Calls("POST", "/classes/bulk-delete"))
	require.Equal(t, 0, h.srv.Calls("DELETE", "/classes/"+ids[1]))
	require.Equal(t, 1, h.srv.Calls("GET", "/classes"))
	require.Equal(t, 1, h.srv.Calls("GET", "/classes/stats"))
	require.Empty(t, decodeList(t, out).Items)
	require.Equal(t, 0, h.srv.Count("classes"))
}

func TestDeleteFailureSkipsRefresh(t *testing.T) {
	h := newHarness(t)
	id := h.srv.Seed("exams", models.ExamInput{ExamName: "Midterm"})[0]
	_, err := h.run(t, "login", "--token", "admin-token")
	require.NoError(t, err)
	h.srv.Fail("DELETE", "/exams/"+id, testbackend.Failure{Status: 500, Message: "Exam is locked"})

	h.srv.ResetCalls()
	_, err = h.run(t, "delete", "exams", id)
	require.EqualError(t, err, "Exam is locked")
	require.Equal(t, 0, h.srv.Calls("GET", "/exams"))
}

func TestFailedCommandClosesConnections(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	h := newHarness(t)
	h.cfg.RedisURL = "redis://" + mini.Addr()
	id := h.srv.Seed("homework", models.HomeworkInput{Title: "Essay"})[0]
	_, err = h.run(t, "login", "--token", "admin-token")
	require.NoError(t, err)
	h.srv.Fail("DELETE", "/homework/"+id, testbackend.Failure{Status: 500, Message: "Homework is locked"})

	_, err = h.run(t, "delete", "homework", id)
	require.EqualError(t, err, "Homework is locked")
	require.Eventually(t, func() bool {
		return mini.CurrentConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchRefreshesOnRemoteMutation(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	h := newHarness(t)
	h.cfg.RedisURL = "redis://" + mini.Addr()
	h.srv.Seed("homework", models.HomeworkInput{Title: "Essay"})
	_, err = h.run(t, "login", "--token", "admin-token")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- h.runContext(ctx, out, "watch", "homework") }()

	require.Eventually(t, func() bool {
		return h.srv.Calls("GET", "/homework") == 1 && mini.PubSubNumSub("test:mutations")["test:mutations"] == 1
	}, 2*time.Second, 10*time.Millisecond)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()
	remote := refresh.NewBroadcaster(client, "test:mutations", nil, "", zerolog.Nop())
	require.NoError(t, remote.Publish(ctx, "homework", refresh.ActionCreated, "new-id"))
	require.NoError(t, remote.Publish(ctx, "students", refresh.ActionCreated, "other"))

	require.Eventually(t, func() bool {
		return h.srv.Calls("GET", "/homework") == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	require.Equal(t, 2, h.srv.Calls("GET", "/homework"))
	require.Contains(t, out.String(), "Essay")
}
