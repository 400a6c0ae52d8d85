// Package testbackend is an in-memory fiber implementation of the school
// backend used by tests. It speaks the same envelope and routes as the real
// API, counts calls per route and lets tests inject failures.
package testbackend

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/models"
)

// Failure is an injected response for one route.
type Failure struct {
	Status  int
	Message string
	Errors  map[string]string
	// Times limits how often the failure fires. Zero means until cleared.
	Times int
	// Delay holds the response back before answering.
	Delay time.Duration
}

// ReceivedFile describes one file part the backend accepted.
type ReceivedFile struct {
	Route       string
	Field       string
	FileName    string
	ContentType string
	Size        int64
}

// Option customises a Server.
type Option func(*Server)

// WithToken makes every route require the given bearer token.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithStructuredConflicts reports unique violations with an errors object
// instead of prose only.
func WithStructuredConflicts() Option {
	return func(s *Server) { s.structuredConflicts = true }
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server
	app *fiber.App

	mu                  sync.Mutex
	token               string
	structuredConflicts bool
	tables              map[string]*table
	calls               map[string]int
	failures            map[string]*Failure
	teachers            []models.DropdownOption
	subjects            map[string][]models.AssignedSubject
	marks               map[string]models.ExamMarksRecord
	logins              map[string]models.StudentLogin
	uploads             []models.Upload
	received            []ReceivedFile
	billing             models.Billing
	invoices            []models.Invoice
	account             models.AccountSettings
	passwordChanges     []models.PasswordChange
	correlationIDs      []string
}

// New starts a fake backend that is closed when t finishes.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := &Server{
		tables: map[string]*table{
			"classes":  newTable("Class", "className"),
			"exams":    newTable("Exam", ""),
			"homework": newTable("Homework", ""),
			"students": newTable("Student", "registrationNo"),
		},
		calls:    map[string]int{},
		failures: map[string]*Failure{},
		subjects: map[string][]models.AssignedSubject{},
		marks:    map[string]models.ExamMarksRecord{},
		logins:   map[string]models.StudentLogin{},
		billing:  models.Billing{Plan: "basic", Status: "active", Currency: "USD", BillingCycle: "monthly"},
		account:  models.AccountSettings{InstituteName: "Gema School", Email: "admin@gema.test"},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{DisableStartupMessage: true, Immutable: true})
	s.app.Use(s.correlate, s.intercept)
	s.routes(s.app.Group("/api"))

	s.Server = httptest.NewServer(adaptor.FiberApp(s.app))
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root clients should target.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// StaticToken is a fixed bearer token source.
type StaticToken string

// Token returns the token.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// Client returns an API client pointed at the server.
func (s *Server) Client(t testing.TB, tokens apiclient.TokenSource) *apiclient.Client {
	t.Helper()
	client, err := apiclient.New(apiclient.Config{BaseURL: s.BaseURL(), Tokens: tokens}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

// Calls returns how often a route was hit, e.g. Calls("GET", "/homework").
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[callKey(method, path)]
}

// TotalCalls returns the number of requests served.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, count := range s.calls {
		total += count
	}
	return total
}

// ResetCalls zeroes the call counters.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = map[string]int{}
}

// Fail injects a failure for a route.
func (s *Server) Fail(method, path string, failure Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := failure
	s.failures[callKey(method, path)] = &copied
}

// ClearFailures removes every injected failure.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]*Failure{}
}

// Received returns the file parts accepted so far.
func (s *Server) Received() []ReceivedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReceivedFile(nil), s.received...)
}

// PasswordChanges returns the accepted password change payloads.
func (s *Server) PasswordChanges() []models.PasswordChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PasswordChange(nil), s.passwordChanges...)
}

// CorrelationIDs returns the correlation id of every request, in order.
// Requests that arrived without one are recorded with a generated id.
func (s *Server) CorrelationIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.correlationIDs...)
}

func (s *Server) correlate(c *fiber.Ctx) error {
	incoming := strings.TrimSpace(c.Get(apiclient.CorrelationHeader))
	if incoming == "" {
		incoming = uuid.NewString()
	}
	c.Set(apiclient.CorrelationHeader, incoming)

	s.mu.Lock()
	s.correlationIDs = append(s.correlationIDs, incoming)
	s.mu.Unlock()
	return c.Next()
}

func callKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

func (s *Server) intercept(c *fiber.Ctx) error {
	route := strings.TrimPrefix(c.Path(), "/api")
	key := callKey(c.Method(), route)

	s.mu.Lock()
	s.calls[key]++
	failure, injected := s.failures[key]
	var fire Failure
	if injected {
		fire = *failure
		if failure.Times > 0 {
			failure.Times--
			if failure.Times == 0 {
				delete(s.failures, key)
			}
		}
	}
	token := s.token
	s.mu.Unlock()

	if injected {
		if fire.Delay > 0 {
			time.Sleep(fire.Delay)
		}
		if fire.Status != 0 || fire.Message != "" || len(fire.Errors) > 0 {
			return sendError(c, fire.Status, fire.Message, fire.Errors)
		}
	}

	if token != "" && c.Get(fiber.HeaderAuthorization) != "Bearer "+token {
		return sendError(c, fiber.StatusUnauthorized, "Unauthorized", nil)
	}
	return c.Next()
}
