package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/forms"
	"github.com/noah-isme/gema-admin/internal/refresh"
)

var (
	// ErrSubmitInProgress rejects a submit while the previous one is running.
	ErrSubmitInProgress = errors.New("submission already in progress")
	// ErrValidationFailed means the form did not pass client-side validation.
	ErrValidationFailed = errors.New("form has invalid fields")
)

// PendingUpload is a file queued for upload once the record is saved.
type PendingUpload struct {
	Name   string
	Upload func(ctx context.Context, recordID string) error
}

// SubmitConfig wires a form to its save call and follow-up steps.
type SubmitConfig[F any, R any] struct {
	Form *forms.State[F]
	Save func(ctx context.Context, values F) (R, error)
	// RecordID extracts the id uploads attach to.
	RecordID func(record R) string
	// Refresh runs after the form is reset, e.g. Page.AfterMutation.
	Refresh func(ctx context.Context, action string, ids ...string) refresh.Result
	// Done runs last, e.g. to close the modal.
	Done           func(record R)
	Action         string
	LoadingMessage string
	SuccessMessage string
	Notifier       Notifier
	Logger         zerolog.Logger
}

// Outcome reports the side results of a successful submit.
type Outcome[R any] struct {
	Record       R
	UploadErrors map[string]error
	Refresh      refresh.Result
}

// Submitter runs the ordered submit flow of a form: notice, save, uploads,
// reset, refresh, done.
type Submitter[F any, R any] struct {
	cfg        SubmitConfig[F, R]
	notifier   Notifier
	logger     zerolog.Logger
	submitting atomic.Bool
}

// NewSubmitter builds a submitter.
func NewSubmitter[F any, R any](cfg SubmitConfig[F, R]) *Submitter[F, R] {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if cfg.LoadingMessage == "" {
		cfg.LoadingMessage = "Saving..."
	}
	if cfg.SuccessMessage == "" {
		cfg.SuccessMessage = "Saved successfully"
	}
	if cfg.Action == "" {
		cfg.Action = refresh.ActionCreated
	}
	return &Submitter[F, R]{
		cfg:      cfg,
		notifier: notifier,
		logger:   cfg.Logger.With().Str("component", "form_submitter").Logger(),
	}
}

// Submitting reports whether a submit is running.
func (s *Submitter[F, R]) Submitting() bool {
	return s.submitting.Load()
}

// Submit validates and saves the form, then uploads pending files one by
// one. An upload failure is reported and the remaining files still go.
func (s *Submitter[F, R]) Submit(ctx context.Context, uploads ...PendingUpload) (Outcome[R], error) {
	var outcome Outcome[R]
	if !s.submitting.CompareAndSwap(false, true) {
		return outcome, ErrSubmitInProgress
	}
	defer s.submitting.Store(false)

	if !s.cfg.Form.Validate() {
		return outcome, ErrValidationFailed
	}

	s.notifier.Loading(s.cfg.LoadingMessage)
	record, err := s.cfg.Save(ctx, s.cfg.Form.Values())
	if err != nil {
		s.cfg.Form.ApplyError(err)
		s.notifier.Error(apiclient.Message(err))
		s.logger.Warn().Err(err).Str("focus", s.cfg.Form.Focus()).Msg("save failed")
		return outcome, err
	}
	outcome.Record = record

	recordID := ""
	if s.cfg.RecordID != nil {
		recordID = s.cfg.RecordID(record)
	}
	if len(uploads) > 0 {
		outcome.UploadErrors = map[string]error{}
	}
	for _, upload := range uploads {
		if err := upload.Upload(ctx, recordID); err != nil {
			outcome.UploadErrors[upload.Name] = err
			s.notifier.Error(fmt.Sprintf("Failed to upload %s: %s", upload.Name, apiclient.Message(err)))
			s.logger.Warn().Err(err).Str("file", upload.Name).Msg("upload failed")
		}
	}

	s.cfg.Form.Reset()

	if s.cfg.Refresh != nil {
		var ids []string
		if recordID != "" {
			ids = []string{recordID}
		}
		outcome.Refresh = s.cfg.Refresh(ctx, s.cfg.Action, ids...)
	}

	s.notifier.Success(s.cfg.SuccessMessage)
	if s.cfg.Done != nil {
		s.cfg.Done(record)
	}
	return outcome, nil
}
