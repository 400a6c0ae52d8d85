package dashboard

import "github.com/rs/zerolog"

// Notifier surfaces transient notices, the toasts of a page.
type Notifier interface {
	Loading(message string)
	Success(message string)
	Error(message string)
}

// LogNotifier writes notices to a zerolog logger.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier builds a notifier over logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

// Loading logs a pending operation.
func (n *LogNotifier) Loading(message string) {
	n.logger.Info().Str("notice", "loading").Msg(message)
}

// Success logs a completed operation.
func (n *LogNotifier) Success(message string) {
	n.logger.Info().Str("notice", "success").Msg(message)
}

// Error logs a failed operation.
func (n *LogNotifier) Error(message string) {
	n.logger.Error().Str("notice", "error").Msg(message)
}

type nopNotifier struct{}

func (nopNotifier) Loading(string) {}
func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
