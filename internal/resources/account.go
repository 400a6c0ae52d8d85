package resources

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/apiclient"
	"github.com/noah-isme/gema-admin/internal/models"
)

// MinPasswordLength is the shortest password the account endpoint accepts.
const MinPasswordLength = 8

// AccountService calls the /account-settings endpoints.
type AccountService struct {
	backend Backend
	logger  zerolog.Logger
}

// NewAccountService constructs the account settings module.
func NewAccountService(backend Backend, logger zerolog.Logger) *AccountService {
	return &AccountService{
		backend: backend,
		logger:  logger.With().Str("component", "account_resource").Logger(),
	}
}

// Get returns the institute settings.
func (s *AccountService) Get(ctx context.Context) (models.AccountSettings, error) {
	var settings models.AccountSettings
	_, err := s.backend.Get(ctx, "/account-settings", nil, &settings)
	return settings, err
}

// Update replaces the institute settings.
func (s *AccountService) Update(ctx context.Context, settings models.AccountSettings) (models.AccountSettings, error) {
	var saved models.AccountSettings
	if _, err := s.backend.Put(ctx, "/account-settings", settings, &saved); err != nil {
		return saved, err
	}
	s.logger.Info().Msg("account settings updated")
	return saved, nil
}

// ChangePassword sets a new password for the signed-in account.
func (s *AccountService) ChangePassword(ctx context.Context, change models.PasswordChange) error {
	if change.CurrentPassword == "" {
		return apiclient.NewValidationError("currentPassword", "Current Password is required")
	}
	if len(change.NewPassword) < MinPasswordLength {
		return apiclient.NewValidationError("newPassword", "New Password must be at least 8 characters")
	}
	if change.NewPassword != change.ConfirmPassword {
		return apiclient.NewValidationError("confirmPassword", "Passwords do not match")
	}
	if _, err := s.backend.Put(ctx, "/account-settings/password", change, nil); err != nil {
		return err
	}
	s.logger.Info().Msg("account password changed")
	return nil
}
