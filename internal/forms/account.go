package forms

import (
	"strings"

	"github.com/noah-isme/gema-admin/internal/models"
)

// AccountForm edits the institute settings.
type AccountForm struct {
	InstituteName string `json:"instituteName" label:"Institute Name" validate:"required"`
	Email         string `json:"email" label:"Email" validate:"required,email"`
	Phone         string `json:"phone" label:"Phone" validate:"required,phone"`
	Address       string `json:"address" label:"Address"`
	Website       string `json:"website" label:"Website" validate:"omitempty,url"`
	Timezone      string `json:"timezone" label:"Timezone"`
	Currency      string `json:"currency" label:"Currency" validate:"omitempty,len=3"`
}

// AccountFormFrom fills the form from stored settings.
func AccountFormFrom(settings models.AccountSettings) AccountForm {
	return AccountForm{
		InstituteName: settings.InstituteName,
		Email:         settings.Email,
		Phone:         settings.Phone,
		Address:       settings.Address,
		Website:       settings.Website,
		Timezone:      settings.Timezone,
		Currency:      settings.Currency,
	}
}

// Input builds the API payload. logo is kept from the stored settings.
func (f AccountForm) Input(logo string) models.AccountSettings {
	return models.AccountSettings{
		InstituteName: PlainText(f.InstituteName),
		Email:         strings.ToLower(strings.TrimSpace(f.Email)),
		Phone:         strings.TrimSpace(f.Phone),
		Address:       PlainText(f.Address),
		Website:       strings.TrimSpace(f.Website),
		LogoURL:       logo,
		Timezone:      f.Timezone,
		Currency:      strings.ToUpper(f.Currency),
	}
}

// PasswordForm changes the account password.
type PasswordForm struct {
	CurrentPassword string `json:"currentPassword" label:"Current Password" validate:"required"`
	NewPassword     string `json:"newPassword" label:"New Password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" label:"Confirm Password" validate:"required,eqfield=NewPassword" msg:"eqfield=Passwords do not match"`
}

// Input builds the API payload.
func (f PasswordForm) Input() models.PasswordChange {
	return models.PasswordChange{
		CurrentPassword: f.CurrentPassword,
		NewPassword:     f.NewPassword,
		ConfirmPassword: f.ConfirmPassword,
	}
}
