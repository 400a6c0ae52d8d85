package models

// AccountSettings is the single-owner settings object of the institute.
type AccountSettings struct {
	InstituteName string `json:"instituteName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address,omitempty"`
	Website       string `json:"website,omitempty"`
	LogoURL       string `json:"logo,omitempty"`
	Timezone      string `json:"timezone,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

// PasswordChange is the payload of the password endpoint.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Billing is the subscription and payment profile.
type Billing struct {
	Plan          string  `json:"plan"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	BillingCycle  string  `json:"billingCycle"`
	NextBillingAt string  `json:"nextBillingDate,omitempty"`
	BillingEmail  string  `json:"billingEmail,omitempty"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
}

// Invoice is one billed period.
type Invoice struct {
	ID       string  `json:"id"`
	Number   string  `json:"invoiceNumber"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
	IssuedAt string  `json:"issuedAt"`
	PaidAt   string  `json:"paidAt,omitempty"`
}

// Upload is metadata of a generically uploaded file.
type Upload struct {
	ID        string `json:"id"`
	FileName  string `json:"fileName"`
	URL       string `json:"url"`
	MimeType  string `json:"mimeType,omitempty"`
	Size      int64  `json:"size,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}
