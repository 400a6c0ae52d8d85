package resources

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-admin/internal/models"
)

// BillingService calls the /billing endpoints.
type BillingService struct {
	backend Backend
	logger  zerolog.Logger
}

// NewBillingService constructs the billing module.
func NewBillingService(backend Backend, logger zerolog.Logger) *BillingService {
	return &BillingService{
		backend: backend,
		logger:  logger.With().Str("component", "billing_resource").Logger(),
	}
}

// Get returns the billing profile.
func (s *BillingService) Get(ctx context.Context) (models.Billing, error) {
	var billing models.Billing
	_, err := s.backend.Get(ctx, "/billing", nil, &billing)
	return billing, err
}

// Update replaces the billing profile.
func (s *BillingService) Update(ctx context.Context, billing models.Billing) (models.Billing, error) {
	var saved models.Billing
	if _, err := s.backend.Put(ctx, "/billing", billing, &saved); err != nil {
		return saved, err
	}
	s.logger.Info().Str("plan", saved.Plan).Msg("billing updated")
	return saved, nil
}

// Invoices returns one page of invoices.
func (s *BillingService) Invoices(ctx context.Context, params ListParams) (models.Page[models.Invoice], error) {
	var invoices []models.Invoice
	meta, err := s.backend.Get(ctx, "/billing/invoices", params.Query(), &invoices)
	if err != nil {
		return models.Page[models.Invoice]{}, err
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	return models.Page[models.Invoice]{Items: invoices, Pagination: meta.Pagination}, nil
}
