package staffing

import (
	"context"

	"github.com/arnavshah/crew-scheduler-api/pkg/models"
	"github.com/arnavshah/crew-scheduler-api/pkg/repository"
)

// ListBillings returns billing entries, optionally restricted to one status.
func (s *Service) ListBillings(ctx context.Context, status string) ([]models.Billing, error) {
	st := models.BillingStatus(status)
	if st != "" && st != models.BillingPending && st != models.BillingPaid {
		vErr := &ValidationError{}
		vErr.add("status", "must be pending or paid")
		return nil, vErr
	}
	return s.billing.ListBillings(ctx, repository.BillingFilter{Status: st})
}

// MarkBillingPaid settles a billing entry.
func (s *Service) MarkBillingPaid(ctx context.Context, id string) (models.Billing, error) {
	b, err := s.billing.MarkBillingPaid(ctx, id, s.now())
	if err != nil {
		return models.Billing{}, mapRepoError(err)
	}
	return b, nil
}
