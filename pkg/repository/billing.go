package repository

import (
	"context"
	"time"

	"github.com/arnavshah/crew-scheduler-api/pkg/database"
	"github.com/arnavshah/crew-scheduler-api/pkg/models"
)

// BillingFilter narrows billing listings. Zero values match everything.
type BillingFilter struct {
	Status       models.BillingStatus
	TechnicianID string
}

func (s *Store) CreateBilling(ctx context.Context, b models.Billing) (models.Billing, error) {
	row := database.Billing{
		ID:           b.ID,
		MissionID:    b.MissionID,
		TechnicianID: b.TechnicianID,
		Amount:       b.Amount,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt.UTC(),
		PaidAt:       b.PaidAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Billing{}, translate(err)
	}
	return toBilling(row), nil
}

func (s *Store) GetBilling(ctx context.Context, id string) (models.Billing, error) {
	var row database.Billing
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return models.Billing{}, translate(err)
	}
	return toBilling(row), nil
}

func (s *Store) ListBillings(ctx context.Context, filter BillingFilter) ([]models.Billing, error) {
	q := s.db.WithContext(ctx).Order("created_at desc, id asc")
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.TechnicianID != "" {
		q = q.Where("technician_id = ?", filter.TechnicianID)
	}
	var rows []database.Billing
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Billing, 0, len(rows))
	for _, r := range rows {
		out = append(out, toBilling(r))
	}
	return out, nil
}

// MarkBillingPaid flips a pending entry to paid. Paid entries are returned unchanged.
func (s *Store) MarkBillingPaid(ctx context.Context, id string, at time.Time) (models.Billing, error) {
	if err := s.db.WithContext(ctx).Model(&database.Billing{}).
		Where("id = ? AND status = ?", id, string(models.BillingPending)).
		Updates(map[string]any{"status": string(models.BillingPaid), "paid_at": at.UTC()}).Error; err != nil {
		return models.Billing{}, err
	}
	return s.GetBilling(ctx, id)
}
