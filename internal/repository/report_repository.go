package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/storebox-portal/internal/model"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ListRegisterRows returns register rows for orders created in the period,
// with child-collection counts, ordered by creation time.
func (r *ReportRepository) ListRegisterRows(ctx context.Context, from, to time.Time) ([]model.RegisterRow, []model.OrderStatus, error) {
	var rows []registerScanRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			o.id,
			o.status,
			o.created_at,
			o.start_date,
			o.end_date,
			o.payment_status,
			o.contract_status,
			o.cancel_status,
			o.total_price,
			o.discount_amount,
			(SELECT COUNT(1) FROM order_services s WHERE s.order_id = o.id) AS service_count,
			(SELECT COUNT(1) FROM moving_orders m WHERE m.order_id = o.id) AS moving_count
		FROM orders o
		WHERE o.created_at >= ? AND o.created_at < ?
		ORDER BY o.created_at ASC
	`, from, to).Scan(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	result := make([]model.RegisterRow, len(rows))
	statuses := make([]model.OrderStatus, len(rows))
	for i, row := range rows {
		result[i] = model.RegisterRow{
			ID:             row.ID,
			CreatedAt:      row.CreatedAt,
			StartDate:      row.StartDate,
			EndDate:        row.EndDate,
			PaymentStatus:  model.PaymentStatus(row.PaymentStatus),
			ContractStatus: model.ContractStatus(row.ContractStatus),
			CancelStatus:   model.CancelStatus(row.CancelStatus),
			TotalPrice:     row.TotalPrice,
			DiscountAmount: row.DiscountAmount,
			ServiceCount:   row.ServiceCount,
			MovingCount:    row.MovingCount,
		}
		statuses[i] = model.OrderStatus(row.Status)
	}
	return result, statuses, nil
}

type registerScanRow struct {
	ID             uuid.UUID
	Status         string
	CreatedAt      time.Time
	StartDate      time.Time
	EndDate        time.Time
	PaymentStatus  string
	ContractStatus string
	CancelStatus   string
	TotalPrice     float64
	DiscountAmount float64
	ServiceCount   int64
	MovingCount    int64
}
