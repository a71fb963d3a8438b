package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/storebox-portal/internal/model"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type orderRow struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Status            string
	PaymentStatus     string
	ContractStatus    string
	CancelStatus      string
	StartDate         time.Time
	EndDate           time.Time
	Months            int
	RentalPrice       float64
	TotalPrice        float64
	DiscountAmount    float64
	IsSelectedMoving  bool
	IsSelectedPackage bool
	CancelReason      *string
	CancelComment     *string
	SelfPickupDate    *time.Time
	CreatedAt         time.Time
}

// GetOrder loads the full aggregate: the order row plus its items, services,
// moving orders and contracts.
func (r *OrderRepository) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var row orderRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id, user_id, status, payment_status, contract_status, cancel_status,
			start_date, end_date, months, rental_price, total_price, discount_amount,
			is_selected_moving, is_selected_package,
			cancel_reason, cancel_comment, self_pickup_date, created_at
		FROM orders
		WHERE id = ?
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	order := rowToOrder(row)

	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, order_id, name, length, width, height, volume, COALESCE(cargo_mark, '') AS cargo_mark
		FROM order_items
		WHERE order_id = ?
		ORDER BY name ASC
	`, id).Scan(&order.Items).Error; err != nil {
		return nil, err
	}

	var services []serviceRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, type, price, count, total_price
		FROM order_services
		WHERE order_id = ?
		ORDER BY type ASC
	`, id).Scan(&services).Error; err != nil {
		return nil, err
	}
	order.Services = make([]model.Service, len(services))
	for i, svc := range services {
		order.Services[i] = model.Service{
			ID:         svc.ID,
			Type:       model.ParseServiceType(svc.Type),
			Price:      svc.Price,
			Count:      svc.Count,
			TotalPrice: svc.TotalPrice,
		}
	}

	var moving []movingRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, order_id, status, moving_date, address, direction
		FROM moving_orders
		WHERE order_id = ?
		ORDER BY moving_date ASC
	`, id).Scan(&moving).Error; err != nil {
		return nil, err
	}
	order.MovingOrders = make([]model.MovingOrder, len(moving))
	for i, m := range moving {
		order.MovingOrders[i] = model.MovingOrder{
			ID:         m.ID,
			OrderID:    m.OrderID,
			Status:     model.MovingStatus(m.Status),
			MovingDate: m.MovingDate,
			Address:    m.Address,
			Direction:  model.MovingDirection(m.Direction),
		}
	}

	var contracts []contractRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, order_id, document_id, status, created_at
		FROM contracts
		WHERE order_id = ?
		ORDER BY created_at ASC
	`, id).Scan(&contracts).Error; err != nil {
		return nil, err
	}
	order.Contracts = make([]model.Contract, len(contracts))
	for i, c := range contracts {
		order.Contracts[i] = model.Contract{
			ID:         c.ID,
			OrderID:    c.OrderID,
			DocumentID: c.DocumentID,
			Status:     model.ContractStatus(c.Status),
			CreatedAt:  c.CreatedAt,
		}
	}

	return &order, nil
}

type serviceRow struct {
	ID         uuid.UUID
	Type       string
	Price      float64
	Count      int
	TotalPrice float64
}

type movingRow struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Status     string
	MovingDate time.Time
	Address    string
	Direction  string
}

type contractRow struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	DocumentID string
	Status     string
	CreatedAt  time.Time
}

// ListOrders returns shallow order rows for a user, newest first. Pass
// uuid.Nil to list all orders.
func (r *OrderRepository) ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	query := `
		SELECT
			id, user_id, status, payment_status, contract_status, cancel_status,
			start_date, end_date, months, rental_price, total_price, discount_amount,
			is_selected_moving, is_selected_package,
			cancel_reason, cancel_comment, self_pickup_date, created_at
		FROM orders
	`
	args := []interface{}{}
	if userID != uuid.Nil {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC"

	var rows []orderRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]model.Order, len(rows))
	for i, row := range rows {
		orders[i] = rowToOrder(row)
	}
	return orders, nil
}

// SaveState persists the four status axes and the cancellation fields.
func (r *OrderRepository) SaveState(ctx context.Context, o model.Order) error {
	return saveState(r.db.WithContext(ctx), o)
}

// SaveStateWithContract writes the state change and the issued contract row
// in one transaction, so a failed save never leaves a dangling contract.
func (r *OrderRepository) SaveStateWithContract(ctx context.Context, o model.Order, c model.Contract) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveState(tx, o); err != nil {
			return err
		}
		return insertContract(tx, c)
	})
}

func saveState(tx *gorm.DB, o model.Order) error {
	return tx.Exec(`
		UPDATE orders
		SET status = ?, payment_status = ?, contract_status = ?, cancel_status = ?,
			cancel_reason = ?, cancel_comment = ?, self_pickup_date = ?
		WHERE id = ?
	`, string(o.Status), string(o.PaymentStatus), string(o.ContractStatus), string(o.CancelStatus),
		nullIfEmpty(o.CancelReason), nullIfEmpty(o.CancelComment), o.SelfPickupDate, o.ID).Error
}

func insertContract(tx *gorm.DB, c model.Contract) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return tx.Exec(`
		INSERT INTO contracts (id, order_id, document_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.OrderID, c.DocumentID, string(c.Status), c.CreatedAt).Error
}

// ReplaceCollections rewrites the editable part of the aggregate in one
// transaction: items, services, moving orders, duration and selection flags.
func (r *OrderRepository) ReplaceCollections(ctx context.Context, o model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
			UPDATE orders
			SET months = ?, end_date = ?, total_price = ?,
				is_selected_moving = ?, is_selected_package = ?
			WHERE id = ?
		`, o.Months, o.EndDate, o.TotalPrice, o.IsSelectedMoving, o.IsSelectedPackage, o.ID).Error; err != nil {
			return err
		}

		if err := tx.Exec(`DELETE FROM order_items WHERE order_id = ?`, o.ID).Error; err != nil {
			return err
		}
		for _, item := range o.Items {
			if err := tx.Exec(`
				INSERT INTO order_items (id, order_id, name, length, width, height, volume, cargo_mark)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, orNewID(item.ID), o.ID, item.Name, item.Length, item.Width, item.Height, item.Volume, item.CargoMark).Error; err != nil {
				return err
			}
		}

		if err := tx.Exec(`DELETE FROM order_services WHERE order_id = ?`, o.ID).Error; err != nil {
			return err
		}
		for _, svc := range o.Services {
			if err := tx.Exec(`
				INSERT INTO order_services (id, order_id, type, price, count, total_price)
				VALUES (?, ?, ?, ?, ?, ?)
			`, orNewID(svc.ID), o.ID, string(svc.Type), svc.Price, svc.Count, svc.TotalPrice).Error; err != nil {
				return err
			}
		}

		if err := tx.Exec(`DELETE FROM moving_orders WHERE order_id = ?`, o.ID).Error; err != nil {
			return err
		}
		for _, m := range o.MovingOrders {
			if err := tx.Exec(`
				INSERT INTO moving_orders (id, order_id, status, moving_date, address, direction)
				VALUES (?, ?, ?, ?, ?, ?)
			`, orNewID(m.ID), o.ID, string(m.Status), m.MovingDate, m.Address, string(m.Direction)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *OrderRepository) InsertMoving(ctx context.Context, m model.MovingOrder) (model.MovingOrder, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO moving_orders (id, order_id, status, moving_date, address, direction)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.OrderID, string(m.Status), m.MovingDate, m.Address, string(m.Direction)).Error
	if err != nil {
		return model.MovingOrder{}, err
	}
	return m, nil
}

func (r *OrderRepository) InsertService(ctx context.Context, orderID uuid.UUID, svc model.Service) (model.Service, error) {
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO order_services (id, order_id, type, price, count, total_price)
		VALUES (?, ?, ?, ?, ?, ?)
	`, svc.ID, orderID, string(svc.Type), svc.Price, svc.Count, svc.TotalPrice).Error
	if err != nil {
		return model.Service{}, err
	}
	return svc, nil
}

func (r *OrderRepository) UpdateExtension(ctx context.Context, id uuid.UUID, months int, endDate time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE orders SET months = ?, end_date = ? WHERE id = ?
	`, months, endDate, id).Error
}

func (r *OrderRepository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`DELETE FROM orders WHERE id = ?`, id).Error
}

func rowToOrder(row orderRow) model.Order {
	return model.Order{
		ID:                row.ID,
		UserID:            row.UserID,
		Status:            model.OrderStatus(row.Status),
		PaymentStatus:     model.PaymentStatus(row.PaymentStatus),
		ContractStatus:    model.ContractStatus(row.ContractStatus),
		CancelStatus:      model.CancelStatus(row.CancelStatus),
		StartDate:         row.StartDate,
		EndDate:           row.EndDate,
		Months:            row.Months,
		RentalPrice:       row.RentalPrice,
		TotalPrice:        row.TotalPrice,
		DiscountAmount:    row.DiscountAmount,
		IsSelectedMoving:  row.IsSelectedMoving,
		IsSelectedPackage: row.IsSelectedPackage,
		CancelReason:      deref(row.CancelReason),
		CancelComment:     deref(row.CancelComment),
		SelfPickupDate:    row.SelfPickupDate,
		CreatedAt:         row.CreatedAt,
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func nullIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func orNewID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
