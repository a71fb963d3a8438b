package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/storebox-portal/internal/model"
	"github.com/nurpe/storebox-portal/internal/repository"
)

type ExcelGenerator interface {
	Generate(register model.OrdersRegister) ([]byte, error)
}

type PDFGenerator interface {
	Generate(act model.CancellationAct) ([]byte, error)
}

type ReportService struct {
	reports *repository.ReportRepository
	orders  *repository.OrderRepository
	excel   ExcelGenerator
	pdf     PDFGenerator
	now     func() time.Time
}

func NewReportService(reports *repository.ReportRepository, orders *repository.OrderRepository, excel ExcelGenerator, pdf PDFGenerator) *ReportService {
	return &ReportService{
		reports: reports,
		orders:  orders,
		excel:   excel,
		pdf:     pdf,
		now:     time.Now,
	}
}

type ExportResult struct {
	FileName string
	Content  []byte
}

var registerStatusOrder = []model.OrderStatus{
	model.OrderStatusInactive,
	model.OrderStatusApproved,
	model.OrderStatusProcessing,
	model.OrderStatusActive,
	model.OrderStatusCanceled,
	model.OrderStatusFinished,
}

// GenerateRegister exports the admin orders register for the period as XLSX.
func (s *ReportService) GenerateRegister(ctx context.Context, principal model.Principal, periodStart, periodEnd time.Time) (*ExportResult, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if periodStart.IsZero() || periodEnd.IsZero() {
		return nil, fmt.Errorf("%w: period dates are required", ErrInvalidInput)
	}

	periodStart = dateOnly(periodStart)
	periodEnd = dateOnly(periodEnd)
	if periodStart.After(periodEnd) {
		return nil, fmt.Errorf("%w: period_start must be before or equal to period_end", ErrInvalidInput)
	}
	endExclusive := periodEnd.Add(24 * time.Hour)

	rows, statuses, err := s.reports.ListRegisterRows(ctx, periodStart, endExclusive)
	if err != nil {
		return nil, err
	}

	grouped := make(map[model.OrderStatus][]model.RegisterRow)
	totalAmount := 0.0
	for i, row := range rows {
		grouped[statuses[i]] = append(grouped[statuses[i]], row)
		totalAmount += row.TotalPrice
	}

	register := model.OrdersRegister{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		TotalOrders: int64(len(rows)),
		TotalAmount: totalAmount,
	}
	for _, status := range registerStatusOrder {
		if orders, ok := grouped[status]; ok {
			register.Groups = append(register.Groups, model.RegisterGroup{Status: status, Orders: orders})
		}
	}

	content, err := s.excel.Generate(register)
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("orders-%s-%s.xlsx",
		periodStart.Format("20060102"), periodEnd.Format("20060102"))
	return &ExportResult{FileName: fileName, Content: content}, nil
}

// GenerateCancellationAct renders the acceptance certificate PDF for an order
// with a cancellation in progress or approved.
func (s *ReportService) GenerateCancellationAct(ctx context.Context, principal model.Principal, orderID uuid.UUID) (*ExportResult, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !principal.CanAccessOrder(*order) {
		return nil, ErrPermissionDenied
	}
	if order.CancelStatus == model.CancelStatusNo {
		return nil, fmt.Errorf("%w: order has no cancellation in progress", ErrInvalidInput)
	}

	content, err := s.pdf.Generate(model.CancellationAct{Order: *order, GeneratedAt: s.now()})
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("cancellation-act-%s.pdf", order.ID.String())
	return &ExportResult{FileName: fileName, Content: content}, nil
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
