package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/storebox-portal/internal/model"
)

func TestGenerateRegister(t *testing.T) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	register := model.OrdersRegister{
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, 1, 0),
		TotalOrders: 2,
		TotalAmount: 95000,
		Groups: []model.RegisterGroup{
			{
				Status: model.OrderStatusActive,
				Orders: []model.RegisterRow{
					{
						ID:             uuid.New(),
						CreatedAt:      start.Add(48 * time.Hour),
						StartDate:      start.AddDate(0, 0, 3),
						EndDate:        start.AddDate(0, 3, 3),
						PaymentStatus:  model.PaymentStatusPaid,
						ContractStatus: model.ContractStatusSigned,
						CancelStatus:   model.CancelStatusNo,
						TotalPrice:     50000,
						ServiceCount:   2,
						MovingCount:    1,
					},
				},
			},
			{
				Status: model.OrderStatusCanceled,
				Orders: []model.RegisterRow{
					{ID: uuid.New(), TotalPrice: 45000, CancelStatus: model.CancelStatusSigned},
				},
			},
		},
	}

	content, err := NewGenerator().Generate(register)
	require.NoError(t, err)
	require.NotEmpty(t, content)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()

	sheets := file.GetSheetList()
	assert.Contains(t, sheets, "Сводка")
	assert.Contains(t, sheets, "Активные")
	assert.Contains(t, sheets, "Расторгнутые")

	title, err := file.GetCellValue("Сводка", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Реестр заказов", title)

	count, err := file.GetCellValue("Сводка", "B4")
	require.NoError(t, err)
	assert.Equal(t, "2", count)

	orderID, err := file.GetCellValue("Активные", "A5")
	require.NoError(t, err)
	assert.Equal(t, register.Groups[0].Orders[0].ID.String(), orderID)
}

func TestSheetNamesAreDeduplicated(t *testing.T) {
	used := map[string]struct{}{}

	first := buildSheetName(model.OrderStatusActive, used)
	used[first] = struct{}{}
	second := buildSheetName(model.OrderStatusActive, used)

	assert.Equal(t, "Активные", first)
	assert.Equal(t, "Активные-2", second)
}
