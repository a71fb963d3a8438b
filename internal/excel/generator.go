package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/storebox-portal/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(register model.OrdersRegister) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Сводка"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, register); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, group := range register.Groups {
		sheetName := buildSheetName(group.Status, usedNames)
		usedNames[sheetName] = struct{}{}

		file.NewSheet(sheetName)
		if err := g.writeGroup(file, sheetName, group); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, register model.OrdersRegister) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Реестр заказов")
	set("A2", "Начало периода")
	set("B2", formatDate(register.PeriodStart))
	set("A3", "Конец периода")
	set("B3", formatDate(register.PeriodEnd))
	set("A4", "Количество заказов")
	set("B4", register.TotalOrders)
	set("A5", "Сумма, тг")
	set("B5", fmt.Sprintf("%.2f", register.TotalAmount))

	tableRow := 7
	set(fmt.Sprintf("A%d", tableRow), "Статус")
	set(fmt.Sprintf("B%d", tableRow), "Количество заказов")
	set(fmt.Sprintf("C%d", tableRow), "Сумма, тг")

	for i, group := range register.Groups {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), statusLabel(group.Status))
		set(fmt.Sprintf("B%d", row), len(group.Orders))
		set(fmt.Sprintf("C%d", row), fmt.Sprintf("%.2f", sumGroupAmount(group)))
	}

	_ = file.SetColWidth(sheet, "A", "A", 30)
	_ = file.SetColWidth(sheet, "B", "C", 20)
	return nil
}

func (g *Generator) writeGroup(file *excelize.File, sheet string, group model.RegisterGroup) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Статус")
	set("B1", statusLabel(group.Status))
	set("A2", "Количество заказов")
	set("B2", len(group.Orders))

	tableRow := 4
	headers := []string{
		"Заказ",
		"Создан",
		"Начало аренды",
		"Конец аренды",
		"Оплата",
		"Договор",
		"Расторжение",
		"Сумма, тг",
		"Скидка, тг",
		"Услуг",
		"Перевозок",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, order := range group.Orders {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), order.ID.String())
		set(fmt.Sprintf("B%d", row), formatDateTime(order.CreatedAt))
		set(fmt.Sprintf("C%d", row), formatDate(order.StartDate))
		set(fmt.Sprintf("D%d", row), formatDate(order.EndDate))
		set(fmt.Sprintf("E%d", row), string(order.PaymentStatus))
		set(fmt.Sprintf("F%d", row), string(order.ContractStatus))
		set(fmt.Sprintf("G%d", row), string(order.CancelStatus))
		set(fmt.Sprintf("H%d", row), fmt.Sprintf("%.2f", order.TotalPrice))
		set(fmt.Sprintf("I%d", row), fmt.Sprintf("%.2f", order.DiscountAmount))
		set(fmt.Sprintf("J%d", row), order.ServiceCount)
		set(fmt.Sprintf("K%d", row), order.MovingCount)
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "D", 16)
	_ = file.SetColWidth(sheet, "E", "G", 14)
	_ = file.SetColWidth(sheet, "H", "K", 12)
	return nil
}

var statusLabels = map[model.OrderStatus]string{
	model.OrderStatusInactive:   "Новые",
	model.OrderStatusApproved:   "Подтвержденные",
	model.OrderStatusProcessing: "В обработке",
	model.OrderStatusActive:     "Активные",
	model.OrderStatusCanceled:   "Расторгнутые",
	model.OrderStatusFinished:   "Завершенные",
}

func statusLabel(status model.OrderStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

func buildSheetName(status model.OrderStatus, used map[string]struct{}) string {
	base := sanitizeSheetName(statusLabel(status))
	if len(base) > 31 {
		base = base[:31]
	}

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		nameCandidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Лист"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = replacer.Replace(value)
	value = strings.TrimSpace(value)
	if value == "" {
		return "Лист"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func sumGroupAmount(group model.RegisterGroup) float64 {
	total := 0.0
	for _, order := range group.Orders {
		total += order.TotalPrice
	}
	return total
}
