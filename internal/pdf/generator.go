package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/storebox-portal/internal/model"
)

type Generator struct {
	fontName string
	fontData []byte
}

// NewGenerator loads the UTF-8 font used for the printable forms.
func NewGenerator(fontPath string) (*Generator, error) {
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("load pdf font: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("font data is empty")
	}
	return &Generator{fontName: "NotoSans", fontData: data}, nil
}

// Generate renders the cancellation acceptance certificate.
func (g *Generator) Generate(act model.CancellationAct) ([]byte, error) {
	order := act.Order

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.AddUTF8FontFromBytes(g.fontName, "", g.fontData)
	pdf.AddUTF8FontFromBytes(g.fontName, "B", g.fontData)

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "АКТ приёма-передачи при расторжении договора хранения", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Заказ № %s от %s", order.ID.String(), formatDate(order.CreatedAt)), "", 1, "C", false, 0, "")
	if contract := order.SignedContract(); contract != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Договор № %s от %s", contract.DocumentID, formatDate(contract.CreatedAt)), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Расторжение", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Причина: %s", safeValue(order.CancelReason)), "", 1, "L", false, 0, "")
	if strings.TrimSpace(order.CancelComment) != "" {
		pdf.MultiCell(0, 6, fmt.Sprintf("Комментарий: %s", order.CancelComment), "", "L", false)
	}
	if order.SelfPickupDate != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Самовывоз: %s", formatDate(*order.SelfPickupDate)), "", 1, "L", false, 0, "")
	}
	for _, m := range order.MovingOrders {
		if m.Status != model.MovingStatusPendingTo {
			continue
		}
		pdf.CellFormat(0, 6, fmt.Sprintf("Доставка: %s, адрес: %s", formatDate(m.MovingDate), safeValue(m.Address)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Передаваемое имущество", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)

	headers := []string{"Наименование", "Габариты, м", "Объём, м³", "Маркировка"}
	colWidths := []float64{80, 40, 30, 30}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)
	for _, item := range order.Items {
		row := []string{
			item.Name,
			fmt.Sprintf("%.2f × %.2f × %.2f", item.Length, item.Width, item.Height),
			item.VolumeLabel(),
			safeValue(item.CargoMark),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Услуги", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	serviceHeaders := []string{"Услуга", "Кол-во", "Цена, тг", "Сумма, тг"}
	serviceWidths := []float64{90, 25, 30, 35}
	drawTableRow(pdf, g.fontName, serviceHeaders, serviceWidths, true)
	for _, svc := range order.Services {
		row := []string{
			string(svc.Type),
			fmt.Sprintf("%d", svc.Count),
			fmt.Sprintf("%.2f", svc.Price),
			fmt.Sprintf("%.2f", svc.TotalPrice),
		}
		drawTableRow(pdf, g.fontName, row, serviceWidths, false)
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Скидка: %.2f тг.", order.DiscountAmount), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Итого к оплате: %.2f тг.", order.TotalPayable()), "", 1, "R", false, 0, "")

	pdf.Ln(6)
	pdf.CellFormat(0, 6, fmt.Sprintf("Дата составления: %s", formatDate(act.GeneratedAt)), "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.CellFormat(0, 6, "Хранитель: ______________________", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Поклажедатель: ______________________", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "—"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02.01.2006")
}
