package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/carmate-contracts/internal/model"
)

const fontName = "Carmate"

type labels struct {
	title, car, customer, seller, price, status, resolved, meetings, documents, none string

	statuses map[model.ContractStatus]string
}

var koreanLabels = labels{
	title:     "계약 요약",
	car:       "차량",
	customer:  "고객",
	seller:    "담당자",
	price:     "계약 금액",
	status:    "진행 상태",
	resolved:  "종료일",
	meetings:  "미팅 일정",
	documents: "계약서",
	none:      "-",
	statuses: map[model.ContractStatus]string{
		model.ContractStatusCarInspection:      "차량 확인",
		model.ContractStatusPriceNegotiation:   "가격 협의",
		model.ContractStatusContractDraft:      "계약서 작성 중",
		model.ContractStatusContractSuccessful: "계약 성공",
		model.ContractStatusContractFailed:     "계약 실패",
	},
}

// Core PDF fonts cannot draw Hangul, so without a font file the summary falls
// back to English labels.
var latinLabels = labels{
	title:     "Contract summary",
	car:       "Car",
	customer:  "Customer",
	seller:    "Salesperson",
	price:     "Contract price",
	status:    "Status",
	resolved:  "Resolved",
	meetings:  "Meetings",
	documents: "Documents",
	none:      "-",
	statuses: map[model.ContractStatus]string{
		model.ContractStatusCarInspection:      "Car inspection",
		model.ContractStatusPriceNegotiation:   "Price negotiation",
		model.ContractStatusContractDraft:      "Contract draft",
		model.ContractStatusContractSuccessful: "Successful",
		model.ContractStatusContractFailed:     "Failed",
	},
}

type Generator struct {
	font []byte
}

// NewGenerator loads the TTF at fontPath. An empty path selects the built-in
// Helvetica font.
func NewGenerator(fontPath string) (*Generator, error) {
	if fontPath == "" {
		return &Generator{}, nil
	}
	font, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read pdf font: %w", err)
	}
	if len(font) == 0 {
		return nil, fmt.Errorf("font data is empty")
	}
	return &Generator{font: font}, nil
}

func (g *Generator) ContractSummary(contract model.Contract) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	l, family, tr := latinLabels, "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
	if len(g.font) > 0 {
		pdf.AddUTF8FontFromBytes(fontName, "", g.font)
		pdf.AddUTF8FontFromBytes(fontName, "B", g.font)
		l, family, tr = koreanLabels, fontName, func(s string) string { return s }
	}

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("%s #%d", l.title, contract.ID)), "", 1, "C", false, 0, "")
	pdf.SetFont(family, "", 11)
	pdf.CellFormat(0, 6, tr(contract.Name()), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	carLabel, customerName, sellerName := l.none, l.none, l.none
	if contract.Car != nil {
		carLabel = contract.Car.Describe()
	}
	if contract.Customer != nil {
		customerName = contract.Customer.Name
	}
	if contract.User != nil {
		sellerName = contract.User.Name
	}
	status, ok := l.statuses[contract.Status]
	if !ok {
		status = string(contract.Status)
	}
	resolved := l.none
	if contract.ResolutionDate != nil {
		resolved = formatDate(*contract.ResolutionDate)
	}

	rows := [][2]string{
		{l.car, carLabel},
		{l.customer, customerName},
		{l.seller, sellerName},
		{l.price, formatWon(contract.ContractPrice)},
		{l.status, status},
		{l.resolved, resolved},
	}
	for _, row := range rows {
		drawField(pdf, family, tr(row[0]), tr(row[1]))
	}

	pdf.Ln(4)
	section(pdf, family, tr(l.meetings))
	if len(contract.Meetings) == 0 {
		pdf.CellFormat(0, 6, l.none, "", 1, "L", false, 0, "")
	}
	for _, meeting := range contract.Meetings {
		line := formatDateTime(meeting.Date)
		if n := len(meeting.Notifications); n > 0 {
			line += fmt.Sprintf(" (alarm x%d)", n)
		}
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	section(pdf, family, tr(l.documents))
	if len(contract.Documents) == 0 {
		pdf.CellFormat(0, 6, l.none, "", 1, "L", false, 0, "")
	}
	for _, doc := range contract.Documents {
		pdf.MultiCell(0, 6, tr(doc.FileName), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawField(pdf *gofpdf.Fpdf, family, label, value string) {
	pdf.SetFont(family, "B", 11)
	pdf.CellFormat(45, 8, label, "1", 0, "L", false, 0, "")
	pdf.SetFont(family, "", 11)
	pdf.CellFormat(0, 8, value, "1", 1, "L", false, 0, "")
}

func section(pdf *gofpdf.Fpdf, family, title string) {
	pdf.SetFont(family, "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 11)
}

// formatWon groups thousands: 20000000 -> "20,000,000 KRW".
func formatWon(amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + b.String() + " KRW"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
