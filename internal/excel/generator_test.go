package excel

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/carmate-contracts/internal/model"
)

func TestImportFailures(t *testing.T) {
	result := model.ImportResult{
		SuccessCount: 3,
		FailureCount: 2,
		Failures: []model.ImportFailure{
			{Row: 3, Key: "12가3456", Reason: "duplicate key: carNumber 12가3456"},
			{Row: 5, Key: "", Reason: "missing required field: carNumber"},
		},
	}

	content, err := NewGenerator().ImportFailures(result)
	if err != nil {
		t.Fatalf("ImportFailures: %v", err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer file.Close()

	total, err := file.GetCellValue(summarySheet, "B3")
	if err != nil || total != "5" {
		t.Fatalf("total: want 5 got %q (%v)", total, err)
	}

	rows, err := file.GetRows(failuresSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: want header + 2 got %d", len(rows))
	}
	if rows[1][0] != "3" || rows[1][1] != "12가3456" || rows[1][2] != "duplicate key: carNumber 12가3456" {
		t.Fatalf("first failure row: %v", rows[1])
	}
	if rows[2][2] != "missing required field: carNumber" {
		t.Fatalf("second failure row: %v", rows[2])
	}
}

func TestImportFailuresEmpty(t *testing.T) {
	content, err := NewGenerator().ImportFailures(model.ImportResult{SuccessCount: 4, Failures: []model.ImportFailure{}})
	if err != nil {
		t.Fatalf("ImportFailures: %v", err)
	}
	file, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows(failuresSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("only the header is expected, got %d rows", len(rows))
	}
}
