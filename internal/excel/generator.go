package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/carmate-contracts/internal/model"
)

const (
	summarySheet  = "요약"
	failuresSheet = "실패 목록"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// ImportFailures renders a bulk import result as a workbook with a summary
// sheet and one row per rejected input row.
func (g *Generator) ImportFailures(result model.ImportResult) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, summarySheet, result)

	if _, err := file.NewSheet(failuresSheet); err != nil {
		return nil, err
	}
	if err := g.writeFailures(file, failuresSheet, result.Failures); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, result model.ImportResult) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "성공")
	set("B1", result.SuccessCount)
	set("A2", "실패")
	set("B2", result.FailureCount)
	set("A3", "전체")
	set("B3", result.SuccessCount+result.FailureCount)

	_ = file.SetColWidth(sheet, "A", "A", 12)
	_ = file.SetColWidth(sheet, "B", "B", 12)
}

func (g *Generator) writeFailures(file *excelize.File, sheet string, failures []model.ImportFailure) error {
	headers := []string{"행", "키", "사유"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		_ = file.SetCellValue(sheet, cell, header)
	}

	for i, failure := range failures {
		row := i + 2
		_ = file.SetCellValue(sheet, fmt.Sprintf("A%d", row), failure.Row)
		_ = file.SetCellValue(sheet, fmt.Sprintf("B%d", row), failure.Key)
		_ = file.SetCellValue(sheet, fmt.Sprintf("C%d", row), failure.Reason)
	}

	_ = file.SetColWidth(sheet, "A", "A", 8)
	_ = file.SetColWidth(sheet, "B", "B", 24)
	_ = file.SetColWidth(sheet, "C", "C", 60)
	if len(failures) == 0 {
		return nil
	}
	return file.AutoFilter(sheet, fmt.Sprintf("A1:C%d", len(failures)+1), nil)
}
