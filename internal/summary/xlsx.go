package summary

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of spreadsheet exports.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the worksheet holding the exported table.
const SheetName = "Summary"

// SpreadsheetName returns the download name for the spreadsheet export of an attachment.
func SpreadsheetName(attachment string) string {
	return attachment + "_summary.xlsx"
}

// RenderXLSX renders t as a workbook with a single sheet: the heading in A1, the
// Parameter/Description header on row 3 and one row per key below it.
func RenderXLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	headingStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return nil, fmt.Errorf("heading style: %w", err)
	}
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, Border: border})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("cell style: %w", err)
	}

	if err := f.SetCellValue(SheetName, "A1", t.Heading); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", "A1", headingStyle); err != nil {
		return nil, err
	}
	const headerRow = 3
	if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", headerRow), &[]string{HeaderRow[0], HeaderRow[1]}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(SheetName, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("B%d", headerRow), headerStyle); err != nil {
		return nil, err
	}
	for i, r := range t.Rows {
		row := headerRow + 1 + i
		if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", row), &[]string{r.Key, r.Description()}); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
	}
	if len(t.Rows) > 0 {
		last := headerRow + len(t.Rows)
		if err := f.SetCellStyle(SheetName, fmt.Sprintf("A%d", headerRow+1), fmt.Sprintf("B%d", last), cellStyle); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(SheetName, "A", "A", 40); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 80); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}
