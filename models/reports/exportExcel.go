package reports

import (
	"fmt"
	"io"
	"net/http"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter is satisfied by report rows that can render themselves as a
// spreadsheet line. Cell order must match the headings the caller passes.
type ExcelExporter interface {
	GetCellValues() []interface{}
}

// WriteExcel streams a one-sheet workbook with a heading row followed by the
// report rows.
func WriteExcel(w io.Writer, headings []string, rows []ExcelExporter) error {

	f := excelize.NewFile()
	sheetName := "Sheet1"
	_, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	col := 'A'
	for _, h := range headings {
		if err := f.SetCellValue(sheetName, string(col)+"1", h); err != nil {
			return err
		}
		col++
	}

	rowNo := 2
	for _, d := range rows {
		col := 'A'
		for _, value := range d.GetCellValues() {
			if err := f.SetCellValue(sheetName, string(col)+fmt.Sprint(rowNo), value); err != nil {
				return err
			}
			col++
		}
		rowNo++
	}

	return f.Write(w)
}

// ExportExcelResponse sets the spreadsheet headers and writes the workbook to
// the response.
func ExportExcelResponse(w http.ResponseWriter, filename string, headings []string, rows []ExcelExporter) error {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	return WriteExcel(w, headings, rows)
}
