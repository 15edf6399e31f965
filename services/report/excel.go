package reportsvc

import (
	"fmt"
	"regexp"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
)

const (
	// ContentType is the xlsx MIME type for download responses.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	filenameSuffix = "_Attendance_Report.xlsx"
	sheetNameLimit = 31 // hard xlsx worksheet-name limit

	presentFill = "E2F0D9" // light green
	absentFill  = "FFD9D9" // light red
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// ExcelExporter renders an attendance matrix into a styled spreadsheet.
// It has no side effects: it only returns bytes.
type ExcelExporter struct{}

func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Filename derives the download filename from the class name, whitespace
// collapsed to underscores.
func (x *ExcelExporter) Filename(cls school.Class) string {
	return whitespaceRegex.ReplaceAllString(cls.Name, "_") + filenameSuffix
}

// Export renders the matrix: fixed roll/name/registration columns, one column
// per recorded date, then total-present and percentage columns. Status cells
// read "Present"/"Absent"/"N/A" with green/red fills for the first two.
func (x *ExcelExporter) Export(cls school.Class, matrix attendance.Matrix) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetName(cls.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, errors.Wrap(err, "naming worksheet")
	}

	headers := []string{"Roll No", "Student Name", "Registration No"}
	widths := []float64{15, 30, 20}
	for _, date := range matrix.Dates {
		headers = append(headers, dateHeader(date))
		widths = append(widths, 12)
	}
	headers = append(headers, "Total Present", "Percentage")
	widths = append(widths, 15, 15)

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, errors.Wrap(err, "resolving header cell")
		}
		if err = f.SetCellValue(sheet, cell, header); err != nil {
			return nil, errors.Wrap(err, "writing header")
		}
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, errors.Wrap(err, "resolving column name")
		}
		if err = f.SetColWidth(sheet, colName, colName, widths[col]); err != nil {
			return nil, errors.Wrap(err, "setting column width")
		}
	}

	styles, err := newCellStyles(f)
	if err != nil {
		return nil, err
	}

	for i, row := range matrix.Rows {
		rowNum := i + 2
		values := []interface{}{row.Student.RollNo, row.Student.Name, orNA(row.Student.RegistrationNo)}
		for _, status := range row.Statuses {
			values = append(values, statusText(status))
		}
		values = append(values, row.TotalPresent, percentageText(row.TotalPresent, len(matrix.Dates)))

		for col, val := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
			if err != nil {
				return nil, errors.Wrap(err, "resolving cell")
			}
			if err = f.SetCellValue(sheet, cell, val); err != nil {
				return nil, errors.Wrap(err, "writing cell")
			}

			style := styles.body
			if col >= 3 && col < 3+len(matrix.Dates) {
				switch row.Statuses[col-3] {
				case attendance.StatusPresent:
					style = styles.present
				case attendance.StatusAbsent:
					style = styles.absent
				}
			}
			if err = f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return nil, errors.Wrap(err, "styling cell")
			}
		}
	}

	// bold centered header row
	firstCell, _ := excelize.CoordinatesToCellName(1, 1)
	lastCell, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return nil, errors.Wrap(err, "resolving header range")
	}
	if err = f.SetCellStyle(sheet, firstCell, lastCell, styles.header); err != nil {
		return nil, errors.Wrap(err, "styling header")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf.Bytes(), nil
}

type cellStyles struct {
	header  int
	body    int
	present int
	absent  int
}

func newCellStyles(f *excelize.File) (cellStyles, error) {
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	borders := []excelize.Border{
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: center,
	})
	if err != nil {
		return cellStyles{}, errors.Wrap(err, "creating header style")
	}
	body, err := f.NewStyle(&excelize.Style{Alignment: center, Border: borders})
	if err != nil {
		return cellStyles{}, errors.Wrap(err, "creating body style")
	}
	present, err := f.NewStyle(&excelize.Style{
		Alignment: center,
		Border:    borders,
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{presentFill}},
	})
	if err != nil {
		return cellStyles{}, errors.Wrap(err, "creating present style")
	}
	absent, err := f.NewStyle(&excelize.Style{
		Alignment: center,
		Border:    borders,
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{absentFill}},
	})
	if err != nil {
		return cellStyles{}, errors.Wrap(err, "creating absent style")
	}

	return cellStyles{header: header, body: body, present: present, absent: absent}, nil
}

// sheetName truncates to the worksheet-name limit rather than erroring on
// long class names. The limit counts characters, so truncation is on runes:
// cutting bytes could leave invalid UTF-8 in the workbook XML.
func sheetName(className string) string {
	name := className + " Attendance"
	if runes := []rune(name); len(runes) > sheetNameLimit {
		name = string(runes[:sheetNameLimit])
	}
	return name
}

func dateHeader(date string) string {
	day, err := core.ParseDate(date)
	if err != nil {
		return date
	}
	return day.Format("02/01/2006")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func statusText(status attendance.Status) string {
	switch status {
	case attendance.StatusPresent:
		return "Present"
	case attendance.StatusAbsent:
		return "Absent"
	default:
		return "N/A"
	}
}

func percentageText(totalPresent, dateCount int) string {
	if dateCount == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", float64(totalPresent)/float64(dateCount)*100)
}
