package reportsvc

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
)

func TestExcelExporter_Filename(t *testing.T) {
	x := NewExcelExporter()

	assert.Equal(t, "CS101_Attendance_Report.xlsx", x.Filename(school.Class{Name: "CS101"}))
	assert.Equal(t,
		"Data_Structures_II_Attendance_Report.xlsx",
		x.Filename(school.Class{Name: "Data  Structures\tII"}),
	)
}

func Test_sheetName(t *testing.T) {
	assert.Equal(t, "CS101 Attendance", sheetName("CS101"))

	long := sheetName(strings.Repeat("Advanced Databases ", 3))
	assert.Len(t, long, sheetNameLimit)

	// multibyte names truncate on runes, never mid-character
	accented := sheetName(strings.Repeat("Électronique ", 4))
	assert.True(t, utf8.ValidString(accented))
	assert.Len(t, []rune(accented), sheetNameLimit)
}

func TestExcelExporter_Export(t *testing.T) {
	x := NewExcelExporter()

	cls := school.Class{ID: "c1", Name: "CS101"}
	alice := school.Student{ID: "s1", Name: "Alice", RollNo: "CS101_001", RegistrationNo: "REG001"}
	bob := school.Student{ID: "s2", Name: "Bob", RollNo: "CS101_002"}
	matrix := attendance.Matrix{
		Dates: []string{"2026-03-02", "2026-03-04"},
		Rows: []attendance.MatrixRow{
			{
				Student:      alice,
				Statuses:     []attendance.Status{attendance.StatusPresent, attendance.StatusPresent},
				TotalPresent: 2,
				Percentage:   100,
			},
			{
				Student:      bob,
				Statuses:     []attendance.Status{attendance.StatusAbsent, attendance.StatusNotRecorded},
				TotalPresent: 0,
				Percentage:   0,
			},
		},
	}

	data, err := x.Export(cls, matrix)
	assert.NoError(t, err)
	assert.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("opening workbook failed: %v", err)
	}
	defer f.Close()

	sheet := "CS101 Attendance"
	assert.Equal(t, []string{sheet}, f.GetSheetList())

	cell := func(ref string) string {
		val, err := f.GetCellValue(sheet, ref)
		if err != nil {
			t.Fatalf("reading %s failed: %v", ref, err)
		}
		return val
	}

	// header row: fixed columns, one per date, then the totals
	assert.Equal(t, "Roll No", cell("A1"))
	assert.Equal(t, "Student Name", cell("B1"))
	assert.Equal(t, "Registration No", cell("C1"))
	assert.Equal(t, "02/03/2026", cell("D1"))
	assert.Equal(t, "04/03/2026", cell("E1"))
	assert.Equal(t, "Total Present", cell("F1"))
	assert.Equal(t, "Percentage", cell("G1"))

	assert.Equal(t, "CS101_001", cell("A2"))
	assert.Equal(t, "Alice", cell("B2"))
	assert.Equal(t, "REG001", cell("C2"))
	assert.Equal(t, "Present", cell("D2"))
	assert.Equal(t, "Present", cell("E2"))
	assert.Equal(t, "2", cell("F2"))
	assert.Equal(t, "100.00%", cell("G2"))

	assert.Equal(t, "N/A", cell("C3")) // no registration number
	assert.Equal(t, "Absent", cell("D3"))
	assert.Equal(t, "N/A", cell("E3"))
	assert.Equal(t, "0", cell("F3"))
	assert.Equal(t, "0.00%", cell("G3"))
}

func TestExcelExporter_Export_noDates(t *testing.T) {
	x := NewExcelExporter()

	cls := school.Class{ID: "c1", Name: "CS101"}
	matrix := attendance.Matrix{
		Rows: []attendance.MatrixRow{
			{Student: school.Student{ID: "s1", Name: "Alice", RollNo: "CS101_001"}, Statuses: []attendance.Status{}},
		},
	}

	data, err := x.Export(cls, matrix)
	assert.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("opening workbook failed: %v", err)
	}
	defer f.Close()

	sheet := "CS101 Attendance"
	assert.Equal(t, "Total Present", mustCell(t, f, sheet, "D1"))
	assert.Equal(t, "Percentage", mustCell(t, f, sheet, "E1"))
	assert.Equal(t, "N/A", mustCell(t, f, sheet, "E2")) // no recorded days, no ratio
}

func TestExcelExporter_Export_multibyteClassName(t *testing.T) {
	x := NewExcelExporter()

	cls := school.Class{ID: "c1", Name: strings.Repeat("Électronique ", 4)}
	data, err := x.Export(cls, attendance.Matrix{})
	assert.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("opening workbook failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Len(t, sheets, 1)
	assert.True(t, utf8.ValidString(sheets[0]))
	assert.Len(t, []rune(sheets[0]), sheetNameLimit)
}

func mustCell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	val, err := f.GetCellValue(sheet, ref)
	if err != nil {
		t.Fatalf("reading %s failed: %v", ref, err)
	}
	return val
}
