package sheets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/finnorm-cli/internal/normalize"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadFile_CSV(t *testing.T) {
	p := writeFile(t, "statement.csv", "\ufeffDate,Description,Amount\n2024-01-05,Coffee,\"$1,234.56\"\n,,\n01/15/2024,Rent,(500)\n")
	wb, err := ReadFile(p, Options{})
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	sh := wb.Sheets[0]
	assert.Equal(t, "statement", sh.Name)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, sh.Columns)
	rows, cols := sh.Shape()
	assert.Equal(t, 2, rows, "blank rows are dropped")
	assert.Equal(t, 3, cols)
	assert.Equal(t, normalize.Text("$1,234.56"), sh.Rows[0][2])

	amounts, ok := sh.Column("Amount")
	require.True(t, ok)
	assert.Equal(t, []normalize.RawValue{normalize.Text("$1,234.56"), normalize.Text("(500)")}, amounts)
	_, ok = sh.Column("Nope")
	assert.False(t, ok)
}

func TestReadFile_CSVDelimiterAndShape(t *testing.T) {
	p := writeFile(t, "eu.csv", "Datum;Betrag;;Betrag\n05.01.2024;1.234,56;x\n06.01.2024;-3,50;y;z;extra\n")
	wb, err := ReadFile(p, Options{})
	require.NoError(t, err)
	sh := wb.Sheets[0]
	assert.Equal(t, []string{"Datum", "Betrag", "Unnamed: 2", "Betrag.1"}, sh.Columns)
	assert.Equal(t, normalize.Text("1.234,56"), sh.Rows[0][1])
	assert.True(t, sh.Rows[0][3].IsAbsent(), "short rows are padded")
	assert.Len(t, sh.Rows[1], 4, "long rows are cut to the header")
}

func TestReadFile_TSVAndMaxRows(t *testing.T) {
	p := writeFile(t, "t.tsv", "a\tb\n1\t2\n3\t4\n5\t6\n")
	wb, err := ReadFile(p, Options{MaxRows: 2})
	require.NoError(t, err)
	sh := wb.Sheets[0]
	assert.Equal(t, []string{"a", "b"}, sh.Columns)
	assert.Len(t, sh.Rows, 2)
	assert.True(t, sh.Truncated)
	assert.Len(t, sh.Preview(1), 1)
	assert.Len(t, sh.Preview(10), 2)
}

func TestReadFile_EmptyCSV(t *testing.T) {
	p := writeFile(t, "empty.csv", "")
	wb, err := ReadFile(p, Options{})
	require.NoError(t, err)
	rows, cols := wb.Sheets[0].Shape()
	assert.Zero(t, rows)
	assert.Zero(t, cols)
}

func TestReadFile_Unsupported(t *testing.T) {
	_, err := ReadFile("report.pdf", Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', sniffDelimiter(writeFile(t, "a.csv", "a;b;c\n1;2;3\n")))
	assert.Equal(t, '|', sniffDelimiter(writeFile(t, "b.csv", "a|b\n")))
	assert.Equal(t, ',', sniffDelimiter(writeFile(t, "c.csv", "a,b;c\n")))
	assert.Equal(t, '\t', sniffDelimiter("whatever.TSV"))
	assert.Equal(t, ',', sniffDelimiter(filepath.Join(t.TempDir(), "missing.csv")))
}

func buildWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	set := func(sheet, cell string, v any) {
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
	set("Sheet1", "A1", "Posted")
	set("Sheet1", "B1", "Payee")
	set("Sheet1", "C1", "Amount")
	set("Sheet1", "A2", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	set("Sheet1", "B2", "Grocer")
	set("Sheet1", "C2", 42.5)
	set("Sheet1", "A4", "Q3 2024")
	set("Sheet1", "B4", "Refund")
	set("Sheet1", "C4", "($12.00)")

	_, err := f.NewSheet("Budget")
	require.NoError(t, err)
	set("Budget", "A2", "Category")
	set("Budget", "A3", "Food")

	p := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(p))
	return p
}

func TestReadFile_XLSX(t *testing.T) {
	p := buildWorkbook(t)
	wb, err := ReadFile(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Budget"}, wb.Names())

	sh, err := wb.Sheet("sheet1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Posted", "Payee", "Amount"}, sh.Columns)
	require.Len(t, sh.Rows, 2)
	assert.Equal(t, normalize.DateLiteral("2024-01-01"), sh.Rows[0][0])
	assert.Equal(t, normalize.Text("Grocer"), sh.Rows[0][1])
	assert.Equal(t, normalize.Number("42.5"), sh.Rows[0][2])
	assert.Equal(t, normalize.Text("Q3 2024"), sh.Rows[1][0])
	assert.Equal(t, normalize.Text("($12.00)"), sh.Rows[1][2])

	budget, err := wb.SheetAt(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Category"}, budget.Columns, "leading blank rows are skipped")
	assert.Len(t, budget.Rows, 1)
}

func TestWorkbook_Select(t *testing.T) {
	wb := &Workbook{Path: "/tmp/book.xlsx", Sheets: []*Sheet{{Name: "Jan"}, {Name: "Feb"}}}

	sh, err := wb.Select("", 0)
	require.NoError(t, err)
	assert.Equal(t, "Jan", sh.Name)

	sh, err = wb.Select("", 2)
	require.NoError(t, err)
	assert.Equal(t, "Feb", sh.Name)

	_, err = wb.Select("Mar", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available sheets: Jan, Feb")

	_, err = wb.SheetAt(3)
	assert.Error(t, err)
}

func TestDateFormatCode(t *testing.T) {
	assert.True(t, dateFormatCode("yyyy-mm-dd"))
	assert.True(t, dateFormatCode("[$-409]d-mmm-yy"))
	assert.False(t, dateFormatCode(`#,##0.00 "days"`))
	assert.False(t, dateFormatCode("[Red]0.00"))
	assert.True(t, builtinDateFormat(14))
	assert.False(t, builtinDateFormat(4))
}
