package fetcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadCSV(t *testing.T) {
	input := "\ufefflocality, kind ,feature\n" +
		"5 mi W of Springfield,foh,Springfield\n" +
		" , , \n" +
		"\"Boulder, CO\",f\n"

	tbl, err := ReadCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"locality", "kind", "feature"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"5 mi W of Springfield", "foh", "Springfield"}, tbl.Rows[0])
	assert.Equal(t, []string{"Boulder, CO", "f"}, tbl.Rows[1])
	assert.Equal(t, 1, tbl.Column("KIND"))
	assert.Equal(t, -1, tbl.Column("heading"))
}

func TestReadCSV_TabsAndComments(t *testing.T) {
	input := "# exported 2024-01-01\nlocality\tkind\nSpringfield\tf\n"
	tbl, err := ReadCSV(strings.NewReader(input), CSVOptions{Delimiter: '\t', Comment: '#'})
	require.NoError(t, err)
	assert.Equal(t, []string{"locality", "kind"}, tbl.Header)
	assert.Equal(t, [][]string{{"Springfield", "f"}}, tbl.Rows)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("\n\n"), CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestReadXLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Localities": {
			{"locality", "kind"},
			{"", ""},
			{"Springfield", "f"},
			{"5 mi W of Springfield", "foh"},
		},
	})

	tbl, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"locality", "kind"}, tbl.Header)
	assert.Len(t, tbl.Rows, 2)

	tbl, err = ReadXLSX(path, XLSXOptions{SheetName: "Localities"})
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 2)
}

func TestReadXLSX_Errors(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	_, err := ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	assert.Error(t, err)

	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	assert.Error(t, err)

	_, err = ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	assert.Error(t, err)

	empty := createTestXLSX(t, map[string][][]string{"Sheet1": {}})
	_, err = ReadXLSX(empty, XLSXOptions{})
	assert.Error(t, err)
}

func TestReadTable(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("locality\nSpringfield\n"), 0o644))
	tsvPath := filepath.Join(dir, "in.tsv")
	require.NoError(t, os.WriteFile(tsvPath, []byte("locality\tkind\nSpringfield\tf\n"), 0o644))

	tbl, err := ReadTable(csvPath)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Springfield"}}, tbl.Rows)

	tbl, err = ReadTable(tsvPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"locality", "kind"}, tbl.Header)

	xlsxPath := createTestXLSX(t, map[string][][]string{"Sheet1": {{"locality"}, {"Springfield"}}})
	tbl, err = ReadTable(xlsxPath)
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)

	_, err = ReadTable(filepath.Join(dir, "in.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported table format")
}
