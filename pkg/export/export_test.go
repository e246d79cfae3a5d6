package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	testHeaders = []string{"ID", "Employee Name (AR)", "Status"}
	testRecords = [][]string{
		{"1", "أحمد محمد", "COMPLETED"},
		{"2", "سارة علي", "IN_PROCESS"},
	}
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testHeaders, testRecords))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, utf8BOM), "output must start with a UTF-8 BOM")

	reader := csv.NewReader(strings.NewReader(string(raw[len(utf8BOM):])))
	rows, err := reader.ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, testHeaders, rows[0])
	assert.Equal(t, "أحمد محمد", rows[1][1])
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, testHeaders, testRecords))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, testHeaders, rows[0])
	assert.Equal(t, "سارة علي", rows[2][1])
}

func TestWriteCSV_NoRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testHeaders, nil))

	reader := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):]))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
