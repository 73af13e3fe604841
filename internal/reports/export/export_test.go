package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRows() ([]string, [][]interface{}) {
	id := uuid.MustParse("6b1f4a0e-2d5c-4e8f-9a7b-3c2d1e0f4a5b")
	at := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	return []string{"investor_id", "amount", "invested_at"},
		[][]interface{}{{id, int64(600), at}, {"n/a", int64(400), nil}}
}

func TestCSVExporter(t *testing.T) {
	columns, rows := sampleRows()
	var buf bytes.Buffer

	require.NoError(t, NewCSVExporter(&buf, DefaultCSVOptions()).Export(columns, rows))

	assert.Equal(t,
		"investor_id,amount,invested_at\n"+
			"6b1f4a0e-2d5c-4e8f-9a7b-3c2d1e0f4a5b,600,2025-03-01T12:30:00Z\n"+
			"n/a,400,\n",
		buf.String())
}

func TestExcelExporter(t *testing.T) {
	columns, rows := sampleRows()
	opts := DefaultExcelOptions()
	opts.SheetName = "Investments"

	e, err := NewExcelExporter(opts)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, e.Export(&buf, columns, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Investments")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, columns, got[0])
	assert.Equal(t, "6b1f4a0e-2d5c-4e8f-9a7b-3c2d1e0f4a5b", got[1][0])
	assert.Equal(t, "600", got[1][1])
	assert.Equal(t, "400", got[2][1])
}
