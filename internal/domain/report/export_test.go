package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
)

func TestWritePaymentsCSV(t *testing.T) {
	seed := ledger.Seed()

	var buf bytes.Buffer
	require.NoError(t, WritePaymentsCSV(&buf, seed.Loans, seed.Services))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 11)

	assert.Equal(t, []string{
		"month", "date", "kind", "source_id", "name", "account", "method",
		"installment", "amount", "currency", "uyu_amount", "status",
	}, records[0])

	assert.Equal(t, []string{
		"2024-12", "10/12/2024", "service", "chatgpt", "ChatGPT Plus", "2477", "Débito 2477",
		"", "20.00", "USD", "933.00", "paid",
	}, records[1])

	last := records[len(records)-1]
	assert.Equal(t, "loan", last[2])
	assert.Equal(t, "3", last[3])
	assert.Equal(t, "1", last[7])
	assert.Equal(t, "1916.39", last[8])
	assert.Equal(t, last[8], last[10])
}

func TestWritePaymentsCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePaymentsCSV(&buf, nil, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestWriteSummaryXLSX(t *testing.T) {
	seed := ledger.Seed()
	asOf := ledger.Date(2025, time.January, 10)

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryXLSX(&buf, seed, asOf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Resumen", "Préstamos", "Servicios", "Pagos"}, f.GetSheetList())

	summary, err := f.GetRows("Resumen")
	require.NoError(t, err)
	require.Len(t, summary, 7)
	assert.Equal(t, []string{"Fecha de referencia", "10/01/2025"}, summary[1])
	assert.Equal(t, []string{"Préstamos activos", "4"}, summary[2])

	loans, err := f.GetRows("Préstamos")
	require.NoError(t, err)
	require.Len(t, loans, len(seed.Loans)+1)
	assert.Equal(t, "BROU Dentista", loans[3][1])
	assert.Equal(t, "03/01/2025", loans[3][7])

	services, err := f.GetRows("Servicios")
	require.NoError(t, err)
	require.Len(t, services, len(seed.Services)+1)
	assert.Equal(t, "USD", services[1][3])

	months, err := f.GetRows("Pagos")
	require.NoError(t, err)
	require.Len(t, months, 4)
	assert.Equal(t, []string{"2024-12", "5", "9109.72"}, months[1])

	style, err := f.GetCellStyle("Pagos", "A1")
	require.NoError(t, err)
	assert.NotZero(t, style)
}
