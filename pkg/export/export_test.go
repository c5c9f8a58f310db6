package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Time", "Mon", "Tue"},
		Rows: []map[string]string{
			{"Time": "08:00", "Mon": "FIT1045 Lecture", "Tue": ""},
			{"Time": "08:30", "Mon": "FIT1045 Lecture", "Tue": "MAT1830, 01"},
		},
		Fills: []map[string]RGB{
			{"Mon": {R: 200, G: 40, B: 40}},
			nil,
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Time,Mon,Tue\n08:00,FIT1045 Lecture,\n08:30,FIT1045 Lecture,\"MAT1830, 01\"\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Timetable #1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestDatasetFillLookup(t *testing.T) {
	data := sampleDataset()
	c, ok := data.fill(0, "Mon")
	assert.True(t, ok)
	assert.Equal(t, RGB{R: 200, G: 40, B: 40}, c)
	_, ok = data.fill(1, "Mon")
	assert.False(t, ok)
	_, ok = data.fill(5, "Mon")
	assert.False(t, ok)
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths(6)
	assert.Equal(t, labelColumn, widths[0])
	total := 0.0
	for _, w := range widths {
		total += w
	}
	assert.InDelta(t, pageWidth, total, 1e-9)
	assert.Equal(t, []float64{pageWidth}, columnWidths(1))
}
