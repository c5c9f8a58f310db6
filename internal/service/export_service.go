package service

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/mcpower/monash-timetabler/internal/models"
	appErrors "github.com/mcpower/monash-timetabler/pkg/errors"
	"github.com/mcpower/monash-timetabler/pkg/export"
)

// Supported export formats.
const (
	ExportFormatPDF = "pdf"
	ExportFormatCSV = "csv"
)

// TimetableView is everything needed to render one timetable.
type TimetableView struct {
	Title     string
	Timetable models.Timetable
	Palette   models.Palette
}

// ExportedFile is a rendered timetable ready to be sent to a client or written to disk.
type ExportedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService turns timetable grids into CSV or PDF documents.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to pkg/export.
func NewExportService(logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger}
}

// Export renders view in the requested format.
func (s *ExportService) Export(view TimetableView, format string) (*ExportedFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatPDF
	}
	dataset := TimetableDataset(view)

	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, view.Title)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("timetable export failed", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return &ExportedFile{
		Filename:    fmt.Sprintf("%s.%s", sanitizeFilename(view.Title), format),
		ContentType: contentType,
		Data:        payload,
	}, nil
}

// TimetableDataset lays the grid out with one row per half-hour block and one column per day.
func TimetableDataset(view TimetableView) export.Dataset {
	headers := append([]string{"Time"}, models.DayNames[:]...)
	rows := make([]map[string]string, models.BlocksPerDay)
	fills := make([]map[string]export.RGB, models.BlocksPerDay)
	for block := 0; block < models.BlocksPerDay; block++ {
		row := map[string]string{"Time": models.BlockLabel(block)}
		for day := 0; day < models.Days; day++ {
			cell := view.Timetable[day][block]
			if !cell.Occupied {
				row[models.DayNames[day]] = ""
				continue
			}
			row[models.DayNames[day]] = fmt.Sprintf("%s %s", cell.Group.Subject, cell.Group.Group)
			if fills[block] == nil {
				fills[block] = make(map[string]export.RGB)
			}
			fills[block][models.DayNames[day]] = groupColour(view.Palette, cell.Group)
		}
		rows[block] = row
	}
	return export.Dataset{Headers: headers, Rows: rows, Fills: fills}
}

// groupColour maps a palette value onto HSL lightness, keeping even the darkest groups
// readable under black text.
func groupColour(p models.Palette, id models.GroupID) export.RGB {
	hue := float64(p.SubjectHues[id.Subject])
	value, ok := p.GroupValues[id.Group]
	if !ok {
		value = fewChoicesValue
	}
	lightness := 0.35 + float64(value)/100*0.7
	return hslToRGB(hue, 0.6, lightness)
}

func hslToRGB(h, s, l float64) export.RGB {
	c := (1 - math.Abs(2*l-1)) * s
	hp := math.Mod(h, 360) / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	scale := func(v float64) int { return int(math.Round((v + m) * 255)) }
	return export.RGB{R: scale(r), G: scale(g), B: scale(b)}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "timetable"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "#", "", "..", ".", "__", "_")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
