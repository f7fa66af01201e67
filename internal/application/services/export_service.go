package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/nexuscrm/backoffice/internal/infrastructure/metrics"
	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/errors"
	"github.com/nexuscrm/backoffice/pkg/fieldtypes"
	"github.com/nexuscrm/backoffice/pkg/logging"
	"github.com/nexuscrm/backoffice/pkg/models"
	"github.com/nexuscrm/backoffice/pkg/utils"
)

// NothingToExport is the message of an empty export
const NothingToExport = "nothing to export"

const exportSheet = "Export"

// ExportResult is a serialized export. Empty exports carry no data and a
// message for the user.
type ExportResult struct {
	Empty       bool                   `json:"empty"`
	Message     string                 `json:"message,omitempty"`
	Format      constants.ExportFormat `json:"format"`
	ContentType string                 `json:"contentType,omitempty"`
	Filename    string                 `json:"filename,omitempty"`
	Data        []byte                 `json:"-"`
}

func emptyExport(format constants.ExportFormat) *ExportResult {
	return &ExportResult{Empty: true, Message: NothingToExport, Format: format}
}

// ExportService serializes record lists
type ExportService struct {
	now func() time.Time
	log *logrus.Entry
}

// NewExportService creates an export service
func NewExportService() *ExportService {
	return &ExportService{
		now: time.Now,
		log: logging.For("export"),
	}
}

// Export serializes records in format. fields are the visible columns used
// by the tabular formats.
func (s *ExportService) Export(module string, format constants.ExportFormat, records []models.Record, fields []models.FieldSchema) (*ExportResult, error) {
	var (
		result *ExportResult
		err    error
	)
	switch format {
	case constants.ExportFormatCSV, "":
		result, err = s.ExportToCSV(records, fields)
	case constants.ExportFormatJSON:
		result, err = s.ExportToJSON(records)
	case constants.ExportFormatXLSX:
		result, err = s.ExportToXLSX(records, fields)
	default:
		return nil, errors.NewValidationError("format", fmt.Sprintf("unsupported export format '%s'", format))
	}

	metrics.RecordExport(module, string(format), result != nil && result.Empty, err)
	if err != nil {
		s.log.WithError(err).WithField("module", module).Error("❌ Export failed")
		return nil, err
	}
	if !result.Empty {
		result.Filename = fmt.Sprintf("%s-%s.%s", module, s.now().Format("20060102-150405"), result.Format)
		s.log.WithFields(logrus.Fields{"module": module, "format": result.Format, "records": len(records)}).Info("📤 Export ready")
	}
	return result, nil
}

// ExportToCSV writes a header of field labels and one formatted row per
// record
func (s *ExportService) ExportToCSV(records []models.Record, fields []models.FieldSchema) (*ExportResult, error) {
	if len(records) == 0 {
		return emptyExport(constants.ExportFormatCSV), nil
	}

	lines := make([]string, 0, len(records)+1)
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = csvQuote(f.Label)
	}
	lines = append(lines, strings.Join(header, ","))

	for _, r := range records {
		cells := make([]string, len(fields))
		for i, f := range fields {
			v, _ := r.Lookup(f.Name)
			cells[i] = csvQuote(FormatValue(f, v))
		}
		lines = append(lines, strings.Join(cells, ","))
	}

	return &ExportResult{
		Format:      constants.ExportFormatCSV,
		ContentType: constants.ContentTypeCSV,
		Data:        []byte(strings.Join(lines, "\n")),
	}, nil
}

// csvQuote wraps values containing a comma, a quote or a line break in
// double quotes, doubling inner quotes
func csvQuote(v string) string {
	if !strings.ContainsAny(v, ",\"\r\n") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// ExportToJSON writes the records as an indented JSON array
func (s *ExportService) ExportToJSON(records []models.Record) (*ExportResult, error) {
	if len(records) == 0 {
		return emptyExport(constants.ExportFormatJSON), nil
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, errors.NewInternalError("failed to encode export", err)
	}
	return &ExportResult{
		Format:      constants.ExportFormatJSON,
		ContentType: constants.ContentTypeJSON,
		Data:        data,
	}, nil
}

// ExportToXLSX writes a single-sheet workbook. Number and currency cells
// stay numeric; everything else is written as formatted text.
func (s *ExportService) ExportToXLSX(records []models.Record, fields []models.FieldSchema) (*ExportResult, error) {
	if len(records) == 0 {
		return emptyExport(constants.ExportFormatXLSX), nil
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.WithError(err).Warn("⚠️ Failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, errors.NewInternalError("failed to prepare workbook", err)
	}

	header := make([]interface{}, len(fields))
	for i, field := range fields {
		header[i] = field.Label
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, errors.NewInternalError("failed to write header", err)
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(exportSheet, 1, 1, bold)
	}

	for i, r := range records {
		row := make([]interface{}, len(fields))
		for j, field := range fields {
			v, _ := r.Lookup(field.Name)
			row[j] = xlsxValue(field, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.NewInternalError("failed to address row", err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, errors.NewInternalError("failed to write row", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.NewInternalError("failed to encode workbook", err)
	}
	return &ExportResult{
		Format:      constants.ExportFormatXLSX,
		ContentType: constants.ContentTypeXLSX,
		Data:        buf.Bytes(),
	}, nil
}

func xlsxValue(field models.FieldSchema, v interface{}) interface{} {
	if v != nil && fieldtypes.CategoryOf(field.Type) == fieldtypes.CategoryNumber {
		if n, ok := utils.ToFloat(v); ok {
			return n
		}
	}
	return FormatValue(field, v)
}
