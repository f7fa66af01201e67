package services

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/errors"
	"github.com/nexuscrm/backoffice/pkg/models"
)

func exportFields() []models.FieldSchema {
	return []models.FieldSchema{
		{Name: "name", Label: "Name", Type: constants.FieldTypeText},
		{Name: "amount", Label: "Amount, EUR", Type: constants.FieldTypeCurrency},
		{Name: "paid", Label: "Paid", Type: constants.FieldTypeCheckbox},
		{Name: "status", Label: "Status", Type: constants.FieldTypeSelect,
			Options: []models.FieldOption{{Value: "open", Label: "Open"}}},
	}
}

func exportRecords() []models.Record {
	return []models.Record{
		{"id": "1", "name": `ACME "Intl", Ltd`, "amount": 1200, "paid": true, "status": "open"},
		{"id": "2", "name": "Bolt", "amount": "99.5", "customFields": map[string]interface{}{"status": "closed"}},
	}
}

func TestExportService_EmptyInput(t *testing.T) {
	s := NewExportService()

	for _, format := range []constants.ExportFormat{constants.ExportFormatCSV, constants.ExportFormatJSON, constants.ExportFormatXLSX} {
		result, err := s.Export("clients", format, nil, exportFields())
		require.NoError(t, err, format)
		assert.True(t, result.Empty)
		assert.Equal(t, NothingToExport, result.Message)
		assert.Empty(t, result.Data)
		assert.Empty(t, result.Filename)
	}

	result, err := s.ExportToCSV([]models.Record{}, exportFields())
	require.NoError(t, err)
	assert.True(t, result.Empty)

	result, err = s.ExportToJSON([]models.Record{})
	require.NoError(t, err)
	assert.True(t, result.Empty)
}

func TestExportService_CSV(t *testing.T) {
	result, err := NewExportService().ExportToCSV(exportRecords(), exportFields())
	require.NoError(t, err)

	lines := strings.Split(string(result.Data), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `Name,"Amount, EUR",Paid,Status`, lines[0])
	assert.Equal(t, `"ACME ""Intl"", Ltd",1200.00,Yes,Open`, lines[1])
	assert.Equal(t, `Bolt,99.50,,closed`, lines[2])
	assert.Equal(t, constants.ContentTypeCSV, result.ContentType)
}

func TestExportService_JSON(t *testing.T) {
	records := exportRecords()
	result, err := NewExportService().ExportToJSON(records)
	require.NoError(t, err)

	assert.Contains(t, string(result.Data), "\n  {")
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(result.Data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Bolt", decoded[1]["name"])
	assert.Equal(t, "closed", decoded[1]["customFields"].(map[string]interface{})["status"])
}

func TestExportService_XLSX(t *testing.T) {
	result, err := NewExportService().ExportToXLSX(exportRecords(), exportFields())
	require.NoError(t, err)
	assert.Equal(t, constants.ContentTypeXLSX, result.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Amount, EUR", "Paid", "Status"}, rows[0])
	assert.Equal(t, "1200", rows[1][1])
	assert.Equal(t, "Yes", rows[1][2])
}

func TestExportService_ExportNamesFile(t *testing.T) {
	s := NewExportService()
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }

	result, err := s.Export("clients", constants.ExportFormatJSON, exportRecords(), nil)
	require.NoError(t, err)
	assert.Equal(t, "clients-20240501-103000.json", result.Filename)

	_, err = s.Export("clients", "pdf", exportRecords(), nil)
	assert.True(t, errors.IsValidation(err))
}

func TestFormatValue(t *testing.T) {
	dict := models.FieldSchema{Type: constants.FieldTypeDictionary,
		Options: []models.FieldOption{{Value: "mon", Label: "Monday"}, {Value: "tue", Label: "Tuesday"}}}
	multi := models.FieldSchema{Type: constants.FieldTypeMultiSelect,
		Options: []models.FieldOption{{Value: "a", Label: "Alpha"}}}

	tests := []struct {
		name  string
		field models.FieldSchema
		value interface{}
		want  string
	}{
		{"nil", models.FieldSchema{Type: constants.FieldTypeText}, nil, ""},
		{"checkbox true", models.FieldSchema{Type: constants.FieldTypeCheckbox}, true, "Yes"},
		{"checkbox false", models.FieldSchema{Type: constants.FieldTypeCheckbox}, "false", "No"},
		{"currency", models.FieldSchema{Type: constants.FieldTypeCurrency}, 3.456, "3.46"},
		{"currency text", models.FieldSchema{Type: constants.FieldTypeCurrency}, "n/a", "n/a"},
		{"number", models.FieldSchema{Type: constants.FieldTypeNumber}, 12.0, "12"},
		{"date", models.FieldSchema{Type: constants.FieldTypeDate}, "2024-03-01T10:00:00Z", "2024-03-01"},
		{"datetime", models.FieldSchema{Type: constants.FieldTypeDateTime}, "2024-03-01T10:05:00Z", "2024-03-01 10:05"},
		{"multiselect", multi, []interface{}{"a", "zz"}, "Alpha; zz"},
		{"dictionary", dict, map[string]interface{}{"mon": "9-13", "tue": ""}, "Monday: 9-13"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.field, tt.value))
		})
	}
}
