package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuscrm/backoffice/internal/domain"
	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/errors"
	"github.com/nexuscrm/backoffice/pkg/models"
)

func formFields() []models.FieldSchema {
	maxLen := 5
	return []models.FieldSchema{
		{ID: "w_name", Name: "name", Label: "Name", Type: constants.FieldTypeText, IsActive: true, IsDefault: true,
			Validation: models.FieldValidation{Required: true, MaxLength: &maxLen}},
		{ID: "w_email", Name: "email", Label: "Email", Type: constants.FieldTypeEmail, IsActive: true, IsDefault: true},
		{ID: "w_rate", Name: "rate", Label: "Rate", Type: constants.FieldTypeCurrency, IsActive: true, IsDefault: true},
		{ID: "w_remote", Name: "remote", Label: "Remote", Type: constants.FieldTypeCheckbox, IsActive: true, IsDefault: false},
		{ID: "w_skills", Name: "skills", Label: "Skills", Type: constants.FieldTypeMultiSelect, IsActive: true, IsDefault: false,
			Options: []models.FieldOption{{Value: "go", Label: "Go"}, {Value: "sql", Label: "SQL"}}},
		{ID: "w_level", Name: "level", Label: "Level", Type: constants.FieldTypeSelect, IsActive: true, IsDefault: true,
			Options: []models.FieldOption{{Value: "jr"}, {Value: "sr"}}, DefaultValue: "jr"},
		{ID: "w_avail", Name: "availability", Label: "Availability", Type: constants.FieldTypeDictionary, IsActive: true, IsDefault: false,
			Options: []models.FieldOption{{Value: "mon", Label: "Monday"}, {Value: "tue", Label: "Tuesday"}}},
		{ID: "w_old", Name: "old", Label: "Old", Type: constants.FieldTypeText, IsActive: false, IsDefault: true},
	}
}

func controlByName(controls []FormControl, name string) (FormControl, bool) {
	for _, c := range controls {
		if c.Name == name {
			return c, true
		}
	}
	return FormControl{}, false
}

func TestFormEngine_DictionaryExpansion(t *testing.T) {
	engine := NewFormEngine(nil)
	dict := models.FieldSchema{ID: "f", Name: "field", Type: constants.FieldTypeDictionary, IsActive: true,
		Options: []models.FieldOption{{Value: "mon"}, {Value: "tue"}}}

	form := engine.BuildForm("workers", []models.FieldSchema{dict}, nil, nil, constants.FormModeCreate)
	require.Len(t, form.Controls, 2)
	assert.Equal(t, "field_mon", form.Controls[0].Name)
	assert.Equal(t, "field_tue", form.Controls[1].Name)
	assert.Equal(t, "", form.Controls[0].Value)
	assert.Equal(t, "", form.Controls[1].Value)

	payload := ReconstructPayload(form.Fields, map[string]interface{}{"field_mon": "x", "field_tue": "y"})
	assert.Equal(t, map[string]interface{}{"mon": "x", "tue": "y"}, payload.CustomFields["field"])
	assert.Empty(t, payload.DefaultFields)
}

func TestFormEngine_InitialValues(t *testing.T) {
	engine := NewFormEngine(nil)
	form := engine.BuildForm("workers", formFields(), nil, nil, constants.FormModeCreate)

	want := map[string]interface{}{
		"name":             "",
		"email":            "",
		"rate":             nil,
		"remote":           false,
		"skills":           []interface{}{},
		"level":            "jr",
		"availability_mon": "",
		"availability_tue": "",
	}
	assert.Equal(t, want, form.Values())

	_, inactive := controlByName(form.Controls, "old")
	assert.False(t, inactive, "inactive fields never become controls")
}

func TestFormEngine_InitialValuesFromRecord(t *testing.T) {
	record := models.Record{
		"id":    "r1",
		"name":  "Ana",
		"level": "sr",
		"customFields": map[string]interface{}{
			"remote":       true,
			"availability": map[string]interface{}{"tue": "9-13"},
		},
	}

	form := NewFormEngine(nil).BuildForm("workers", formFields(), nil, record, constants.FormModeEdit)
	values := form.Values()
	assert.Equal(t, "r1", form.RecordID)
	assert.Equal(t, "Ana", values["name"])
	assert.Equal(t, "sr", values["level"])
	assert.Equal(t, true, values["remote"])
	assert.Equal(t, "", values["availability_mon"])
	assert.Equal(t, "9-13", values["availability_tue"])
}

func TestFormEngine_EmptyStringDefaultFallsThrough(t *testing.T) {
	f := models.FieldSchema{Name: "n", Type: constants.FieldTypeNumber, DefaultValue: ""}
	assert.Nil(t, InitialValue(f, nil))

	f.DefaultValue = 0
	assert.Equal(t, 0, InitialValue(f, nil))
}

func TestFormEngine_RoundTrip(t *testing.T) {
	record := models.Record{
		"id":    "r1",
		"name":  "Ana",
		"email": "ana@example.com",
		"rate":  42.5,
		"level": "sr",
		"customFields": map[string]interface{}{
			"remote": true,
			"skills": []interface{}{"go"},
		},
	}
	fields := formFields()
	form := NewFormEngine(nil).BuildForm("workers", fields, nil, record, constants.FormModeEdit)

	payload := ReconstructPayload(form.Fields, form.Values())
	for _, f := range form.Fields {
		if f.Type == constants.FieldTypeDictionary {
			continue
		}
		want, _ := record.Lookup(f.Name)
		var got interface{}
		if f.IsDefault {
			got = payload.DefaultFields[f.Name]
		} else {
			got = payload.CustomFields[f.Name]
		}
		assert.Equal(t, want, got, f.Name)
	}

	updated := ApplyPayload(record, payload)
	assert.Equal(t, "r1", updated.ID())
	assert.Equal(t, record["name"], updated["name"])
	assert.Equal(t, true, updated.CustomFields()["remote"])
}

func TestFormEngine_LayoutRestrictsFields(t *testing.T) {
	engine := NewFormEngine(nil)
	layout := &models.FormLayoutConfig{
		Columns: 2,
		Fields: map[string]models.LayoutPosition{
			"w_email":   {Row: 1, Col: 0, ColSpan: 2},
			"w_name":    {Row: 0, Col: 1, ColSpan: 1},
			"w_rate":    {Row: 0, Col: 0, ColSpan: 1},
			"w_missing": {Row: 2, Col: 0, ColSpan: 1},
		},
	}

	form := engine.BuildForm("workers", formFields(), layout, nil, constants.FormModeCreate)
	assert.Equal(t, []string{"name", "email", "rate"}, fieldNames(form.Fields))
	assert.Len(t, form.Controls, 3)

	geo := form.Geometry
	assert.Equal(t, 2, geo.Columns)
	require.Len(t, geo.Rows, 2)
	assert.Equal(t, []LayoutCell{{FieldID: "w_rate", Col: 0, ColSpan: 1}, {FieldID: "w_name", Col: 1, ColSpan: 1}}, geo.Rows[0].Cells)
	assert.Equal(t, []LayoutCell{{FieldID: "w_email", Col: 0, ColSpan: 2}}, geo.Rows[1].Cells)
	assert.Empty(t, geo.Fallback)
}

func TestResolveGeometry_Fallback(t *testing.T) {
	fields := formFields()[:3]

	geo := ResolveGeometry(fields, nil)
	assert.Empty(t, geo.Rows)
	assert.Equal(t, []string{"w_name", "w_email", "w_rate"}, geo.Fallback)

	// Overlapping cells coexist in field order
	geo = ResolveGeometry(fields, &models.FormLayoutConfig{Columns: 2, Fields: map[string]models.LayoutPosition{
		"w_name":  {Row: 0, Col: 0},
		"w_email": {Row: 0, Col: 0},
	}})
	require.Len(t, geo.Rows, 1)
	assert.Equal(t, "w_name", geo.Rows[0].Cells[0].FieldID)
	assert.Equal(t, "w_email", geo.Rows[0].Cells[1].FieldID)
	assert.Equal(t, 1, geo.Rows[0].Cells[0].ColSpan)
	assert.Equal(t, []string{"w_rate"}, geo.Fallback)
}

func TestFormEngine_Validate(t *testing.T) {
	engine := NewFormEngine(nil)
	fields := formFields()
	fields[6].Validation.Required = true

	errs := engine.Validate(fields, map[string]interface{}{
		"name":             "too long name",
		"email":            "not-an-email",
		"availability_mon": "x",
		"availability_tue": "",
	})
	require.NotNil(t, errs)
	assert.Equal(t, map[string]bool{"maxlength": true}, errs["name"])
	assert.Equal(t, map[string]bool{"email": true}, errs["email"])
	assert.Equal(t, map[string]bool{"required": true}, errs["availability_tue"])
	assert.NotContains(t, errs, "availability_mon")
	assert.NotContains(t, errs, "rate", "empty optional values pass")

	ok := engine.Validate(fields, map[string]interface{}{
		"name": "Ana", "email": "ana@example.com", "availability_mon": "x", "availability_tue": "y",
	})
	assert.Nil(t, ok)
}

func TestFormSession_Lifecycle(t *testing.T) {
	ctx := context.Background()
	engine := NewFormEngine(nil)
	s := NewFormSession(engine)
	assert.Equal(t, domain.FormStateLoading, s.State())

	require.NoError(t, s.Load(engine.BuildForm("workers", formFields()[:2], nil, nil, constants.FormModeCreate)))
	assert.Equal(t, domain.FormStateReady, s.State())

	saves := 0
	save := func(_ context.Context, p FormPayload) (models.Record, error) {
		saves++
		if saves == 1 {
			return nil, fmt.Errorf("write rejected")
		}
		return ApplyPayload(models.Record{"id": "new"}, p), nil
	}

	// Required name is empty: never reaches save
	_, err := s.Submit(ctx, save)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, domain.FormStateEditing, s.State())
	assert.Equal(t, 0, saves)

	require.NoError(t, s.SetValue("name", "Ana"))
	assert.Error(t, s.SetValue("unknown", "x"))

	_, err = s.Submit(ctx, save)
	require.Error(t, err)
	assert.Equal(t, domain.FormStateError, s.State())
	assert.EqualError(t, s.Err(), "write rejected")

	require.NoError(t, s.Retry())
	assert.Equal(t, domain.FormStateReady, s.State())

	record, err := s.Submit(ctx, save)
	require.NoError(t, err)
	assert.Equal(t, domain.FormStateSaved, s.State())
	assert.Equal(t, "Ana", record["name"])
	assert.Equal(t, record, s.Saved())
}

func TestFormSession_ViewMode(t *testing.T) {
	engine := NewFormEngine(nil)
	s := NewFormSession(engine)
	record := models.Record{"id": "r1", "name": ""}
	form := engine.BuildForm("workers", formFields(), nil, record, constants.FormModeView)
	for _, c := range form.Controls {
		assert.True(t, c.Disabled, c.Name)
	}
	require.NoError(t, s.Load(form))

	assert.Nil(t, s.Validate(), "view mode skips validation")
	assert.True(t, errors.IsValidation(s.SetValue("name", "x")))

	_, err := s.Submit(context.Background(), func(context.Context, FormPayload) (models.Record, error) {
		t.Fatal("view forms must not save")
		return nil, nil
	})
	assert.Error(t, err)
	assert.Equal(t, domain.FormStateReady, s.State())
}

func TestFormSession_LoadFailed(t *testing.T) {
	s := NewFormSession(NewFormEngine(nil))
	require.NoError(t, s.LoadFailed(fmt.Errorf("config unavailable")))
	assert.Equal(t, domain.FormStateError, s.State())
	require.NoError(t, s.Retry())
	assert.Equal(t, domain.FormStateReady, s.State())
}
