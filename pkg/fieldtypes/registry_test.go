package fieldtypes

import (
	"testing"

	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CoversAllFieldTypes(t *testing.T) {
	reg := GetRegistry()
	for _, name := range constants.GetAllFieldTypes() {
		def, ok := reg.Get(constants.SchemaFieldType(name))
		require.True(t, ok, "missing definition for %s", name)
		assert.NotEmpty(t, def.Label)
		assert.Equal(t, constants.HasOptions(constants.SchemaFieldType(name)), def.HasOptions, name)
	}
}

func TestRegistry_CategoryOf(t *testing.T) {
	tests := []struct {
		typ  constants.SchemaFieldType
		want Category
	}{
		{constants.FieldTypeNumber, CategoryNumber},
		{constants.FieldTypeCurrency, CategoryNumber},
		{constants.FieldTypeDate, CategoryDate},
		{constants.FieldTypeDateTime, CategoryDate},
		{constants.FieldTypeCheckbox, CategoryBoolean},
		{constants.FieldTypeSelect, CategoryString},
		{constants.SchemaFieldType("unknown"), CategoryString},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryOf(tt.typ), string(tt.typ))
	}
}

func TestRegistry_ImpliedValidator(t *testing.T) {
	reg := GetRegistry()
	assert.Equal(t, "email", reg.ImpliedValidator(constants.FieldTypeEmail))
	assert.Equal(t, "url", reg.ImpliedValidator(constants.FieldTypeURL))
	assert.Empty(t, reg.ImpliedValidator(constants.FieldTypeText))
}

func TestTypeDefault(t *testing.T) {
	assert.Equal(t, false, TypeDefault(constants.FieldTypeCheckbox))
	assert.Nil(t, TypeDefault(constants.FieldTypeNumber))
	assert.Nil(t, TypeDefault(constants.FieldTypeCurrency))
	assert.Equal(t, []interface{}{}, TypeDefault(constants.FieldTypeMultiSelect))
	assert.Equal(t, "", TypeDefault(constants.FieldTypeText))
}

func TestRegistry_IsSearchable(t *testing.T) {
	assert.True(t, IsSearchable(constants.FieldTypeText))
	assert.True(t, IsSearchable(constants.FieldTypeMultiSelect))
	assert.True(t, IsSearchable(constants.FieldTypeNumber))
	assert.False(t, IsSearchable(constants.FieldTypeDictionary))
	assert.False(t, IsSearchable(constants.FieldTypeCheckbox))
	assert.False(t, IsSearchable(constants.SchemaFieldType("unknown")))
}
