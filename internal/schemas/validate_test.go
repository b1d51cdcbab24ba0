package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_TitleExpansion(t *testing.T) {
	err := Validate(TitleExpansion, `{
		"primary": ["Machine Learning Engineer", "Data Science Lead"],
		"secondary": ["Data Analyst"],
		"summary": "Broaden to ML roles",
		"reasoning": "Overlapping skills"
	}`)
	assert.NoError(t, err)
}

func TestValidate_MissingField(t *testing.T) {
	err := Validate(TitleExpansion, `{"primary": ["ML Engineer"]}`)
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, TitleExpansion, ve.Schema)
	assert.NotEmpty(t, ve.Errors)
	assert.Contains(t, err.Error(), "secondary")
}

func TestValidate_WrongType(t *testing.T) {
	err := Validate(TitleExpansion, `{"primary": "ML Engineer", "secondary": []}`)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "primary", ve.Errors[0].Field)
}

func TestValidate_EmptyTitle(t *testing.T) {
	err := Validate(TitleExpansion, `{"primary": [""], "secondary": []}`)
	assert.Error(t, err)
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(TitleExpansion, `{"primary": [`)
	require.Error(t, err)

	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing.schema.json", `{}`)

	var le *SchemaLoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "missing.schema.json", le.Path)
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["status"], "properties": {"status": {"type": "string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"status": "ok"}`))

	var ve *ValidationError
	assert.ErrorAs(t, ValidateJSONString(schema, `{}`), &ve)

	var le *SchemaLoadError
	assert.ErrorAs(t, ValidateJSONString(`{"type": 12}`, `{}`), &le)
}
