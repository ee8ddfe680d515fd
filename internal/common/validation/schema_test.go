package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["group", "slots"],
  "properties": {
    "group": {"type": "string", "minLength": 1},
    "slots": {"type": "integer", "minimum": 0}
  }
}`

func TestSchema_ValidateJSON(t *testing.T) {
	s := MustCompile(testSchema)

	tests := []struct {
		name      string
		document  string
		wantValid bool
		wantField string
	}{
		{name: "valid", document: `{"group":"Bears","slots":3}`, wantValid: true},
		{name: "missing group", document: `{"slots":3}`, wantField: "(root)"},
		{name: "empty group", document: `{"group":"","slots":3}`, wantField: "group"},
		{name: "negative slots", document: `{"group":"Bears","slots":-1}`, wantField: "slots"},
		{name: "malformed", document: `{"group":`, wantField: "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.ValidateJSON([]byte(tt.document))
			assert.Equal(t, tt.wantValid, res.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, tt.wantField, res.Errors[0].Field)
				assert.NotEmpty(t, res.Error())
			}
		})
	}
}

func TestSchema_ValidateDocument(t *testing.T) {
	s := MustCompile(testSchema)

	assert.True(t, s.ValidateDocument(map[string]interface{}{"group": "Owls", "slots": 1}).Valid)
	assert.False(t, s.ValidateDocument(map[string]interface{}{"group": 7}).Valid)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": "nonsense"}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile(`not json`) })
}
