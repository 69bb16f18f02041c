package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewPayload struct {
	Phone   string  `json:"phone" validate:"required,phone10"`
	Overall float64 `json:"overall" validate:"required,rating"`
	Payment float64 `json:"payment" validate:"rating"`
	Role    string  `json:"role" validate:"required,oneof=server bartender"`
	Comment string  `json:"comment" validate:"max=10"`
}

func validPayload() reviewPayload {
	return reviewPayload{Phone: "(555) 123-4567", Overall: 4, Role: "server"}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(validPayload()))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	p := validPayload()
	p.Role = ""
	fields := fieldsOf(t, Validate(p))
	assert.Equal(t, "is required", fields["role"])
}

func TestValidate_Phone10(t *testing.T) {
	tests := []struct {
		phone string
		ok    bool
	}{
		{"5551234567", true},
		{"555-123-4567", true},
		{"+1 555 123 4567", false},
		{"555123456", false},
		{"phone", false},
	}
	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			p := validPayload()
			p.Phone = tt.phone
			err := Validate(p)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, "must contain exactly 10 digits", fieldsOf(t, err)["phone"])
		})
	}
}

func TestValidate_Rating(t *testing.T) {
	p := validPayload()
	p.Payment = 0
	assert.NoError(t, Validate(p), "zero means unset")

	p.Payment = 4.5
	assert.NoError(t, Validate(p))

	p.Payment = 0.5
	assert.Equal(t, "must be between 1 and 5", fieldsOf(t, Validate(p))["payment"])

	p.Payment = 5.5
	assert.Equal(t, "must be between 1 and 5", fieldsOf(t, Validate(p))["payment"])
}

func TestValidate_OneOfAndMax(t *testing.T) {
	p := validPayload()
	p.Role = "chef"
	p.Comment = strings.Repeat("x", 11)
	fields := fieldsOf(t, Validate(p))
	assert.Equal(t, "must be one of: server bartender", fields["role"])
	assert.Equal(t, "must be at most 10 characters", fields["comment"])
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(reviewPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'phone'")
	assert.Contains(t, err.Error(), "is required")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"phone":"5551234567","overall":5,"role":"bartender"}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	var dst reviewPayload
	require.NoError(t, DecodeAndValidate(rec, req, &dst))
	assert.Equal(t, 5.0, dst.Overall)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{not json`))
	rec := httptest.NewRecorder()

	var dst reviewPayload
	err := DecodeAndValidate(rec, req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_ValidationFails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"phone":"123"}`))
	rec := httptest.NewRecorder()

	var dst reviewPayload
	err := DecodeAndValidate(rec, req, &dst)
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "overall")
}

func TestDecodeAndValidate_BodyTooLarge(t *testing.T) {
	big := `{"comment":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	rec := httptest.NewRecorder()

	var dst reviewPayload
	err := DecodeAndValidate(rec, req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
