package validators

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string `validate:"required"`
	Company string `validate:"required"`
	Email   string `validate:"omitempty,email"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "Acme Corp", Company: "Acme"}))
}

func TestStruct_Missing(t *testing.T) {
	err := Struct(sample{Email: "nope"})
	require.Error(t, err)

	var ve *Error
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "name is required", ve.Fields["name"])
	assert.Equal(t, "company is required", ve.Fields["company"])
	assert.Equal(t, "email must be a valid email address", ve.Fields["email"])
	assert.Equal(t, "company is required; email must be a valid email address; name is required", ve.Error())
}

func TestRequired(t *testing.T) {
	err := Required("id")
	assert.Equal(t, "id is required", err.Error())
}
