package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Username string `json:"username" validate:"required,max=5"`
	Password string `json:"password" validate:"required"`
}

func TestCustomValidator(t *testing.T) {
	cv := New()

	assert.NoError(t, cv.Validate(&sample{Username: "bob", Password: "pw"}))

	err := cv.Validate(&sample{Username: "toolong"})
	require.Error(t, err)
	assert.ElementsMatch(t, []FieldError{
		{Field: "username", Rule: "max"},
		{Field: "password", Rule: "required"},
	}, Details(err))
}

func TestDetails_NonValidationError(t *testing.T) {
	assert.Nil(t, Details(assert.AnError))
}

func TestCustomValidator_MaxBytesCountsBytes(t *testing.T) {
	type secret struct {
		Password string `json:"password" validate:"maxbytes=6"`
	}
	cv := New()

	assert.NoError(t, cv.Validate(&secret{Password: strings.Repeat("é", 3)}))

	// Four runes would pass max=6, but they are eight bytes.
	err := cv.Validate(&secret{Password: strings.Repeat("é", 4)})
	require.Error(t, err)
	assert.Equal(t, []FieldError{{Field: "password", Rule: "maxbytes"}}, Details(err))
}
