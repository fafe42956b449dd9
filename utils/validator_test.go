package utils

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	CustomerID string `json:"customer_id,omitempty" validate:"required"`
	Internal   string `json:"-" validate:"required"`
	Plain      string `validate:"required"`
}

func TestNewValidatorUsesJSONNames(t *testing.T) {
	err := NewValidator().Struct(sample{})

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	var fields []string
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	assert.Equal(t, []string{"customer_id", "Internal", "Plain"}, fields)
}
