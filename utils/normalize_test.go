package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDTO(t *testing.T) {
	dto := struct {
		Name  string
		Phone string
		Qty   int
	}{Name: "  Ravi ", Phone: " 98765 ", Qty: 2}
	NormalizeDTO(&dto)
	assert.Equal(t, "Ravi", dto.Name)
	assert.Equal(t, "98765", dto.Phone)
	assert.Equal(t, 2, dto.Qty)
}

func TestNormalizePtrDTO(t *testing.T) {
	name := "  Kurti  "
	dto := struct {
		Name  *string
		Color *string
	}{Name: &name}
	NormalizePtrDTO(&dto)
	assert.Equal(t, "Kurti", *dto.Name)
	assert.Nil(t, dto.Color)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 10, ParseIntDefault("10", 5))
	assert.Equal(t, 5, ParseIntDefault("-1", 5))
	assert.Equal(t, 5, ParseIntDefault("x", 5))
}
