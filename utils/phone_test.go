package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("9876543210", "IN")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", got)

	again, err := NormalizePhone("+91 98765 43210", "in")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestNormalizePhoneRejects(t *testing.T) {
	for _, in := range []string{"", "12", "not a phone"} {
		_, err := NormalizePhone(in, "IN")
		assert.Error(t, err, in)
	}
}
