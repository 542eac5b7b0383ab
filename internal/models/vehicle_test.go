package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ka 01 ab 1234", "KA01AB1234"},
		{"KA01AB1234", "KA01AB1234"},
		{"  mh12  cd 5678 ", "MH12CD5678"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePlate(tt.in), "input %q", tt.in)
	}
}

func TestIsValidCategory(t *testing.T) {
	assert.True(t, IsValidCategory(CategoryDiesel))
	assert.True(t, IsValidCategory(CategoryAdBlue))
	assert.True(t, IsValidCategory(CategoryOther))
	assert.False(t, IsValidCategory("Petrol"))
	assert.False(t, IsValidCategory(""))
}

func TestIsValidSubtype(t *testing.T) {
	assert.True(t, IsValidSubtype(SubtypeToll))
	assert.True(t, IsValidSubtype(SubtypeGrease))
	assert.True(t, IsValidSubtype(SubtypeTireRetreading))
	assert.True(t, IsValidSubtype(SubtypeCustom))
	assert.False(t, IsValidSubtype("Snacks"))
	assert.False(t, IsValidSubtype(""))
}
