package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRequestNumber(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		wantErr bool
	}{
		{"valid", "CR-2026-001", false},
		{"valid long sequence", "CR-2026-10042", false},
		{"missing prefix", "2026-001", true},
		{"short year", "CR-26-001", true},
		{"short sequence", "CR-2026-01", true},
		{"lowercase prefix", "cr-2026-001", true},
		{"trailing garbage", "CR-2026-001x", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequestNumber(tt.number)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCostImpact(t *testing.T) {
	assert.NoError(t, ValidateCostImpact(0))
	assert.NoError(t, ValidateCostImpact(21500.50))
	assert.Error(t, ValidateCostImpact(-1))
	assert.Error(t, ValidateCostImpact(10000001))
}

func TestValidateScheduleDays(t *testing.T) {
	assert.NoError(t, ValidateScheduleDays(0))
	assert.NoError(t, ValidateScheduleDays(30))
	assert.Error(t, ValidateScheduleDays(-5))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "clean title", SanitizeString("clean title"))
	assert.Equal(t, "tabsnewlines", SanitizeString("tabs\tnew\nlines\x00"))
	assert.Equal(t, "", SanitizeString("\x1f\x7f"))
}
