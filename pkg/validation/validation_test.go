package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGroupID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"Valid_5Digits", "12345", false},
		{"Valid_11Digits", "19999999999", false},
		{"Invalid_Empty", "", true},
		{"Invalid_WhitespaceOnly", "   ", true},
		{"Invalid_LeadingZero", "012345", true},
		{"Invalid_TooShort", "1234", true},
		{"Invalid_TooLong", "123456789012", true},
		{"Invalid_NonNumeric", "12345a", true},
		{"Invalid_Negative", "-12345", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGroupID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseClockTime(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		tests := []struct {
			input  string
			hour   int
			minute int
		}{
			{"00:00", 0, 0},
			{"09:00", 9, 0},
			{"23:59", 23, 59},
		}

		for _, tt := range tests {
			hour, minute, err := ParseClockTime(tt.input)
			require.NoError(t, err, tt.input)
			assert.Equal(t, tt.hour, hour)
			assert.Equal(t, tt.minute, minute)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, input := range []string{"", "9:00", "24:00", "12:60", "12:5", "12-30", "ab:cd", "12:30:00"} {
			_, _, err := ParseClockTime(input)
			assert.Error(t, err, input)
		}
	})
}

func TestValidateCORSOrigin(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		for _, origin := range []string{"http://localhost:3000", "https://example.com", "https://sub.example.com:8443"} {
			assert.NoError(t, ValidateCORSOrigin(origin), origin)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, origin := range []string{"example.com", "ftp://example.com", "https://example.com/path", "https://example.com?q=1", "https://user@example.com", ""} {
			assert.Error(t, ValidateCORSOrigin(origin), origin)
		}
	})
}
