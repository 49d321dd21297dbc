package validation_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/logistyczniepl/marketplace/internal/api/validation"
	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@example.co.uk",
		"user+tag@example.com",
		"jan.kowalski@firma.pl",
	}
	for _, email := range valid {
		assert.True(t, validation.IsValidEmail(email), email)
	}

	invalid := []string{
		"",
		"plainaddress",
		"@example.com",
		"user@",
		"user@example",
		"user name@example.com",
	}
	for _, email := range invalid {
		assert.False(t, validation.IsValidEmail(email), email)
	}

	t.Run("overlong address is rejected", func(t *testing.T) {
		local := make([]byte, 250)
		for i := range local {
			local[i] = 'a'
		}
		assert.False(t, validation.IsValidEmail(string(local)+"@example.com"))
	})
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, validation.IsValidUUID(uuid.New().String()))
	assert.False(t, validation.IsValidUUID("not-a-uuid"))
	assert.False(t, validation.IsValidUUID(""))
	assert.False(t, validation.IsValidUUID("12345678-1234-1234-1234-12345678901"))
}

func TestParseDate(t *testing.T) {
	t.Run("valid date", func(t *testing.T) {
		got, ok := validation.ParseDate("2026-10-01")
		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("rejects other formats", func(t *testing.T) {
		for _, value := range []string{"", "01-10-2026", "2026/10/01", "tomorrow", "2026-13-01"} {
			_, ok := validation.ParseDate(value)
			assert.False(t, ok, value)
		}
	})
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", validation.SanitizeString("hel\x00lo"))
	assert.Equal(t, "line1\nline2", validation.SanitizeString("line1\nline2"))
	assert.Equal(t, "tab\there", validation.SanitizeString("tab\there"))
	assert.Equal(t, "ab", validation.SanitizeString("a\x1bb"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "hello", validation.TruncateString("hello", 10))
	assert.Equal(t, "hel", validation.TruncateString("hello", 3))
	assert.Equal(t, "", validation.TruncateString("", 5))
}
