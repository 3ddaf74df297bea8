package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountryTable(t *testing.T) {
	assert.GreaterOrEqual(t, len(Countries), 40)

	seen := make(map[string]bool)
	for _, c := range Countries {
		assert.False(t, seen[c.ISO], "duplicate ISO %s", c.ISO)
		seen[c.ISO] = true
		assert.Equal(t, DigitsOnly(c.CallingCode), c.CallingCode, "%s calling code must be digits", c.ISO)
		assert.Greater(t, c.NationalLength(), 5, "%s mask too short", c.ISO)
	}
}

func TestLookupCountry(t *testing.T) {
	c, ok := LookupCountry("kz")
	require.True(t, ok)
	assert.Equal(t, "7", c.CallingCode)
	assert.Equal(t, 10, c.NationalLength())

	_, ok = LookupCountry("XX")
	assert.False(t, ok)
}

func TestFormatInternational(t *testing.T) {
	tests := []struct {
		name string
		iso  string
		raw  string
		want string
	}{
		{"kazakhstan full", "KZ", "7771234567", "+7 (777) 123-45-67"},
		{"kazakhstan with trunk prefix", "KZ", "87771234567", "+7 (777) 123-45-67"},
		{"uzbekistan with code", "UZ", "+998 90 123 45 67", "+998 90 123-45-67"},
		{"uzbekistan partial", "UZ", "9012", "+998 90 12"},
		{"united states", "US", "2025550123", "+1 (202) 555-0123"},
		{"germany", "DE", "+49 30 12345678", "+49 301 2345678"},
		{"unknown country falls back to KZ", "ZZ", "7011234567", "+7 (701) 123-45-67"},
		{"empty", "KZ", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatInternational(tt.iso, tt.raw))
		})
	}
}

func TestNormalizeInternational(t *testing.T) {
	assert.Equal(t, "998901234567", NormalizeInternational("UZ", "+998 (90) 123-45-67"))
	assert.Equal(t, "77011234567", NormalizeInternational("KZ", "+7 701 123 45 67"))
	assert.Equal(t, "", NormalizeInternational("UZ", "90 123"), "incomplete numbers are not exposed")
	assert.Equal(t, "12025550123", NormalizeInternational("US", "(202) 555-0123 999"), "extra digits are truncated")
}

func TestChangeCountry(t *testing.T) {
	national, normalized := ChangeCountry("KZ", "RU", "77011234567")
	assert.Equal(t, "7011234567", national)
	assert.Equal(t, "77011234567", normalized)

	national, normalized = ChangeCountry("KZ", "UZ", "77011234567")
	assert.Equal(t, "701123456", national, "national number is truncated to the new mask")
	assert.Equal(t, "", normalized, "a truncated number is not a valid phone")

	national, normalized = ChangeCountry("UZ", "KZ", "998901234567")
	assert.Equal(t, "901234567", national)
	assert.Equal(t, "", normalized, "too short for the new country")
}

func TestPhoneDigitsValid(t *testing.T) {
	assert.True(t, PhoneDigitsValid("77011234567"))
	assert.True(t, PhoneDigitsValid("998901234567"))
	assert.False(t, PhoneDigitsValid("+77011234567"))
	assert.False(t, PhoneDigitsValid("7701"))
	assert.False(t, PhoneDigitsValid(""))
}
