package utils

import (
	"strings"
	"unicode"
)

const (
	kzCountryCode  = "7"
	kzNationalLen  = 10
	kzFullLen      = kzNationalLen + len(kzCountryCode)
	kzTrunkPrefix  = '8'
	kzDisplayStart = "+7"
)

// DigitsOnly strips every non-digit character
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// kzDigits returns the possibly incomplete KZ/RU digit string: leading trunk 8 becomes 7,
// a bare 10-digit national number gets 7 prepended, anything else is forced to start with 7.
func kzDigits(raw string) string {
	d := DigitsOnly(raw)
	switch {
	case d == "":
		return ""
	case d[0] == kzTrunkPrefix:
		d = kzCountryCode + d[1:]
	case len(d) == kzNationalLen && d[0] != kzCountryCode[0]:
		d = kzCountryCode + d
	case len(d) == kzNationalLen && d[0] == kzCountryCode[0] && !strings.HasPrefix(strings.TrimSpace(raw), "+"):
		// pasted national number such as 7771234567
		d = kzCountryCode + d
	case d[0] != kzCountryCode[0]:
		d = kzCountryCode + d
	}
	if len(d) > kzFullLen {
		d = d[:kzFullLen]
	}
	return d
}

// NormalizeKZPhone returns the 11-digit KZ/RU number starting with 7, or "" when the
// input does not contain a complete number.
func NormalizeKZPhone(raw string) string {
	d := kzDigits(raw)
	if len(d) != kzFullLen {
		return ""
	}
	return d
}

// FormatPhoneValue renders the KZ/RU mask +7 (XXX) XXX-XX-XX progressively, so
// partially typed numbers render as far as they go.
func FormatPhoneValue(raw string) string {
	d := kzDigits(raw)
	if d == "" {
		return ""
	}
	national := d[len(kzCountryCode):]
	n := len(national)

	var b strings.Builder
	b.WriteString(kzDisplayStart)
	if n > 0 {
		b.WriteString(" (")
		b.WriteString(national[:min(3, n)])
	}
	if n > 3 {
		b.WriteString(") ")
		b.WriteString(national[3:min(6, n)])
	}
	if n > 6 {
		b.WriteString("-")
		b.WriteString(national[6:min(8, n)])
	}
	if n > 8 {
		b.WriteString("-")
		b.WriteString(national[8:min(10, n)])
	}
	return b.String()
}

// FormatKZPhoneInput reformats an edited input value and maps the caret so it stays
// after the same digit it followed before reformatting. cursor and the returned
// position are rune offsets.
func FormatKZPhoneInput(raw string, cursor int) (string, int) {
	formatted := FormatPhoneValue(raw)
	if formatted == "" {
		return "", 0
	}

	runes := []rune(raw)
	if cursor > len(runes) {
		cursor = len(runes)
	}
	if cursor < 0 {
		cursor = 0
	}

	digitsBefore := 0
	for _, r := range runes[:cursor] {
		if unicode.IsDigit(r) {
			digitsBefore++
		}
	}
	// A prepended country code shifts every typed digit by one
	if raw != "" && len(kzDigits(raw)) > len(DigitsOnly(raw)) && digitsBefore > 0 {
		digitsBefore++
	}

	out := []rune(formatted)
	if digitsBefore == 0 {
		return formatted, 0
	}
	seen := 0
	for i, r := range out {
		if unicode.IsDigit(r) {
			seen++
			if seen == digitsBefore {
				return formatted, i + 1
			}
		}
	}
	return formatted, len(out)
}

// NormalizeCustomerPhone accepts either a digit string that already honours the phone
// contract or a KZ/RU number in any local notation. It returns "" for anything else.
func NormalizeCustomerPhone(raw string) string {
	d := DigitsOnly(raw)
	if d != "" && d[0] != kzTrunkPrefix && PhoneDigitsValid(d) {
		return d
	}
	return NormalizeKZPhone(raw)
}
