package utils

import "strings"

// Country is an entry of the international phone input: its calling code and the mask
// of its national number, where each X is one digit.
type Country struct {
	ISO         string `json:"iso"`
	Name        string `json:"name"`
	CallingCode string `json:"callingCode"`
	Mask        string `json:"mask"`
}

// NationalLength returns the number of digits in a full national number
func (c Country) NationalLength() int {
	return strings.Count(c.Mask, "X")
}

// Countries is the static table behind the international phone input
var Countries = []Country{
	{"KZ", "Казахстан", "7", "(XXX) XXX-XX-XX"},
	{"RU", "Россия", "7", "(XXX) XXX-XX-XX"},
	{"UZ", "Узбекистан", "998", "XX XXX-XX-XX"},
	{"KG", "Кыргызстан", "996", "XXX XXX-XXX"},
	{"TJ", "Таджикистан", "992", "XX XXX-XXXX"},
	{"TM", "Туркменистан", "993", "XX XX-XX-XX"},
	{"AZ", "Азербайджан", "994", "XX XXX-XX-XX"},
	{"AM", "Армения", "374", "XX XXX-XXX"},
	{"GE", "Грузия", "995", "XXX XX-XX-XX"},
	{"BY", "Беларусь", "375", "XX XXX-XX-XX"},
	{"UA", "Украина", "380", "XX XXX-XX-XX"},
	{"MD", "Молдова", "373", "XXXX-XXXX"},
	{"MN", "Монголия", "976", "XXXX XXXX"},
	{"TR", "Турция", "90", "(XXX) XXX-XX-XX"},
	{"US", "США", "1", "(XXX) XXX-XXXX"},
	{"CA", "Канада", "1", "(XXX) XXX-XXXX"},
	{"GB", "Великобритания", "44", "XXXX XXXXXX"},
	{"DE", "Германия", "49", "XXX XXXXXXXX"},
	{"FR", "Франция", "33", "X XX XX XX XX"},
	{"IT", "Италия", "39", "XXX XXX XXXX"},
	{"ES", "Испания", "34", "XXX XX XX XX"},
	{"PL", "Польша", "48", "XXX XXX XXX"},
	{"NL", "Нидерланды", "31", "X XXXXXXXX"},
	{"CZ", "Чехия", "420", "XXX XXX XXX"},
	{"LT", "Литва", "370", "XXX XXXXX"},
	{"LV", "Латвия", "371", "XX XXX XXX"},
	{"EE", "Эстония", "372", "XXXX XXXX"},
	{"FI", "Финляндия", "358", "XX XXX XXXX"},
	{"SE", "Швеция", "46", "XX-XXX XX XX"},
	{"NO", "Норвегия", "47", "XXX XX XXX"},
	{"AE", "ОАЭ", "971", "XX XXX XXXX"},
	{"SA", "Саудовская Аравия", "966", "XX XXX XXXX"},
	{"IL", "Израиль", "972", "XX-XXX-XXXX"},
	{"IN", "Индия", "91", "XXXXX-XXXXX"},
	{"CN", "Китай", "86", "XXX XXXX XXXX"},
	{"JP", "Япония", "81", "XX-XXXX-XXXX"},
	{"KR", "Южная Корея", "82", "XX-XXXX-XXXX"},
	{"TH", "Таиланд", "66", "XX XXX XXXX"},
	{"VN", "Вьетнам", "84", "XX XXX XX XX"},
	{"ID", "Индонезия", "62", "XXX-XXX-XXXX"},
	{"MY", "Малайзия", "60", "XX-XXX XXXX"},
	{"SG", "Сингапур", "65", "XXXX XXXX"},
	{"AU", "Австралия", "61", "XXX XXX XXX"},
	{"BR", "Бразилия", "55", "(XX) XXXXX-XXXX"},
	{"MX", "Мексика", "52", "XX XXXX XXXX"},
	{"AR", "Аргентина", "54", "XX XXXX-XXXX"},
	{"EG", "Египет", "20", "XX XXXX XXXX"},
}

var countriesByISO = func() map[string]Country {
	m := make(map[string]Country, len(Countries))
	for _, c := range Countries {
		m[c.ISO] = c
	}
	return m
}()

// DefaultCountryISO is used when a caller does not pick a country
const DefaultCountryISO = "KZ"

// LookupCountry finds a country by ISO code, case-insensitively
func LookupCountry(iso string) (Country, bool) {
	c, ok := countriesByISO[strings.ToUpper(strings.TrimSpace(iso))]
	return c, ok
}

func countryOrDefault(iso string) Country {
	if c, ok := LookupCountry(iso); ok {
		return c
	}
	return countriesByISO[DefaultCountryISO]
}

// NationalDigits extracts the national number from raw input for a country. Input
// written with a leading + and the calling code has the code removed; for calling
// code 7 an 11-digit number starting with the trunk prefix 8 loses it.
func NationalDigits(iso, raw string) string {
	c := countryOrDefault(iso)
	d := DigitsOnly(raw)
	trimmed := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(trimmed, "+") && strings.HasPrefix(d, c.CallingCode):
		d = d[len(c.CallingCode):]
	case c.CallingCode == "7" && len(d) == 11 && (d[0] == '8' || d[0] == '7'):
		d = d[1:]
	}

	if n := c.NationalLength(); len(d) > n {
		d = d[:n]
	}
	return d
}

// FormatInternational renders +<code> followed by the national mask, progressively
func FormatInternational(iso, raw string) string {
	c := countryOrDefault(iso)
	national := NationalDigits(c.ISO, raw)
	if national == "" {
		return ""
	}
	return "+" + c.CallingCode + " " + applyMask(c.Mask, national)
}

// NormalizeInternational returns calling code + national digits when the national
// number is complete, otherwise "".
func NormalizeInternational(iso, raw string) string {
	c := countryOrDefault(iso)
	national := NationalDigits(c.ISO, raw)
	if len(national) != c.NationalLength() {
		return ""
	}
	return c.CallingCode + national
}

// ChangeCountry re-derives the national number when the selected country changes.
// value is the digit string held under fromISO. It returns the national digits kept
// for the new country and the normalized value. Digits that do not fit the new mask
// are cut from the national part, and the normalized value is then "" so a different
// number is never passed off as valid. It is also "" when the number is incomplete.
func ChangeCountry(fromISO, toISO, value string) (national string, normalized string) {
	from := countryOrDefault(fromISO)
	to := countryOrDefault(toISO)

	d := DigitsOnly(value)
	if strings.HasPrefix(d, from.CallingCode) && len(d) > from.NationalLength() {
		d = d[len(from.CallingCode):]
	}
	if n := to.NationalLength(); len(d) > n {
		return d[:n], ""
	}
	if len(d) == to.NationalLength() {
		return d, to.CallingCode + d
	}
	return d, ""
}

// PhoneDigitsValid reports whether s honours the exposed phone contract: digits only,
// a known calling code followed by a full national number.
func PhoneDigitsValid(s string) bool {
	if s == "" || DigitsOnly(s) != s {
		return false
	}
	for _, c := range Countries {
		if strings.HasPrefix(s, c.CallingCode) && len(s) == len(c.CallingCode)+c.NationalLength() {
			return true
		}
	}
	return false
}

func applyMask(mask, digits string) string {
	var b strings.Builder
	i := 0
	for _, r := range mask {
		if i >= len(digits) {
			break
		}
		if r == 'X' {
			b.WriteByte(digits[i])
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
