package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  AddressParts
	}{
		{
			name:  "all fields in documented order",
			input: "Алматы, пр. Абая 150, кв/офис 12, этаж 3, домофон 12К, вход со двора",
			want: AddressParts{
				City: "Алматы", Street: "пр. Абая 150", Apartment: "12",
				Floor: "3", Intercom: "12К", Comment: "вход со двора",
			},
		},
		{
			name:  "city and street only",
			input: "Астана, Кенесары 40",
			want:  AddressParts{City: "Астана", Street: "Кенесары 40"},
		},
		{
			name:  "prefixed tokens out of order",
			input: "домофон 5, Шымкент, этаж 2, Тауке хана 1",
			want:  AddressParts{City: "Шымкент", Street: "Тауке хана 1", Floor: "2", Intercom: "5"},
		},
		{
			name:  "remainder joins into comment",
			input: "Алматы, Сатпаева 90, позвонить заранее, код 1234",
			want:  AddressParts{City: "Алматы", Street: "Сатпаева 90", Comment: "позвонить заранее, код 1234"},
		},
		{
			name:  "empty segments are skipped",
			input: " Алматы ,, Абая 1 , ",
			want:  AddressParts{City: "Алматы", Street: "Абая 1"},
		},
		{
			name:  "empty string",
			input: "",
			want:  AddressParts{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAddress(tt.input))
		})
	}
}

func TestBuildAddress(t *testing.T) {
	assert.Equal(t, "Алматы, Абая 1, этаж 4", BuildAddress(AddressParts{City: "Алматы", Street: "Абая 1", Floor: "4"}))
	assert.Equal(t, "кв/офис 7", BuildAddress(AddressParts{Apartment: "7"}))
	assert.Equal(t, "", BuildAddress(AddressParts{City: "  "}))
}

func TestAddressRoundTrip(t *testing.T) {
	inputs := []string{
		"Алматы, пр. Абая 150, кв/офис 12, этаж 3, домофон 12К, вход со двора",
		"Алматы, Сатпаева 90, позвонить заранее, код 1234",
		"Астана, Кенесары 40, кв/офис 1",
		"Караганда",
		"Актобе, Абилкайыр хана 5, домофон 77",
	}
	for _, s := range inputs {
		assert.Equal(t, s, BuildAddress(ParseAddress(s)), "round trip of %q", s)
	}
}

func TestAddressRoundTripIsLossyOutOfOrder(t *testing.T) {
	s := "этаж 2, Шымкент, Тауке хана 1"
	assert.NotEqual(t, s, BuildAddress(ParseAddress(s)))
	assert.Equal(t, "Шымкент, Тауке хана 1, этаж 2", BuildAddress(ParseAddress(s)))
}
