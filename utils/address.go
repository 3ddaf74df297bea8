package utils

import "strings"

// Address token prefixes used by the admin delivery form
const (
	ApartmentPrefix = "кв/офис "
	FloorPrefix     = "этаж "
	IntercomPrefix  = "домофон "
)

const addressSeparator = ", "

// AddressParts is the decomposed form of a free-text pickup address
type AddressParts struct {
	City      string `json:"city"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	Floor     string `json:"floor"`
	Intercom  string `json:"intercom"`
	Comment   string `json:"comment"`
}

// ParseAddress splits a composed address into its parts. Prefixed tokens are matched
// anywhere; unprefixed tokens fill City, then Street, and the rest becomes Comment.
// The parse is lossy for strings that do not follow BuildAddress's order.
func ParseAddress(s string) AddressParts {
	var parts AddressParts
	var rest []string

	for _, raw := range strings.Split(s, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		switch {
		case strings.HasPrefix(token, ApartmentPrefix):
			parts.Apartment = strings.TrimSpace(strings.TrimPrefix(token, ApartmentPrefix))
		case strings.HasPrefix(token, FloorPrefix):
			parts.Floor = strings.TrimSpace(strings.TrimPrefix(token, FloorPrefix))
		case strings.HasPrefix(token, IntercomPrefix):
			parts.Intercom = strings.TrimSpace(strings.TrimPrefix(token, IntercomPrefix))
		case parts.City == "":
			parts.City = token
		case parts.Street == "":
			parts.Street = token
		default:
			rest = append(rest, token)
		}
	}

	parts.Comment = strings.Join(rest, addressSeparator)
	return parts
}

// BuildAddress joins the non-empty parts with ", " in canonical order
func BuildAddress(p AddressParts) string {
	segments := make([]string, 0, 6)
	add := func(prefix, value string) {
		if value = strings.TrimSpace(value); value != "" {
			segments = append(segments, prefix+value)
		}
	}

	add("", p.City)
	add("", p.Street)
	add(ApartmentPrefix, p.Apartment)
	add(FloorPrefix, p.Floor)
	add(IntercomPrefix, p.Intercom)
	add("", p.Comment)

	return strings.Join(segments, addressSeparator)
}
