package models

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers, the storefront does arithmetic on them
	decimal.MarshalJSONWithoutQuotes = true
}
