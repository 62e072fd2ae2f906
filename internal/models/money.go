package models

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds an amount to two decimal places, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
