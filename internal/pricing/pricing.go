package pricing

import (
	"github.com/geethamultiplex/theaterfood/internal/model"
	"github.com/shopspring/decimal"
)

const places = 2

// HandlingRate is the handling charge added on top of the cart subtotal.
var HandlingRate = decimal.RequireFromString("0.06")

var hundred = decimal.NewFromInt(100)

func Subtotal(items []model.Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return sum.Round(places)
}

// Calculate returns the subtotal, handling charge and total of a cart.
// Total always equals round(subtotal * 1.06, 2).
func Calculate(items []model.Item) model.Bill {
	subtotal := Subtotal(items)
	handling := subtotal.Mul(HandlingRate).Round(places)

	return model.Bill{
		Subtotal:       subtotal,
		HandlingCharge: handling,
		Total:          subtotal.Add(handling),
	}
}

// RoundAmount rounds a client supplied amount to currency precision.
func RoundAmount(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(places)
}

// ToMinorUnits converts an amount in rupees to paise.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
