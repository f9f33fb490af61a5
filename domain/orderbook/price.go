package orderbook

import (
	"errors"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of ticks per whole price unit. The book
// keys its trees on int64 ticks; float prices exist only at the edges.
const PriceScale = 10_000

// ErrPriceNotRepresentable is returned for prices that do not land on
// a tick boundary at PriceScale precision.
var ErrPriceNotRepresentable = errors.New("orderbook: price not representable at tick precision")

var tickFactor = decimal.NewFromInt(PriceScale)

// ToTicks converts a float price into integer ticks. The conversion
// goes through decimal so that prices like 99.95 survive exactly.
func ToTicks(price float64) (int64, error) {
	d := decimal.NewFromFloat(price).Mul(tickFactor)
	if !d.IsInteger() {
		return 0, ErrPriceNotRepresentable
	}
	return d.IntPart(), nil
}

// FromTicks converts integer ticks back into a float price.
func FromTicks(ticks int64) float64 {
	f, _ := decimal.NewFromInt(ticks).Div(tickFactor).Float64()
	return f
}
