// Package backtest evaluates a below-mean accumulation strategy over
// an ordered price series.
package backtest

import (
	"fmt"

	"midas/domain/pricing"
)

// Strategy fixes the option bought at each qualifying observation.
// The observation itself supplies the spot.
type Strategy struct {
	Kind   pricing.OptionKind
	Strike float64
	Expiry float64
	Rate   float64
	Vol    float64
}

// Result aggregates one run.
type Result struct {
	Total        float64 // summed option prices over all purchases
	Mean         float64 // arithmetic mean of the whole series
	Observations int
	Purchases    int // observations strictly below the mean
}

// Run scans the series once. The mean is taken over the whole series
// first; every observation strictly below it buys one option priced
// at that spot, and the option prices are summed. An empty series
// yields a zero Result. The first pricing error aborts the run and
// discards the partial total.
func Run(series []float64, s Strategy) (Result, error) {
	if len(series) == 0 {
		return Result{}, nil
	}

	var sum float64
	for _, p := range series {
		sum += p
	}
	mean := sum / float64(len(series))

	res := Result{Mean: mean, Observations: len(series)}
	for i, spot := range series {
		if spot >= mean {
			continue
		}
		price, err := pricing.Price(s.Kind, pricing.Params{
			Spot:   spot,
			Strike: s.Strike,
			Expiry: s.Expiry,
			Rate:   s.Rate,
			Vol:    s.Vol,
		})
		if err != nil {
			return Result{}, fmt.Errorf("backtest: observation %d (%v): %w", i, spot, err)
		}
		res.Total += price
		res.Purchases++
	}
	return res, nil
}
