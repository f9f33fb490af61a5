// Package pricing values European options with the Black-Scholes
// closed form. It is pure computation with no state.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

// OptionKind selects the payoff side.
type OptionKind int

const (
	Call OptionKind = iota
	Put
)

func (k OptionKind) String() string {
	switch k {
	case Call:
		return "call"
	case Put:
		return "put"
	}
	return "unknown"
}

// ErrPricingDomain marks inputs the model is undefined for.
var ErrPricingDomain = errors.New("pricing: parameters outside model domain")

// Params are the Black-Scholes inputs.
type Params struct {
	Spot   float64 // current underlying price
	Strike float64
	Expiry float64 // time to expiry in years
	Rate   float64 // continuously compounded risk-free rate
	Vol    float64 // annualized volatility
}

func (p Params) validate() error {
	switch {
	case p.Spot <= 0 || math.IsNaN(p.Spot) || math.IsInf(p.Spot, 0):
		return fmt.Errorf("%w: spot %v", ErrPricingDomain, p.Spot)
	case p.Strike <= 0 || math.IsNaN(p.Strike) || math.IsInf(p.Strike, 0):
		return fmt.Errorf("%w: strike %v", ErrPricingDomain, p.Strike)
	case p.Expiry <= 0 || math.IsNaN(p.Expiry) || math.IsInf(p.Expiry, 0):
		return fmt.Errorf("%w: expiry %v", ErrPricingDomain, p.Expiry)
	case p.Vol <= 0 || math.IsNaN(p.Vol) || math.IsInf(p.Vol, 0):
		return fmt.Errorf("%w: volatility %v", ErrPricingDomain, p.Vol)
	case math.IsNaN(p.Rate) || math.IsInf(p.Rate, 0):
		return fmt.Errorf("%w: rate %v", ErrPricingDomain, p.Rate)
	}
	return nil
}

// Price returns the Black-Scholes value of a European option. Inputs
// with non-positive spot, strike, expiry, or volatility are rejected
// with ErrPricingDomain rather than fed into the divisions below.
func Price(kind OptionKind, p Params) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}

	sqrtT := math.Sqrt(p.Expiry)
	d1 := (math.Log(p.Spot/p.Strike) + (p.Rate+0.5*p.Vol*p.Vol)*p.Expiry) / (p.Vol * sqrtT)
	d2 := d1 - p.Vol*sqrtT
	discounted := p.Strike * math.Exp(-p.Rate*p.Expiry)

	switch kind {
	case Call:
		return p.Spot*normCDF(d1) - discounted*normCDF(d2), nil
	case Put:
		return discounted*normCDF(-d2) - p.Spot*normCDF(-d1), nil
	}
	return 0, fmt.Errorf("%w: unknown option kind %d", ErrPricingDomain, kind)
}

// normCDF is the standard normal CDF expressed through erf.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
