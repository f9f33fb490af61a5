package pricing

import (
	"errors"
	"math"
	"testing"

	"pgregory.net/rapid"
)

var atTheMoney = Params{Spot: 100, Strike: 100, Expiry: 1, Rate: 0.05, Vol: 0.2}

func TestCallKnownValue(t *testing.T) {
	got, err := Price(Call, atTheMoney)
	if err != nil {
		t.Fatalf("price failed: %v", err)
	}
	if math.Abs(got-10.450584) > 1e-4 {
		t.Errorf("at-the-money call = %v, want ~10.450584", got)
	}
}

func TestPutKnownValue(t *testing.T) {
	got, err := Price(Put, atTheMoney)
	if err != nil {
		t.Fatalf("price failed: %v", err)
	}
	if math.Abs(got-5.573526) > 1e-4 {
		t.Errorf("at-the-money put = %v, want ~5.573526", got)
	}
}

func TestDomainErrors(t *testing.T) {
	cases := []struct {
		name string
		p    Params
	}{
		{"zero expiry", Params{Spot: 100, Strike: 100, Expiry: 0, Rate: 0.05, Vol: 0.2}},
		{"negative expiry", Params{Spot: 100, Strike: 100, Expiry: -1, Rate: 0.05, Vol: 0.2}},
		{"zero vol", Params{Spot: 100, Strike: 100, Expiry: 1, Rate: 0.05, Vol: 0}},
		{"negative spot", Params{Spot: -5, Strike: 100, Expiry: 1, Rate: 0.05, Vol: 0.2}},
		{"zero strike", Params{Spot: 100, Strike: 0, Expiry: 1, Rate: 0.05, Vol: 0.2}},
		{"nan rate", Params{Spot: 100, Strike: 100, Expiry: 1, Rate: math.NaN(), Vol: 0.2}},
	}
	for _, tc := range cases {
		if _, err := Price(Call, tc.p); !errors.Is(err, ErrPricingDomain) {
			t.Errorf("%s: expected ErrPricingDomain, got %v", tc.name, err)
		}
	}
}

func TestUnknownKindRejected(t *testing.T) {
	if _, err := Price(OptionKind(42), atTheMoney); !errors.Is(err, ErrPricingDomain) {
		t.Errorf("expected ErrPricingDomain for unknown kind, got %v", err)
	}
}

func drawParams(t *rapid.T) Params {
	return Params{
		Spot:   rapid.Float64Range(1, 500).Draw(t, "spot"),
		Strike: rapid.Float64Range(1, 500).Draw(t, "strike"),
		Expiry: rapid.Float64Range(0.01, 5).Draw(t, "expiry"),
		Rate:   rapid.Float64Range(-0.05, 0.20).Draw(t, "rate"),
		Vol:    rapid.Float64Range(0.01, 1.5).Draw(t, "vol"),
	}
}

func TestProperty_PutCallParity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := drawParams(t)
		call, err1 := Price(Call, p)
		put, err2 := Price(Put, p)
		if err1 != nil || err2 != nil {
			t.Fatalf("pricing failed: %v / %v", err1, err2)
		}

		lhs := call - put
		rhs := p.Spot - p.Strike*math.Exp(-p.Rate*p.Expiry)
		if math.Abs(lhs-rhs) > 1e-9*(1+math.Abs(rhs)) {
			t.Fatalf("parity violated: C-P=%v, S-Ke^-rT=%v (params %+v)", lhs, rhs, p)
		}
	})
}

func TestProperty_CallWithinArbitrageBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := drawParams(t)
		call, err := Price(Call, p)
		if err != nil {
			t.Fatalf("pricing failed: %v", err)
		}

		lower := math.Max(0, p.Spot-p.Strike*math.Exp(-p.Rate*p.Expiry))
		if call < lower-1e-9 || call > p.Spot+1e-9 {
			t.Fatalf("call %v outside [max(0, S-Ke^-rT)=%v, S=%v] (params %+v)",
				call, lower, p.Spot, p)
		}
	})
}
