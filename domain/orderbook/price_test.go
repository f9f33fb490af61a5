package orderbook

import "testing"

func TestToTicks(t *testing.T) {
	cases := []struct {
		price float64
		want  int64
		ok    bool
	}{
		{100.0, 100_0000, true},
		{99.95, 99_9500, true},
		{0.0001, 1, true},
		{101.0, 101_0000, true},
		{100.00001, 0, false},
	}
	for _, tc := range cases {
		got, err := ToTicks(tc.price)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ToTicks(%v) = %d, %v; want %d", tc.price, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("ToTicks(%v) should fail", tc.price)
		}
	}
}

func TestFromTicksRoundTrip(t *testing.T) {
	for _, ticks := range []int64{1, 3, 9_9500, 100_0000, 12_345_6789} {
		back, err := ToTicks(FromTicks(ticks))
		if err != nil || back != ticks {
			t.Errorf("round trip of %d ticks gave %d, %v", ticks, back, err)
		}
	}
}
