package consensus

import "testing"

func TestSubsidyHalvingSchedule(t *testing.T) {
	cases := []struct {
		height Height
		want   Satoshi
	}{
		{0, InitialSubsidy},
		{HalvingInterval - 1, InitialSubsidy},
		{HalvingInterval, InitialSubsidy / 2},
		{HalvingInterval * 2, InitialSubsidy / 4},
		{HalvingInterval * 64, 0},
		{HalvingInterval * 100, 0},
	}
	for _, c := range cases {
		if got := Subsidy(c.height); got != c.want {
			t.Errorf("height=%d: Subsidy = %d, want %d", c.height, got, c.want)
		}
	}
}
