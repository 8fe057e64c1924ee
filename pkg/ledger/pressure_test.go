package ledger

import "testing"

func TestPressureForBalance(t *testing.T) {
	tests := []struct {
		balance  int
		pressure float64
		band     Band
	}{
		{0, 0.7, BandHigh},
		{1, 0.7, BandHigh},
		{2, 0.4, BandMedium},
		{4, 0.4, BandMedium},
		{5, 0.2, BandLow},
		{9, 0.2, BandLow},
		{10, 0, BandNone},
		{100, 0, BandNone},
	}

	for _, tt := range tests {
		if got := PressureForBalance(tt.balance); got != tt.pressure {
			t.Errorf("PressureForBalance(%d) = %v, want %v", tt.balance, got, tt.pressure)
		}
		if got := BandForBalance(tt.balance); got != tt.band {
			t.Errorf("BandForBalance(%d) = %q, want %q", tt.balance, got, tt.band)
		}
	}
}

func TestPressureNonIncreasingInBalance(t *testing.T) {
	prev := PressureForBalance(0)
	for balance := 1; balance <= 50; balance++ {
		cur := PressureForBalance(balance)
		if cur > prev {
			t.Fatalf("pressure increased from %v to %v at balance %d", prev, cur, balance)
		}
		prev = cur
	}
}

func TestEarnBonus(t *testing.T) {
	tests := []struct {
		name    string
		base    int
		balance int
		want    int
	}{
		{"high pressure base 2", 2, 0, 1},
		{"high pressure base 4", 4, 1, 2},
		{"high pressure base 1 floors to zero", 1, 0, 0},
		{"medium pressure base 3", 3, 3, 1}, // floor(3*0.4)
		{"low pressure earns nothing", 4, 7, 0},
		{"no pressure earns nothing", 4, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := earnBonus(tt.base, tt.balance); got != tt.want {
				t.Errorf("earnBonus(%d, %d) = %d, want %d", tt.base, tt.balance, got, tt.want)
			}
		})
	}
}
