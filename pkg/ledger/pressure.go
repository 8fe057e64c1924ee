package ledger

// Band is the pressure band a balance falls into. It is derived from the
// balance on every read, never stored.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
	BandNone   Band = "none"
)

// Balance thresholds for the pressure bands.
const (
	highPressureBelow   = 2
	mediumPressureBelow = 5
	lowPressureBelow    = 10
)

// pressureTenths returns the pressure signal scaled by ten. Integer tenths
// keep the bonus arithmetic exact; the float view exists only at the API
// surface.
func pressureTenths(balance int) int {
	switch {
	case balance < highPressureBelow:
		return 7
	case balance < mediumPressureBelow:
		return 4
	case balance < lowPressureBelow:
		return 2
	default:
		return 0
	}
}

// PressureForBalance returns the pressure signal in [0,1] for a balance.
// Higher pressure means the character is point-poor and earnings should be
// nudged upward.
func PressureForBalance(balance int) float64 {
	return float64(pressureTenths(balance)) / 10
}

// BandForBalance returns the pressure band for a balance.
func BandForBalance(balance int) Band {
	switch pressureTenths(balance) {
	case 7:
		return BandHigh
	case 4:
		return BandMedium
	case 2:
		return BandLow
	default:
		return BandNone
	}
}

// earnBonus is the catch-up bonus applied on top of a trigger's base reward.
// Only high and medium pressure (above 0.3) earn a bonus: floor(base * pressure).
func earnBonus(base, balance int) int {
	tenths := pressureTenths(balance)
	if tenths <= 3 {
		return 0
	}
	return base * tenths / 10
}
