package oddsmath

import (
	"fmt"
)

// AmericanToDecimal converts American odds to decimal odds.
// +150 → 2.50, -150 → 1.67.
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}

	if american > 0 {
		return (float64(american) / 100.0) + 1.0, nil
	}
	return (100.0 / float64(-american)) + 1.0, nil
}

// AmericanToImpliedProbability converts American odds to the implied
// win probability. -110 → 0.524.
func AmericanToImpliedProbability(american int) (float64, error) {
	decimal, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}
	return 1.0 / decimal, nil
}

// MoreFavorable reports whether price a pays better than price b for the
// bettor. Comparison runs through decimal odds so that mixed-sign
// American prices order correctly. Zero (invalid) prices always lose.
func MoreFavorable(a, b int) bool {
	da, errA := AmericanToDecimal(a)
	db, errB := AmericanToDecimal(b)
	if errA != nil {
		return false
	}
	if errB != nil {
		return true
	}
	return da > db
}
