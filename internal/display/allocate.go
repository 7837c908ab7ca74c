package display

import (
	"math"

	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/openrgb"
)

// Weight is one category band: its color and the fraction of the range it
// claims.
type Weight struct {
	Label    string
	Color    openrgb.Color
	Fraction float64
}

type Weights []Weight

// Validate rejects negative and NaN fractions. Fractions summing past 1
// are allowed and leave no room for the remainder.
func (w Weights) Validate() error {
	errFactory := errors.New()
	for _, weight := range w {
		if math.IsNaN(weight.Fraction) || math.IsInf(weight.Fraction, 0) || weight.Fraction < 0 {
			return errFactory.WithData(errors.ErrInvalidWeight, weight.Label)
		}
	}
	return nil
}

// Allocate lays the weights out over n LEDs in order. Band i covers
// [round(c_i), round(c_i+1)) where c is the running sum of n*fraction;
// positions past the last band take the remainder color.
func Allocate(weights Weights, remainder openrgb.Color, n int) []openrgb.Color {
	out := make([]openrgb.Color, n)

	var cum float64
	start := 0
	for _, w := range weights {
		cum += float64(n) * w.Fraction
		end := clip(bandStart(cum), n)
		for i := start; i < end; i++ {
			out[i] = w.Color
		}
		start = max(start, end)
	}

	for i := start; i < n; i++ {
		out[i] = remainder
	}

	return out
}

func bandStart(c float64) int {
	return int(math.Floor(c + 0.5))
}

func clip(i, n int) int {
	return min(max(i, 0), n)
}
