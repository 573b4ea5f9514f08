package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnergyAverage(t *testing.T) {
	t.Run("uniform samples keep their level", func(t *testing.T) {
		assert.InDelta(t, 50.0, EnergyAverage([]float64{50, 50, 50}), 1e-9)
	})

	t.Run("single sample", func(t *testing.T) {
		assert.InDelta(t, 63.2, EnergyAverage([]float64{63.2}), 1e-9)
	})

	t.Run("louder samples dominate", func(t *testing.T) {
		// 10*log10((10^6 + 10^7)/2) = 67.4036...
		got := EnergyAverage([]float64{60, 70})
		assert.InDelta(t, 67.4036, got, 0.001)
		// Well above the arithmetic mean of 65.
		assert.Greater(t, got, 67.0)
	})

	t.Run("sample count does not bias a uniform level", func(t *testing.T) {
		assert.InDelta(t,
			EnergyAverage([]float64{80, 80}),
			EnergyAverage([]float64{80, 80, 80, 80}),
			1e-9)
	})

	t.Run("empty is NaN", func(t *testing.T) {
		assert.True(t, math.IsNaN(EnergyAverage(nil)))
	})
}
