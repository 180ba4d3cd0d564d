package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillRaster builds an h×w×bands raster from a per-pixel band generator.
func fillRaster(h, w, bands int, gen func(y, x, b int) float64) *Raster {
	r := New(h, w, bands)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for b := 0; b < bands; b++ {
				r.Set(y, x, b, gen(y, x, b))
			}
		}
	}
	return r
}

func assertAllFinite(t *testing.T, ir *IndexRaster) {
	t.Helper()
	for i, v := range ir.Pixels {
		require.Falsef(t, math.IsNaN(v), "pixel %d is NaN", i)
		require.Falsef(t, math.IsInf(v, 0), "pixel %d is Inf", i)
	}
}

func TestComputeIndices_RejectsTooFewBands(t *testing.T) {
	r := New(2, 2, 3)
	_, err := ComputeIndices(r)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestComputeIndices_RejectsBadShape(t *testing.T) {
	r := &Raster{Height: 2, Width: 2, Bands: 4, Pixels: make([]float64, 7)}
	_, err := ComputeIndices(r)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ComputeIndices(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestComputeIndices_NIREqualsRedGivesZeroNDVI(t *testing.T) {
	// nir == red everywhere makes raw NDVI exactly zero, a constant channel,
	// which normalizes to all zeros.
	r := fillRaster(3, 3, 4, func(y, x, b int) float64 {
		switch b {
		case BandRed, BandNIR:
			return 0.4 + 0.01*float64(y*3+x)
		default:
			return 0.2
		}
	})
	ir, err := ComputeIndices(r)
	require.NoError(t, err)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			assert.Zero(t, ir.At(y, x, IndexNDVI))
		}
	}
	assertAllFinite(t, ir)
}

func TestComputeIndices_NormalizedChannelSpansUnitInterval(t *testing.T) {
	r := fillRaster(4, 4, 4, func(y, x, b int) float64 {
		k := float64(y*4 + x)
		switch b {
		case BandBlue:
			return 0.08 + 0.002*k
		case BandGreen:
			return 0.15
		case BandRed:
			return 0.2 + 0.03*k
		default:
			return 0.9 - 0.02*k
		}
	})
	ir, err := ComputeIndices(r)
	require.NoError(t, err)
	assertAllFinite(t, ir)

	for idx := 0; idx < NumIndices; idx++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				v := ir.At(y, x, idx)
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}
		assert.InDelta(t, 0, lo, 1e-6, "channel %d min", idx)
		assert.InDelta(t, 1, hi, 1e-6, "channel %d max", idx)
	}
}

func TestComputeIndices_ConstantRasterIsAllZeros(t *testing.T) {
	r := fillRaster(2, 2, 4, func(y, x, b int) float64 { return 0.5 })
	ir, err := ComputeIndices(r)
	require.NoError(t, err)
	assertAllFinite(t, ir)
	for _, v := range ir.Pixels {
		assert.Zero(t, v)
	}
}

func TestComputeIndices_DegenerateEVIDenominatorStaysFinite(t *testing.T) {
	// One pixel with nir + 6*red - 7.5*blue + 1 == 0 would divide by zero.
	r := fillRaster(1, 3, 4, func(y, x, b int) float64 {
		if x == 1 {
			switch b {
			case BandBlue:
				return 4.0 / 15.0
			case BandRed:
				return 0
			case BandNIR:
				return 1
			}
			return 0
		}
		return 0.1 * float64(x+b+1)
	})
	ir, err := ComputeIndices(r)
	require.NoError(t, err)
	assertAllFinite(t, ir)
}

func TestComputeIndices_Idempotent(t *testing.T) {
	r := fillRaster(3, 5, 5, func(y, x, b int) float64 {
		return math.Sin(float64(y*31+x*7+b)) + 1.2
	})
	first, err := ComputeIndices(r)
	require.NoError(t, err)
	second, err := ComputeIndices(r)
	require.NoError(t, err)
	assert.Equal(t, first.Pixels, second.Pixels)
}
