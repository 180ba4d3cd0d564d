package raster

import (
	"fmt"
	"math"
)

// Index channel positions in an IndexRaster.
const (
	IndexNDVI = 0
	IndexEVI  = 1

	// NumIndices is the channel count of every IndexRaster.
	NumIndices = 2
)

// epsilon guards divisions and min-max normalization against zero denominators.
const epsilon = 1e-8

// IndexRaster is a height × width × index grid of vegetation indices,
// each channel min-max normalized to [0,1]. Immutable after creation.
type IndexRaster struct {
	Height int
	Width  int
	Pixels []float64
}

// At returns the normalized value at (y, x) for the given index channel.
func (ir *IndexRaster) At(y, x, idx int) float64 {
	return ir.Pixels[(y*ir.Width+x)*NumIndices+idx]
}

// ComputeIndices derives NDVI and EVI per pixel and min-max normalizes each
// channel independently across the whole raster to [0,1]. The input is left
// untouched. Output is always finite: a constant channel normalizes to all
// zeros, and a degenerate EVI denominator yields 0 for that pixel.
//
//	NDVI = (nir - red) / (nir + red + ε)
//	EVI  = 2.5 * (nir - red) / (nir + 6*red - 7.5*blue + 1)
func ComputeIndices(r *Raster) (*IndexRaster, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.Bands < MinBands {
		return nil, fmt.Errorf("%w: vegetation indices need at least %d bands, got %d", ErrInvalidInput, MinBands, r.Bands)
	}

	out := &IndexRaster{
		Height: r.Height,
		Width:  r.Width,
		Pixels: make([]float64, r.Height*r.Width*NumIndices),
	}

	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			blue := r.At(y, x, BandBlue)
			red := r.At(y, x, BandRed)
			nir := r.At(y, x, BandNIR)

			ndvi := (nir - red) / (nir + red + epsilon)
			evi := 2.5 * (nir - red) / (nir + 6*red - 7.5*blue + 1)

			base := (y*r.Width + x) * NumIndices
			out.Pixels[base+IndexNDVI] = finiteOrZero(ndvi)
			out.Pixels[base+IndexEVI] = finiteOrZero(evi)
		}
	}

	for idx := 0; idx < NumIndices; idx++ {
		normalizeChannel(out, idx)
	}
	return out, nil
}

// normalizeChannel rescales one channel with (x - min) / (max - min + ε).
// A constant channel (max == min) becomes all zeros.
func normalizeChannel(ir *IndexRaster, idx int) {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for i := idx; i < len(ir.Pixels); i += NumIndices {
		v := ir.Pixels[i]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		for i := idx; i < len(ir.Pixels); i += NumIndices {
			ir.Pixels[i] = 0
		}
		return
	}
	span := hi - lo + epsilon
	for i := idx; i < len(ir.Pixels); i += NumIndices {
		ir.Pixels[i] = (ir.Pixels[i] - lo) / span
	}
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
