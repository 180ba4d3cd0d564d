// Package raster holds the numeric grid types the analysis pipeline works on
// and the vegetation-index math that turns a raw multi-band capture into a
// normalized index raster.
package raster

import (
	"errors"
	"fmt"
)

// Band positions expected in a multi-band capture (Sentinel-2 B2/B3/B4/B8 order).
const (
	BandBlue  = 0
	BandGreen = 1
	BandRed   = 2
	BandNIR   = 3

	// MinBands is the minimum band count required for vegetation indices.
	MinBands = 4
)

// ErrInvalidInput marks a malformed raster (wrong band count or shape).
var ErrInvalidInput = errors.New("invalid raster input")

// Raster is a height × width × band grid stored row-major, band-minor.
// Pixel values are whatever the capture delivered (reflectance, DN, ...);
// the index math only assumes they are finite.
type Raster struct {
	Height int
	Width  int
	Bands  int
	Pixels []float64
}

// New allocates a zeroed raster with the given shape.
func New(height, width, bands int) *Raster {
	return &Raster{
		Height: height,
		Width:  width,
		Bands:  bands,
		Pixels: make([]float64, height*width*bands),
	}
}

// At returns the value at (y, x) for the given band.
func (r *Raster) At(y, x, band int) float64 {
	return r.Pixels[(y*r.Width+x)*r.Bands+band]
}

// Set writes the value at (y, x) for the given band.
func (r *Raster) Set(y, x, band int, v float64) {
	r.Pixels[(y*r.Width+x)*r.Bands+band] = v
}

// Validate checks shape consistency. It does not require MinBands; callers
// that need vegetation indices get that check from ComputeIndices.
func (r *Raster) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil raster", ErrInvalidInput)
	}
	if r.Height <= 0 || r.Width <= 0 || r.Bands <= 0 {
		return fmt.Errorf("%w: non-positive shape %dx%dx%d", ErrInvalidInput, r.Height, r.Width, r.Bands)
	}
	if want := r.Height * r.Width * r.Bands; len(r.Pixels) != want {
		return fmt.Errorf("%w: pixel buffer has %d values, shape needs %d", ErrInvalidInput, len(r.Pixels), want)
	}
	return nil
}
