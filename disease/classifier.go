package disease

import (
	"context"
	"fmt"
	"math"

	"cropsight/pipeline"
	"cropsight/raster"
)

// InputSize is the square edge length the external classifier expects.
const InputSize = 224

// DefaultLabels is the ordered label set of the disease model. The first
// label is the healthy class by convention.
var DefaultLabels = []string{
	"healthy",
	"bacterial_blight",
	"brown_spot",
	"leaf_blast",
	"tungro",
	"sheath_blight",
}

// Classifier is the external model boundary: it maps a prepared (square,
// [0,1]-normalized) image to a probability vector over the label set.
type Classifier interface {
	Classify(ctx context.Context, img *raster.Raster) ([]float64, error)
}

// ClassifyFunc adapts a plain function to the Classifier interface.
type ClassifyFunc func(ctx context.Context, img *raster.Raster) ([]float64, error)

// Classify implements Classifier.
func (f ClassifyFunc) Classify(ctx context.Context, img *raster.Raster) ([]float64, error) {
	return f(ctx, img)
}

// Result is the outcome of one disease detection, JSON-serializable.
type Result struct {
	DiseaseDetected bool           `bson:"disease_detected" json:"disease_detected"`
	Disease         string         `bson:"disease" json:"disease"`
	Confidence      float64        `bson:"confidence" json:"confidence"`
	Severity        float64        `bson:"severity,omitempty" json:"severity,omitempty"`
	Treatment       *TreatmentPlan `bson:"treatment,omitempty" json:"treatment,omitempty"`
}

// Detector wraps the classifier capability with input preparation, severity
// estimation, and treatment lookup.
type Detector struct {
	classifier Classifier
	labels     []string
	treatments *TreatmentTable
}

// NewDetector builds a Detector. A nil labels slice means DefaultLabels;
// a nil table means the built-in defaults.
func NewDetector(classifier Classifier, labels []string, table *TreatmentTable) *Detector {
	if labels == nil {
		labels = DefaultLabels
	}
	if table == nil {
		table = DefaultTable()
	}
	return &Detector{classifier: classifier, labels: labels, treatments: table}
}

// Detect prepares the image, invokes the classifier, and wraps its output.
// A top-scoring healthy label yields a negative result with no severity or
// treatment. Any other top label triggers severity estimation and treatment
// lookup; unknown disease names get an empty plan, not an error.
func (d *Detector) Detect(ctx context.Context, img *raster.Raster) (*Result, error) {
	prepared, err := PrepareImage(img, InputSize)
	if err != nil {
		return nil, err
	}

	probs, err := d.classifier.Classify(ctx, prepared)
	if err != nil {
		return nil, &pipeline.BoundaryError{Op: "classifier", Err: err}
	}
	if len(probs) != len(d.labels) {
		return nil, &pipeline.BoundaryError{
			Op:  "classifier",
			Err: fmt.Errorf("got %d probabilities for %d labels", len(probs), len(d.labels)),
		}
	}

	top := argmax(probs)
	if top == 0 {
		return &Result{DiseaseDetected: false, Disease: "none", Confidence: probs[0]}, nil
	}

	name := d.labels[top]
	plan, _ := d.treatments.Lookup(name)
	return &Result{
		DiseaseDetected: true,
		Disease:         name,
		Confidence:      probs[top],
		Severity:        EstimateSeverity(prepared),
		Treatment:       &plan,
	}, nil
}

// PrepareImage resizes an image to size × size with nearest-neighbor
// sampling and normalizes channel values to [0,1]. Inputs with a value
// above 1 are assumed 8-bit and divided by 255; already-normalized inputs
// pass through clamped.
func PrepareImage(img *raster.Raster, size int) (*raster.Raster, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	scale := 1.0
	for _, v := range img.Pixels {
		if v > 1 {
			scale = 255.0
			break
		}
	}

	out := raster.New(size, size, img.Bands)
	for y := 0; y < size; y++ {
		srcY := y * img.Height / size
		for x := 0; x < size; x++ {
			srcX := x * img.Width / size
			for b := 0; b < img.Bands; b++ {
				v := img.At(srcY, srcX, b) / scale
				out.Set(y, x, b, math.Min(math.Max(v, 0), 1))
			}
		}
	}
	return out, nil
}

// damagedGreenLevel is the green-channel value below which a pixel counts
// as damaged tissue in the severity proxy.
const damagedGreenLevel = 0.2

// EstimateSeverity returns the fraction of pixels that look damaged in a
// prepared image. Field photos are RGB ordered; a pixel counts as damaged
// when green is below red or below damagedGreenLevel. The result is in
// [0,1] and monotonic in the damaged-area fraction. Images without an RGB
// triplet report zero.
func EstimateSeverity(img *raster.Raster) float64 {
	if img.Bands < 3 || img.Height == 0 || img.Width == 0 {
		return 0
	}
	damaged := 0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r := img.At(y, x, 0)
			g := img.At(y, x, 1)
			if g < r || g < damagedGreenLevel {
				damaged++
			}
		}
	}
	return float64(damaged) / float64(img.Height*img.Width)
}

func argmax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}
