// Package disease wraps an external disease-classification capability with
// severity estimation and treatment lookup.
package disease

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// TreatmentPlan holds per-category guidance for one disease. Empty fields
// mean no guidance is available for that category.
type TreatmentPlan struct {
	Chemical string `bson:"chemical,omitempty" json:"chemical,omitempty" yaml:"chemical,omitempty"`
	Dosage   string `bson:"dosage,omitempty" json:"dosage,omitempty" yaml:"dosage,omitempty"`
	Organic  string `bson:"organic,omitempty" json:"organic,omitempty" yaml:"organic,omitempty"`
	Cultural string `bson:"cultural,omitempty" json:"cultural,omitempty" yaml:"cultural,omitempty"`
}

// IsZero reports whether the plan carries no guidance at all.
func (p TreatmentPlan) IsZero() bool {
	return p == TreatmentPlan{}
}

// TreatmentTable maps disease names to treatment plans. The table is
// deliberately partial: unknown names resolve to an empty plan, not an
// error. It is safe for concurrent lookup while a watcher reloads it.
type TreatmentTable struct {
	mu    sync.RWMutex
	plans map[string]TreatmentPlan
}

// DefaultTable returns the built-in treatment entries.
func DefaultTable() *TreatmentTable {
	return &TreatmentTable{plans: map[string]TreatmentPlan{
		"bacterial_blight": {
			Chemical: "Streptomycin sulfate 90% + Tetracycline hydrochloride 10%",
			Dosage:   "15g per 10 liters of water",
			Organic:  "Neem oil spray (3-4ml/liter)",
			Cultural: "Remove infected plants, improve drainage",
		},
		"brown_spot": {
			Chemical: "Mancozeb 75% WP",
			Dosage:   "2g per liter of water",
			Organic:  "Trichoderma viride",
			Cultural: "Use resistant varieties, balanced fertilization",
		},
		"leaf_blast": {
			Chemical: "Tricyclazole 75% WP",
			Dosage:   "0.6g per liter of water",
			Organic:  "Pseudomonas fluorescens seed treatment",
			Cultural: "Avoid excess nitrogen, maintain field water level",
		},
		"tungro": {
			Chemical: "Imidacloprid 17.8% SL against leafhopper vector",
			Dosage:   "0.3ml per liter of water",
			Cultural: "Rogue infected hills, synchronize planting dates",
		},
	}}
}

// LoadTable reads a YAML file mapping disease name to plan and overlays it
// on the built-in defaults, so deployments can extend or override entries
// without a code change.
func LoadTable(path string) (*TreatmentTable, error) {
	t := DefaultTable()
	if err := t.mergeFile(path); err != nil {
		return nil, err
	}
	return t, nil
}

// Lookup returns the plan for a disease name. Unknown names return an empty
// plan and found=false.
func (t *TreatmentTable) Lookup(name string) (TreatmentPlan, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	plan, ok := t.plans[name]
	return plan, ok
}

// Names returns the known disease names, for diagnostics.
func (t *TreatmentTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.plans))
	for n := range t.plans {
		names = append(names, n)
	}
	return names
}

func (t *TreatmentTable) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read treatment table: %w", err)
	}
	var loaded map[string]TreatmentPlan
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse treatment table: %w", err)
	}
	t.mu.Lock()
	for name, plan := range loaded {
		t.plans[name] = plan
	}
	t.mu.Unlock()
	return nil
}

// Watch reloads the table whenever the file at path is written. It runs
// until ctx is cancelled. A reload that fails to parse is logged and the
// previous entries stay active.
func (t *TreatmentTable) Watch(ctx context.Context, path string, log *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}
	log.Info("watching treatment table", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, which shows up as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := t.mergeFile(path); err != nil {
				log.Error("treatment table reload failed, keeping previous entries", "path", path, "err", err)
				continue
			}
			log.Info("treatment table reloaded", "path", path)
			// Re-add in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("treatment table watcher error", "err", err)
		}
	}
}
