package compare

import (
	"cmp"
	"slices"
	"sync"

	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/styling"
)

// Override is a panel-specific style for one layer copy. Opacity replaces
// Style.Opacity when the override is applied.
type Override struct {
	Style   styling.LayerStyle `json:"style" bson:"style" toml:"style"`
	Opacity float64            `json:"opacity" bson:"opacity" toml:"opacity"`
}

// OverrideEntry is an Override together with its key.
type OverrideEntry struct {
	Key      layers.Key `json:"key" bson:"key"`
	Override Override   `json:"override" bson:"override"`
}

// OpacityLedger stores per-panel overrides keyed by layer copy. Entries are
// not tied to a comparison session and are not pruned when a copy is
// deselected; stale keys are skipped at apply time.
type OpacityLedger struct {
	mu      sync.RWMutex
	entries map[Panel]map[layers.Key]Override
}

// NewOpacityLedger returns an empty ledger.
func NewOpacityLedger() *OpacityLedger {
	return &OpacityLedger{entries: make(map[Panel]map[layers.Key]Override, len(Panels))}
}

// Put stores an override, replacing any previous one for the same key.
func (o *OpacityLedger) Put(p Panel, k layers.Key, ov Override) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m := o.entries[p]
	if m == nil {
		m = make(map[layers.Key]Override)
		o.entries[p] = m
	}
	ov.Style = ov.Style.WithOpacity(ov.Style.Opacity)
	m[k] = ov
}

// Get returns the override stored for k in panel p.
func (o *OpacityLedger) Get(p Panel, k layers.Key) (Override, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ov, ok := o.entries[p][k]
	return ov, ok
}

// Delete removes an override and reports whether it existed.
func (o *OpacityLedger) Delete(p Panel, k layers.Key) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.entries[p][k]; !ok {
		return false
	}
	delete(o.entries[p], k)
	return true
}

// Entries returns panel p's overrides ordered by key.
func (o *OpacityLedger) Entries(p Panel) []OverrideEntry {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]OverrideEntry, 0, len(o.entries[p]))
	for k, ov := range o.entries[p] {
		out = append(out, OverrideEntry{Key: k, Override: ov})
	}
	slices.SortFunc(out, func(a, b OverrideEntry) int {
		if c := cmp.Compare(a.Key.LayerID, b.Key.LayerID); c != 0 {
			return c
		}
		return cmp.Compare(a.Key.CopyID, b.Key.CopyID)
	})
	return out
}

// Len returns the total number of overrides across both panels.
func (o *OpacityLedger) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	n := 0
	for _, m := range o.entries {
		n += len(m)
	}
	return n
}

// Clear removes all overrides.
func (o *OpacityLedger) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	clear(o.entries)
}
