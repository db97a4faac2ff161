package compare

import (
	"slices"
	"sync"

	"github.com/matzehuels/stylesync/pkg/layers"
)

// DisplayGroup is one row of a panel's layer list: a selected group, its
// on/off state in that panel, and the drawables it controlled when the
// ledger was last regenerated.
type DisplayGroup struct {
	Name     string   `json:"name" bson:"name"`
	Visible  bool     `json:"visible" bson:"visible"`
	LayerIDs []string `json:"layer_ids" bson:"layer_ids"`
}

// VisibilityLedger tracks per-panel group visibility.
type VisibilityLedger struct {
	mu      sync.RWMutex
	entries map[Panel][]DisplayGroup
}

// NewVisibilityLedger returns an empty ledger.
func NewVisibilityLedger() *VisibilityLedger {
	return &VisibilityLedger{entries: make(map[Panel][]DisplayGroup, len(Panels))}
}

// Regenerate rebuilds both panels' entries from the current selection.
// A group keeps the state it had under the same display name; new names
// start at the group's own Visible flag.
func (v *VisibilityLedger) Regenerate(groups []layers.Group, drawables func(layers.Group) []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range Panels {
		prev := make(map[string]bool, len(v.entries[p]))
		for _, e := range v.entries[p] {
			prev[e.Name] = e.Visible
		}
		next := make([]DisplayGroup, 0, len(groups))
		for _, g := range groups {
			state, ok := prev[g.Name]
			if !ok {
				state = g.Visible
			}
			next = append(next, DisplayGroup{
				Name:     g.Name,
				Visible:  state,
				LayerIDs: slices.Clone(drawables(g)),
			})
		}
		v.entries[p] = next
	}
}

// Entries returns a copy of a panel's entries.
func (v *VisibilityLedger) Entries(p Panel) []DisplayGroup {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]DisplayGroup, len(v.entries[p]))
	for i, e := range v.entries[p] {
		e.LayerIDs = slices.Clone(e.LayerIDs)
		out[i] = e
	}
	return out
}

// State returns a group's state in panel p. The second result is false when
// the ledger has no entry under that name.
func (v *VisibilityLedger) State(p Panel, name string) (visible, ok bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, e := range v.entries[p] {
		if e.Name == name {
			return e.Visible, true
		}
	}
	return false, false
}

// Set changes one group's state in panel p and reports whether it exists.
func (v *VisibilityLedger) Set(p Panel, name string, visible bool) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	found := false
	for i := range v.entries[p] {
		if v.entries[p][i].Name == name {
			v.entries[p][i].Visible = visible
			found = true
		}
	}
	return found
}

// SetAll sets every group in panel p to the same state.
func (v *VisibilityLedger) SetAll(p Panel, visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries[p] {
		v.entries[p][i].Visible = visible
	}
}

// Reset forgets all entries.
func (v *VisibilityLedger) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	clear(v.entries)
}

// VisibleDrawableIDs computes a panel's visible drawable list, topmost first.
//
// Groups are walked in selection order and skipped only when their entry is
// explicitly off; each group contributes its drawables in reverse. The
// basemap's layers follow, also reversed, unless the basemap is NoBasemap.
func VisibleDrawableIDs(entries []DisplayGroup, groups []layers.Group, drawables func(layers.Group) []string, baseLayerIDs []string, basemap string) []string {
	hidden := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.Visible {
			hidden[e.Name] = true
		}
	}

	var ids []string
	for _, g := range groups {
		if hidden[g.Name] {
			continue
		}
		ds := drawables(g)
		for i := len(ds) - 1; i >= 0; i-- {
			ids = append(ids, ds[i])
		}
	}
	if basemap == NoBasemap {
		return ids
	}
	for i := len(baseLayerIDs) - 1; i >= 0; i-- {
		if baseLayerIDs[i] != "" {
			ids = append(ids, baseLayerIDs[i])
		}
	}
	return ids
}
