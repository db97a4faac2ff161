// Package stylediff computes set-membership differences between two style
// documents.
//
// Both collections are treated as sets keyed by ID. Content of an entry whose
// ID is present on both sides is never inspected: an edited paint property on
// an existing layer produces an empty [Delta]. In-place edits travel through
// the explicit styling path instead.
package stylediff

import (
	"fmt"

	"github.com/matzehuels/stylesync/pkg/style"
)

// Delta describes how to turn an existing document into the candidate's ID sets.
type Delta struct {
	SourcesAdded   []string      // in candidate, not in existing (sorted)
	SourcesRemoved []string      // in existing, not in candidate (sorted)
	LayersAdded    []style.Layer // copies of candidate layers, candidate order
	LayersRemoved  []string      // existing order
}

// Compute returns the delta from existing to candidate. A nil existing
// document yields the bootstrap delta: everything added, nothing removed.
// Neither document is modified, and added layers are copies.
func Compute(candidate, existing *style.Document) Delta {
	var d Delta
	if candidate == nil {
		candidate = style.New()
	}

	for _, id := range candidate.SourceIDs() {
		if !existing.HasSource(id) {
			d.SourcesAdded = append(d.SourcesAdded, id)
		}
	}
	if existing != nil {
		for _, id := range existing.SourceIDs() {
			if !candidate.HasSource(id) {
				d.SourcesRemoved = append(d.SourcesRemoved, id)
			}
		}
	}

	have := idSet(existing.LayerIDs())
	for _, l := range candidate.Layers {
		if have[l.ID] {
			continue
		}
		// Guard against duplicate IDs inside the candidate itself.
		have[l.ID] = true
		d.LayersAdded = append(d.LayersAdded, l.Clone())
	}

	want := idSet(candidate.LayerIDs())
	removed := make(map[string]bool)
	for _, id := range existing.LayerIDs() {
		if !want[id] && !removed[id] {
			removed[id] = true
			d.LayersRemoved = append(d.LayersRemoved, id)
		}
	}
	return d
}

// Empty reports whether the delta changes nothing.
func (d Delta) Empty() bool {
	return len(d.SourcesAdded) == 0 && len(d.SourcesRemoved) == 0 &&
		len(d.LayersAdded) == 0 && len(d.LayersRemoved) == 0
}

// LayersAddedIDs returns the IDs of the added layers.
func (d Delta) LayersAddedIDs() []string {
	ids := make([]string, len(d.LayersAdded))
	for i, l := range d.LayersAdded {
		ids[i] = l.ID
	}
	return ids
}

// Summary returns a one-line description such as "+2/-0 sources, +6/-3 layers".
func (d Delta) Summary() string {
	return fmt.Sprintf("+%d/-%d sources, +%d/-%d layers",
		len(d.SourcesAdded), len(d.SourcesRemoved), len(d.LayersAdded), len(d.LayersRemoved))
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
