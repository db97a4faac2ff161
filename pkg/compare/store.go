package compare

import (
	"sync"

	clone "github.com/huandu/go-clone/generic"

	"github.com/matzehuels/stylesync/pkg/style"
	"github.com/matzehuels/stylesync/pkg/stylediff"
)

// AddedSource is a source that a delta introduced into a panel.
type AddedSource struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// SyncResult reports what ApplyMasterDelta changed.
type SyncResult struct {
	Deltas map[Panel]stylediff.Delta
	// Added lists the sources newly added to panel B, in delta order.
	Added []AddedSource
}

// Store holds the two panel style documents. Documents handed in or out are
// always copies; nothing the caller holds aliases panel state.
type Store struct {
	mu   sync.RWMutex
	docs map[Panel]*style.Document
}

// NewStore returns an uninitialized store.
func NewStore() *Store {
	return &Store{docs: make(map[Panel]*style.Document, len(Panels))}
}

// Initialize replaces both panels with independent copies of master.
func (s *Store) Initialize(master *style.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range Panels {
		doc := master.Clone()
		if doc == nil {
			doc = style.New()
		}
		s.docs[p] = doc
	}
}

// Initialized reports whether both panels hold a document.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[PanelA] != nil && s.docs[PanelB] != nil
}

// Reset drops both panel documents.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.docs)
}

// Document returns a copy of a panel's document, or false if the panel is
// not initialized.
func (s *Store) Document(p Panel) (*style.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := s.docs[p]
	if doc == nil {
		return nil, false
	}
	return doc.Clone(), true
}

// ApplyMasterDelta brings both panels' ID sets in line with master and
// returns the sources added to panel B. Layers that already exist in a panel
// keep their panel-specific content. It is a no-op on an uninitialized store.
func (s *Store) ApplyMasterDelta(master *style.Document) []AddedSource {
	return s.Sync(master).Added
}

// Sync is ApplyMasterDelta with the per-panel deltas included.
func (s *Store) Sync(master *style.Document) SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := SyncResult{Deltas: make(map[Panel]stylediff.Delta, len(Panels))}
	if master == nil {
		master = style.New()
	}
	for _, p := range Panels {
		doc := s.docs[p]
		if doc == nil {
			continue
		}
		d := stylediff.Compute(master, doc)
		applyDelta(doc, master, d)
		res.Deltas[p] = d
		if p == PanelB {
			for _, id := range d.SourcesAdded {
				res.Added = append(res.Added, AddedSource{ID: id, Type: master.Sources[id].Type})
			}
		}
	}
	return res
}

func applyDelta(doc, master *style.Document, d stylediff.Delta) {
	for _, id := range d.LayersRemoved {
		doc.RemoveLayer(id)
	}
	for _, id := range d.SourcesRemoved {
		delete(doc.Sources, id)
	}
	if doc.Sources == nil {
		doc.Sources = make(map[string]style.Source, len(d.SourcesAdded))
	}
	for _, id := range d.SourcesAdded {
		doc.Sources[id] = master.Sources[id].Clone()
	}
	doc.Layers = append(doc.Layers, d.LayersAdded...)

	// A kept layer whose source vanished was re-pointed in the master under
	// the same ID; take the master's version so no layer dangles.
	for i := range doc.Layers {
		l := &doc.Layers[i]
		if l.Source == "" || doc.HasSource(l.Source) {
			continue
		}
		if ml, ok := master.Layer(l.ID); ok {
			*l = ml.Clone()
		}
	}
}

// UpdateLayerStyle replaces the paint of every layer in panel p whose ID is
// layerID and sets its visibility. When u carries a tile URL, raster sources
// referenced by the matched layers are rewritten to it. It reports whether
// any layer matched; an uninitialized panel matches nothing.
func (s *Store) UpdateLayerStyle(p Panel, layerID string, u style.Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[p]
	if doc == nil {
		return false
	}

	matched := false
	sources := make(map[string]bool)
	for i := range doc.Layers {
		l := &doc.Layers[i]
		if l.ID != layerID {
			continue
		}
		matched = true
		l.Paint = clone.Clone(u.Paint)
		if l.Paint == nil {
			l.Paint = map[string]any{}
		}
		if u.Visibility != "" {
			l.SetVisibility(u.Visibility)
		}
		if l.Source != "" {
			sources[l.Source] = true
		}
	}
	if !matched {
		return false
	}

	if u.TileURL != "" {
		for id := range sources {
			src, ok := doc.Sources[id]
			if !ok || src.Type != style.SourceRaster {
				continue
			}
			src.Tiles = []string{u.TileURL}
			doc.Sources[id] = src
		}
	}
	return true
}
