// Package layers is the layer-group catalog: the user-facing layers a scene
// offers, which of them are selected (and in what order), and the current
// animation frame of each selected copy. The selection is kept topmost
// first: a newly selected copy draws above everything selected before it.
//
// A logical layer can be selected more than once. Each selection is a
// [Group] copy distinguished by its CopyID, and each copy expands into a set
// of drawable IDs derived from its current [Frame]:
//
//	<layer>.<copy>.<frame>.vector  ->  .fill  .line  .circle
//	<layer>.<copy>.<frame>.raster  ->  .raster
package layers

import (
	"fmt"
	"slices"
	"sync"

	serrors "github.com/matzehuels/stylesync/pkg/errors"
)

// Frame kinds.
const (
	KindVector = "vector"
	KindRaster = "raster"
)

// VectorDrawableSuffixes are the primitives a vector frame expands into.
var VectorDrawableSuffixes = []string{"fill", "line", "circle"}

// Key identifies one selected copy of a logical layer.
type Key struct {
	LayerID int `json:"layer_id" bson:"layer_id" toml:"layer"`
	CopyID  int `json:"copy_id" bson:"copy_id" toml:"copy"`
}

// String returns "layer.copy".
func (k Key) String() string { return fmt.Sprintf("%d.%d", k.LayerID, k.CopyID) }

// Frame is one time step (or variant) of a layer's data.
type Frame struct {
	ID          int    `json:"id" toml:"id"`
	Index       int    `json:"index" toml:"index"`
	Name        string `json:"name" toml:"name"`
	Kind        string `json:"kind" toml:"kind"`
	TileURL     string `json:"tile_url" toml:"tile_url"`
	SourceLayer string `json:"source_layer,omitempty" toml:"source_layer"`
}

// Vector reports whether the frame carries vector tiles.
func (f Frame) Vector() bool { return f.Kind == KindVector }

// Layer is a logical layer offered by a scene.
type Layer struct {
	ID      int     `json:"id" toml:"id"`
	Name    string  `json:"name" toml:"name"`
	Visible bool    `json:"visible" toml:"visible"`
	Frames  []Frame `json:"frames" toml:"frames"`
}

// Group is one selected copy of a logical layer.
type Group struct {
	Key
	Name    string
	Visible bool
}

// SourceID returns the source ID used for a group's frame.
func SourceID(k Key, f Frame) string {
	return fmt.Sprintf("%d.%d.%d.%s", k.LayerID, k.CopyID, f.ID, f.Kind)
}

// DrawableIDsForFrame returns the drawable IDs a frame expands into, in draw order.
func DrawableIDsForFrame(k Key, f Frame) []string {
	src := SourceID(k, f)
	if !f.Vector() {
		return []string{src + ".raster"}
	}
	ids := make([]string, len(VectorDrawableSuffixes))
	for i, s := range VectorDrawableSuffixes {
		ids[i] = src + "." + s
	}
	return ids
}

// =============================================================================
// Catalog
// =============================================================================

// Catalog holds the available layers and the current selection.
// It is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	layers   map[int]Layer
	selected []Group
	frames   map[Key]int
}

// NewCatalog creates a catalog offering the given layers.
func NewCatalog(available ...Layer) *Catalog {
	c := &Catalog{
		layers: make(map[int]Layer, len(available)),
		frames: make(map[Key]int),
	}
	for _, l := range available {
		c.layers[l.ID] = l
	}
	return c
}

// Layer returns the logical layer with the given ID.
func (c *Catalog) Layer(id int) (Layer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.layers[id]
	return l, ok
}

// Select puts a new copy of the layer on top of the selection and returns
// its key. Copy IDs start at 0 and increase per layer, so removed copies are never reused
// while later copies of the same layer remain selected.
func (c *Catalog) Select(layerID int) (Key, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.layers[layerID]
	if !ok {
		return Key{}, serrors.New(serrors.ErrCodeLayerNotFound, "unknown layer %d", layerID)
	}
	copyID := 0
	for _, g := range c.selected {
		if g.LayerID == layerID && g.CopyID >= copyID {
			copyID = g.CopyID + 1
		}
	}
	k := Key{LayerID: layerID, CopyID: copyID}
	c.selected = slices.Insert(c.selected, 0, Group{Key: k, Name: displayName(l, copyID), Visible: l.Visible})
	return k, nil
}

// Deselect removes a selected copy. It reports whether the copy was selected.
func (c *Catalog) Deselect(k Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(k)
	if i < 0 {
		return false
	}
	c.selected = slices.Delete(c.selected, i, i+1)
	delete(c.frames, k)
	return true
}

// Reorder replaces the selection order. Keys must be a permutation of the
// current selection.
func (c *Catalog) Reorder(keys []Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(keys) != len(c.selected) {
		return serrors.New(serrors.ErrCodeInvalidInput, "reorder: got %d keys, have %d selected", len(keys), len(c.selected))
	}
	next := make([]Group, 0, len(keys))
	seen := make(map[Key]bool, len(keys))
	for _, k := range keys {
		i := c.indexOf(k)
		if i < 0 {
			return serrors.New(serrors.ErrCodeLayerNotFound, "reorder: layer %s not selected", k)
		}
		if seen[k] {
			return serrors.New(serrors.ErrCodeInvalidInput, "reorder: duplicate key %s", k)
		}
		seen[k] = true
		next = append(next, c.selected[i])
	}
	c.selected = next
	return nil
}

// SetSelection replaces the selection with the given copies, topmost first.
// Frames of copies that stay selected are kept; all others reset to 0.
func (c *Catalog) SetSelection(keys []Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]Group, 0, len(keys))
	seen := make(map[Key]bool, len(keys))
	for _, k := range keys {
		l, ok := c.layers[k.LayerID]
		if !ok {
			return serrors.New(serrors.ErrCodeLayerNotFound, "unknown layer %d", k.LayerID)
		}
		if seen[k] || k.CopyID < 0 {
			return serrors.New(serrors.ErrCodeInvalidInput, "invalid key %s", k)
		}
		seen[k] = true
		next = append(next, Group{Key: k, Name: displayName(l, k.CopyID), Visible: l.Visible})
	}
	for k := range c.frames {
		if !seen[k] {
			delete(c.frames, k)
		}
	}
	c.selected = next
	return nil
}

// SetFrame selects the frame index shown for a selected copy.
func (c *Catalog) SetFrame(k Key, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(k) < 0 {
		return serrors.New(serrors.ErrCodeLayerNotFound, "layer %s not selected", k)
	}
	if err := c.checkFrame(k.LayerID, index); err != nil {
		return fmt.Errorf("layer %s: %w", k, err)
	}
	c.frames[k] = index
	return nil
}

// CheckFrame reports whether index is a valid frame of the logical layer,
// without touching the selection.
func (c *Catalog) CheckFrame(layerID, index int) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.checkFrame(layerID, index)
}

func (c *Catalog) checkFrame(layerID, index int) error {
	l, ok := c.layers[layerID]
	if !ok {
		return serrors.New(serrors.ErrCodeLayerNotFound, "unknown layer %d", layerID)
	}
	if index < 0 || index >= len(l.Frames) {
		return serrors.New(serrors.ErrCodeInvalidInput, "frame index %d out of range", index)
	}
	return nil
}

// Selected returns a copy of the selection, topmost group first.
func (c *Catalog) Selected() []Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.selected)
}

// Lookup returns the selected copy with the given key.
func (c *Catalog) Lookup(k Key) (Group, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(k); i >= 0 {
		return c.selected[i], true
	}
	return Group{}, false
}

// Frames returns the frames of a group's logical layer.
func (c *Catalog) Frames(g Group) []Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.layers[g.LayerID].Frames)
}

// CurrentFrameIndex returns the frame index shown for a group (0 by default).
func (c *Catalog) CurrentFrameIndex(g Group) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames[g.Key]
}

// CurrentFrame resolves the frame shown for a group.
// It reports false when the layer has no frame at the current index.
func (c *Catalog) CurrentFrame(g Group) (Frame, bool) {
	frames := c.Frames(g)
	i := c.CurrentFrameIndex(g)
	if i < 0 || i >= len(frames) {
		return Frame{}, false
	}
	return frames[i], true
}

// DrawableIDs returns the drawable IDs of a group's current frame.
func (c *Catalog) DrawableIDs(g Group) []string {
	f, ok := c.CurrentFrame(g)
	if !ok {
		return nil
	}
	return DrawableIDsForFrame(g.Key, f)
}

func (c *Catalog) indexOf(k Key) int {
	return slices.IndexFunc(c.selected, func(g Group) bool { return g.Key == k })
}

func displayName(l Layer, copyID int) string {
	if copyID == 0 {
		return l.Name
	}
	return fmt.Sprintf("%s (%d)", l.Name, copyID)
}
