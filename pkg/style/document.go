package style

import (
	"encoding/json"
	"fmt"
	"sort"

	clone "github.com/huandu/go-clone/generic"

	"github.com/matzehuels/stylesync/pkg/cache"
)

// =============================================================================
// Constants
// =============================================================================

// Source type tags.
const (
	SourceVector    = "vector"
	SourceRaster    = "raster"
	SourceGeoJSON   = "geojson"
	SourceRasterDEM = "raster-dem"
	SourceImage     = "image"
)

// Layout visibility values.
const (
	Visible = "visible"
	Hidden  = "none"
)

// layoutVisibility is the layout key holding a layer's visibility flag.
const layoutVisibility = "visibility"

// =============================================================================
// Document
// =============================================================================

// Document is a style document: a set of data sources and an ordered list of
// drawable layers referencing them.
type Document struct {
	Version int               `json:"version" bson:"version"`
	Name    string            `json:"name,omitempty" bson:"name,omitempty"`
	Sprite  string            `json:"sprite,omitempty" bson:"sprite,omitempty"`
	Glyphs  string            `json:"glyphs,omitempty" bson:"glyphs,omitempty"`
	Center  []float64         `json:"center,omitempty" bson:"center,omitempty"`
	Zoom    float64           `json:"zoom,omitempty" bson:"zoom,omitempty"`
	Bearing float64           `json:"bearing,omitempty" bson:"bearing,omitempty"`
	Pitch   float64           `json:"pitch,omitempty" bson:"pitch,omitempty"`
	Sources map[string]Source `json:"sources" bson:"sources"`
	Layers  []Layer           `json:"layers" bson:"layers"`
}

// Source describes a tile or data source.
type Source struct {
	Type        string   `json:"type" bson:"type"`
	Tiles       []string `json:"tiles,omitempty" bson:"tiles,omitempty"`
	URL         string   `json:"url,omitempty" bson:"url,omitempty"`
	TileSize    int      `json:"tileSize,omitempty" bson:"tileSize,omitempty"`
	MinZoom     float64  `json:"minzoom,omitempty" bson:"minzoom,omitempty"`
	MaxZoom     float64  `json:"maxzoom,omitempty" bson:"maxzoom,omitempty"`
	Attribution string   `json:"attribution,omitempty" bson:"attribution,omitempty"`
	Data        any      `json:"data,omitempty" bson:"data,omitempty"`
}

// Layer is a single drawable primitive (fill, line, circle, raster, ...).
type Layer struct {
	ID          string         `json:"id" bson:"id"`
	Type        string         `json:"type" bson:"type"`
	Source      string         `json:"source,omitempty" bson:"source,omitempty"`
	SourceLayer string         `json:"source-layer,omitempty" bson:"source_layer,omitempty"`
	Paint       map[string]any `json:"paint,omitempty" bson:"paint,omitempty"`
	Layout      map[string]any `json:"layout,omitempty" bson:"layout,omitempty"`
	Filter      any            `json:"filter,omitempty" bson:"filter,omitempty"`
	MinZoom     float64        `json:"minzoom,omitempty" bson:"minzoom,omitempty"`
	MaxZoom     float64        `json:"maxzoom,omitempty" bson:"maxzoom,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// Update is a computed paint/layout change for one drawable layer.
// TileURL, when set, replaces the tiles of the raster source the layer draws from.
type Update struct {
	Paint      map[string]any `json:"paint"`
	Visibility string         `json:"visibility"`
	TileURL    string         `json:"tile_url,omitempty"`
}

// New returns an empty version 8 document.
func New() *Document {
	return &Document{
		Version: 8,
		Sources: make(map[string]Source),
		Layers:  []Layer{},
	}
}

// Clone returns a structural copy of d. A nil document clones to nil.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := clone.Clone(*d)
	if c.Sources == nil {
		c.Sources = make(map[string]Source)
	}
	return &c
}

// Clone returns a structural copy of s.
func (s Source) Clone() Source { return clone.Clone(s) }

// Clone returns a structural copy of l.
func (l Layer) Clone() Layer { return clone.Clone(l) }

// Visibility returns the layer's layout visibility, defaulting to [Visible].
func (l *Layer) Visibility() string {
	if v, ok := l.Layout[layoutVisibility].(string); ok && v != "" {
		return v
	}
	return Visible
}

// SetVisibility sets the layout visibility flag, creating the layout map if needed.
func (l *Layer) SetVisibility(v string) {
	if l.Layout == nil {
		l.Layout = make(map[string]any)
	}
	l.Layout[layoutVisibility] = v
}

// =============================================================================
// Queries
// =============================================================================

// SourceIDs returns the source IDs in sorted order.
func (d *Document) SourceIDs() []string {
	if d == nil {
		return nil
	}
	ids := make([]string, 0, len(d.Sources))
	for id := range d.Sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LayerIDs returns the layer IDs in draw order.
func (d *Document) LayerIDs() []string {
	if d == nil {
		return nil
	}
	ids := make([]string, len(d.Layers))
	for i, l := range d.Layers {
		ids[i] = l.ID
	}
	return ids
}

// Layer returns a pointer to the first layer with the given ID.
func (d *Document) Layer(id string) (*Layer, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Layers {
		if d.Layers[i].ID == id {
			return &d.Layers[i], true
		}
	}
	return nil, false
}

// HasSource reports whether a source with the given ID exists.
func (d *Document) HasSource(id string) bool {
	if d == nil {
		return false
	}
	_, ok := d.Sources[id]
	return ok
}

// RemoveLayer deletes every layer with the given ID and reports how many were removed.
func (d *Document) RemoveLayer(id string) int {
	kept := d.Layers[:0]
	removed := 0
	for _, l := range d.Layers {
		if l.ID == id {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	// Clear the tail so dropped layers don't stay reachable.
	for i := len(kept); i < len(d.Layers); i++ {
		d.Layers[i] = Layer{}
	}
	d.Layers = kept
	return removed
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks referential integrity: layer IDs are unique and every
// layer that names a source references one present in the document.
// The "background" layer type has no source and is always accepted.
func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("nil document")
	}
	seen := make(map[string]bool, len(d.Layers))
	for _, l := range d.Layers {
		if l.ID == "" {
			return fmt.Errorf("layer with empty id")
		}
		if seen[l.ID] {
			return fmt.Errorf("duplicate layer id %q", l.ID)
		}
		seen[l.ID] = true
		if l.Source == "" {
			if l.Type != "background" {
				return fmt.Errorf("layer %q: missing source", l.ID)
			}
			continue
		}
		if _, ok := d.Sources[l.Source]; !ok {
			return fmt.Errorf("layer %q: unknown source %q", l.ID, l.Source)
		}
	}
	return nil
}

// Fingerprint returns the SHA-256 of the document's JSON encoding.
// Map keys are sorted by encoding/json, so equal documents share a fingerprint.
func (d *Document) Fingerprint() string {
	data, _ := json.Marshal(d)
	return cache.Hash(data)
}
