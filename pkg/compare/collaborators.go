package compare

import (
	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/style"
)

// NoBasemap is the basemap name that suppresses base layers entirely.
const NoBasemap = "None"

// ClickHandler receives a feature click on a comparison panel.
type ClickHandler func(p Panel, drawableID string, properties map[string]any)

// Surface is the primary rendering surface that owns the master style.
type Surface interface {
	// CurrentStyle returns a copy of the master style document.
	CurrentStyle() *style.Document
	// CameraPose returns the primary map's camera.
	CameraPose() ViewState
	// RegisterClickHandler wires h to the fill, line and circle drawables
	// of a comparison-panel source.
	RegisterClickHandler(sourceID, sourceType string, h ClickHandler) error
	// HasLayer reports whether a drawable exists on the primary map.
	HasLayer(id string) bool
	// BaseLayerIDs returns the drawables of the current basemap, bottom first.
	BaseLayerIDs() []string
	// CurrentBasemap returns the basemap name, or NoBasemap.
	CurrentBasemap() string
}

// Groups is the layer-group catalog as seen by the engine.
// *layers.Catalog satisfies it.
type Groups interface {
	Selected() []layers.Group
	Lookup(k layers.Key) (layers.Group, bool)
	DrawableIDs(g layers.Group) []string
	Frames(g layers.Group) []layers.Frame
	CurrentFrameIndex(g layers.Group) int
}

var _ Groups = (*layers.Catalog)(nil)
