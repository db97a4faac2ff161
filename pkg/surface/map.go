package surface

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stylesync/pkg/compare"
	serrors "github.com/matzehuels/stylesync/pkg/errors"
	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/style"
	"github.com/matzehuels/stylesync/pkg/styling"
)

// Options configures a Map.
type Options struct {
	Basemaps []Basemap
	Basemap  string // initial basemap; defaults to the first one
	Camera   compare.ViewState
	Styler   styling.Styler
	Logger   *log.Logger
}

// Map is the primary rendering surface. It is safe for concurrent use.
type Map struct {
	mu sync.RWMutex

	catalog  *layers.Catalog
	styler   styling.Styler
	logger   *log.Logger
	basemaps map[string]Basemap
	basemap  string
	camera   compare.ViewState
	styles   map[layers.Key]styling.LayerStyle

	doc      *style.Document
	clicks   map[string]compare.ClickHandler // by drawable ID
	bindings map[string]bool                 // source IDs with handlers
}

// New creates a map over catalog and renders the initial master.
func New(catalog *layers.Catalog, opts Options) (*Map, error) {
	if opts.Styler == nil {
		opts.Styler = styling.NewDefault()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if len(opts.Basemaps) == 0 {
		opts.Basemaps = DefaultBasemaps()
	}
	m := &Map{
		catalog:  catalog,
		styler:   opts.Styler,
		logger:   opts.Logger,
		basemaps: make(map[string]Basemap, len(opts.Basemaps)),
		camera:   opts.Camera,
		styles:   make(map[layers.Key]styling.LayerStyle),
		clicks:   make(map[string]compare.ClickHandler),
		bindings: make(map[string]bool),
	}
	for _, b := range opts.Basemaps {
		if b.Name == "" || b.Name == compare.NoBasemap {
			return nil, serrors.New(serrors.ErrCodeInvalidScene, "invalid basemap name %q", b.Name)
		}
		if _, dup := m.basemaps[b.Name]; dup {
			return nil, serrors.New(serrors.ErrCodeInvalidScene, "duplicate basemap %q", b.Name)
		}
		m.basemaps[b.Name] = b
	}
	m.basemap = opts.Basemap
	if m.basemap == "" {
		m.basemap = opts.Basemaps[0].Name
	}
	if err := m.checkBasemap(m.basemap); err != nil {
		return nil, err
	}
	m.Rebuild()
	return m, nil
}

// =============================================================================
// Mutations
// =============================================================================

// Rebuild re-renders the master from the basemap and the current selection.
// Call it after changing the catalog.
func (m *Map) Rebuild() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = m.render()
}

// SetBasemap switches the basemap and re-renders. "None" removes it.
func (m *Map) SetBasemap(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkBasemap(name); err != nil {
		return err
	}
	m.basemap = name
	m.doc = m.render()
	return nil
}

// CheckBasemap reports whether name is an available basemap or "None".
func (m *Map) CheckBasemap(name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkBasemap(name)
}

// SetCamera moves the camera.
func (m *Map) SetCamera(v compare.ViewState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.camera = v
}

// SetGroupStyle sets the style the primary map draws a layer copy with.
// It takes effect on the next Rebuild.
func (m *Map) SetGroupStyle(k layers.Key, ls styling.LayerStyle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.styles[k] = ls.WithOpacity(ls.Opacity)
}

// Click delivers a feature click on drawableID to the handler registered for
// its source. It reports whether a handler was found.
func (m *Map) Click(p compare.Panel, drawableID string, props map[string]any) bool {
	m.mu.RLock()
	h, ok := m.clicks[drawableID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	h(p, drawableID, props)
	return true
}

// =============================================================================
// compare.Surface
// =============================================================================

// CurrentStyle returns a copy of the master document.
func (m *Map) CurrentStyle() *style.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.Clone()
}

// CameraPose returns the camera.
func (m *Map) CameraPose() compare.ViewState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.camera
}

// RegisterClickHandler binds h to the fill, line and circle drawables of a
// vector source, replacing any earlier binding for that source.
func (m *Map) RegisterClickHandler(sourceID, sourceType string, h compare.ClickHandler) error {
	if sourceType != style.SourceVector {
		return serrors.New(serrors.ErrCodeUnsupported, "click handlers need a vector source, %s is %s", sourceID, sourceType)
	}
	if h == nil {
		return serrors.New(serrors.ErrCodeInvalidInput, "nil click handler for %s", sourceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger.Debug("click handler registered", "source", sourceID, "replaced", m.bindings[sourceID])
	m.bindings[sourceID] = true
	for _, suffix := range layers.VectorDrawableSuffixes {
		m.clicks[sourceID+"."+suffix] = h
	}
	return nil
}

// HasLayer reports whether the master has a layer with the given ID.
func (m *Map) HasLayer(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.doc.Layer(id)
	return ok
}

// BaseLayerIDs returns the current basemap's layer IDs, bottom first.
func (m *Map) BaseLayerIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.basemaps[m.basemap].LayerIDs()
}

// CurrentBasemap returns the basemap name.
func (m *Map) CurrentBasemap() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.basemap
}

// Basemaps lists the available basemap names, "None" last.
func (m *Map) Basemaps() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return basemapNames(m.basemaps)
}

// ClickSources lists the sources with a click handler, sorted.
func (m *Map) ClickSources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.bindings))
	for id := range m.bindings {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Catalog returns the catalog the map renders.
func (m *Map) Catalog() *layers.Catalog { return m.catalog }

// =============================================================================
// Rendering (m.mu held)
// =============================================================================

func (m *Map) checkBasemap(name string) error {
	if name == compare.NoBasemap {
		return nil
	}
	if _, ok := m.basemaps[name]; !ok {
		return serrors.New(serrors.ErrCodeNotFound, "unknown basemap %q", name)
	}
	return nil
}

func (m *Map) render() *style.Document {
	doc := style.New()
	doc.Center = []float64{m.camera.Center[0], m.camera.Center[1]}
	doc.Zoom = m.camera.Zoom
	doc.Bearing = m.camera.Bearing
	doc.Pitch = m.camera.Pitch

	if b, ok := m.basemaps[m.basemap]; ok {
		for id, s := range b.Sources {
			doc.Sources[id] = s.Clone()
		}
		for _, l := range b.Layers {
			doc.Layers = append(doc.Layers, l.Clone())
		}
	}

	groups := m.catalog.Selected()
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		f, ok := m.catalog.CurrentFrame(g)
		if !ok {
			m.logger.Warn("group has no current frame", "layer", g.Key)
			continue
		}
		m.renderGroup(doc, g, f)
	}
	return doc
}

func (m *Map) renderGroup(doc *style.Document, g layers.Group, f layers.Frame) {
	src := layers.SourceID(g.Key, f)
	doc.Sources[src] = style.Source{Type: f.Kind, Tiles: []string{f.TileURL}}

	ls, styled := m.styles[g.Key]
	visibility := style.Visible
	if !g.Visible {
		visibility = style.Hidden
	}
	for _, id := range layers.DrawableIDsForFrame(g.Key, f) {
		l := style.Layer{
			ID:     id,
			Type:   id[strings.LastIndexByte(id, '.')+1:],
			Source: src,
			Metadata: map[string]any{
				"stylesync:group": g.Name,
				"stylesync:frame": f.ID,
			},
		}
		if f.Vector() {
			l.SourceLayer = f.SourceLayer
		}
		l.SetVisibility(visibility)
		if styled {
			if u, ok := m.styler.ComputeLayerStyle(id, ls, f, f.Vector(), visibility); ok {
				l.Paint = u.Paint
				if u.TileURL != "" && !f.Vector() {
					s := doc.Sources[src]
					s.Tiles = []string{u.TileURL}
					doc.Sources[src] = s
				}
			}
		}
		doc.Layers = append(doc.Layers, l)
	}
}

func (m *Map) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("surface(basemap=%s, sources=%d, layers=%d)", m.basemap, len(m.doc.Sources), len(m.doc.Layers))
}

var _ compare.Surface = (*Map)(nil)
