package scene

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stylesync/pkg/cache"
	"github.com/matzehuels/stylesync/pkg/compare"
	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/styling"
	"github.com/matzehuels/stylesync/pkg/surface"
)

// BuildOptions configures Build.
type BuildOptions struct {
	Logger *log.Logger
	// Cache memoizes computed styles. Nil disables caching.
	Cache   cache.Cache
	OnClick compare.ClickHandler
}

// Runtime is a scene brought to life: the catalog, the primary map
// rendering it, and a comparison controller wired to both.
//
// Mutations that change the master go through Runtime so that the map is
// re-rendered and the controller is notified in one step.
type Runtime struct {
	Scene      *Scene
	Catalog    *layers.Catalog
	Map        *surface.Map
	Styler     styling.Styler
	Controller *compare.Controller

	logger *log.Logger
}

// Build creates a runtime with the scene's initial selection, camera and
// stored overrides. The comparison starts inactive.
func (s *Scene) Build(opts BuildOptions) (*Runtime, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	cat := layers.NewCatalog(s.Layers...)
	var styler styling.Styler = styling.NewDefault()
	if opts.Cache != nil {
		styler = styling.NewCachedStyler(styling.NewDefault(), opts.Cache, cache.NewScopedKeyer(nil, "scene:"+s.Name+":"))
	}

	var basemaps []surface.Basemap
	for _, b := range s.Basemaps {
		basemaps = append(basemaps, surface.RasterBasemap(b.Name, b.Tiles, b.Attribution))
	}
	m, err := surface.New(cat, surface.Options{
		Basemaps: basemaps,
		Basemap:  s.Basemap,
		Camera:   s.Camera,
		Styler:   styler,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	for _, sel := range s.Selected {
		k, err := cat.Select(sel.Layer)
		if err != nil {
			return nil, err
		}
		if err := cat.SetFrame(k, sel.Frame); err != nil {
			return nil, err
		}
		if sel.Style != nil {
			m.SetGroupStyle(k, *sel.Style)
		}
	}
	m.Rebuild()

	overrides := compare.NewOpacityLedger()
	for _, o := range s.Overrides {
		p, _ := compare.ParsePanel(o.Panel)
		overrides.Put(p, layers.Key{LayerID: o.Layer, CopyID: o.Copy}, compare.Override{Style: o.Style, Opacity: o.Opacity})
	}

	ctrl := compare.NewController(m, cat, styler, compare.Options{
		Logger:    opts.Logger,
		Overrides: overrides,
		OnClick:   opts.OnClick,
	})
	return &Runtime{
		Scene:      s,
		Catalog:    cat,
		Map:        m,
		Styler:     styler,
		Controller: ctrl,
		logger:     opts.Logger,
	}, nil
}

// Select adds a copy of a layer on top of the selection.
func (r *Runtime) Select(ctx context.Context, layerID int) (layers.Key, error) {
	k, err := r.Catalog.Select(layerID)
	if err != nil {
		return layers.Key{}, err
	}
	r.refresh(ctx)
	return k, nil
}

// Deselect removes a layer copy. It reports whether the copy was selected.
func (r *Runtime) Deselect(ctx context.Context, k layers.Key) bool {
	if !r.Catalog.Deselect(k) {
		return false
	}
	r.refresh(ctx)
	return true
}

// SetFrame changes the frame shown for a layer copy.
func (r *Runtime) SetFrame(ctx context.Context, k layers.Key, index int) error {
	if err := r.Catalog.SetFrame(k, index); err != nil {
		return err
	}
	r.refresh(ctx)
	return nil
}

// Reorder replaces the selection order.
func (r *Runtime) Reorder(ctx context.Context, keys []layers.Key) error {
	if err := r.Catalog.Reorder(keys); err != nil {
		return err
	}
	r.refresh(ctx)
	return nil
}

// SetBasemap switches the primary basemap.
func (r *Runtime) SetBasemap(ctx context.Context, name string) error {
	if err := r.Map.SetBasemap(name); err != nil {
		return err
	}
	r.Controller.MasterChanged(ctx)
	return nil
}

// Close releases the styler's cache, if any.
func (r *Runtime) Close() error {
	if c, ok := r.Styler.(*styling.CachedStyler); ok {
		return c.Close()
	}
	return nil
}

func (r *Runtime) refresh(ctx context.Context) compare.SyncReport {
	r.Map.Rebuild()
	report := r.Controller.MasterChanged(ctx)
	if len(report.Added) > 0 {
		r.logger.Debug("panels picked up new sources", "count", len(report.Added))
	}
	return report
}
