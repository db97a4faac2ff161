package snapshot

import (
	"context"
	"reflect"
	"testing"

	"github.com/matzehuels/stylesync/pkg/compare"
	serrors "github.com/matzehuels/stylesync/pkg/errors"
	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/scene"
	"github.com/matzehuels/stylesync/pkg/style"
	"github.com/matzehuels/stylesync/pkg/styling"
)

const testScene = `
basemap = "OSM"

[[basemaps]]
name = "OSM"
tiles = "https://osm/{z}/{x}/{y}.png"

[[layers]]
id = 1
name = "Roads"
visible = true
  [[layers.frames]]
  id = 10
  kind = "vector"
  tile_url = "https://v/10/{z}/{x}/{y}.pbf"
  [[layers.frames]]
  id = 11
  kind = "vector"
  tile_url = "https://v/11/{z}/{x}/{y}.pbf"

[[layers]]
id = 2
name = "Depth"
visible = true
  [[layers.frames]]
  id = 20
  kind = "raster"
  tile_url = "https://r/{z}/{x}/{y}.png"

[[selected]]
layer = 1
`

func buildRuntime(t *testing.T) *scene.Runtime {
	t.Helper()
	s, err := scene.Parse([]byte(testScene))
	if err != nil {
		t.Fatal(err)
	}
	rt, err := s.Build(scene.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return rt
}

func TestCaptureRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	rt := buildRuntime(t)
	c := rt.Controller

	if err := c.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	depth, _ := rt.Select(ctx, 2)
	rt.SetFrame(ctx, layers.Key{LayerID: 1}, 1)
	c.SetVisibility(compare.PanelB, "Roads", false)
	c.SetLayerStyle(ctx, compare.PanelB, depth, styling.LayerStyle{Colormap: "magma"}, 0.3)
	c.UpdateSlider(compare.Slider{Percentage: 25})
	c.SetOrientation(compare.Horizontal)

	snap, err := Capture("flood view", c, rt.Catalog, rt.Map)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Active || len(snap.Selected) != 2 || snap.Selected[1].Frame != 1 {
		t.Fatalf("captured %+v", snap)
	}
	wantB, _ := c.PanelStyle(compare.PanelB)
	wantVisible := c.VisibleLayers(compare.PanelB)

	fresh := buildRuntime(t)
	if err := Restore(ctx, snap, fresh.Controller, fresh.Catalog, fresh.Map); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	fc := fresh.Controller
	if fc.State() != compare.Active {
		t.Fatal("restored comparison should be active")
	}
	// Layer order inside the panel document follows sync history, so
	// compare by ID.
	gotB, _ := fc.PanelStyle(compare.PanelB)
	if !reflect.DeepEqual(layersByID(gotB), layersByID(wantB)) {
		t.Errorf("panel B layers differ after restore:\n got %v\nwant %v", gotB.LayerIDs(), wantB.LayerIDs())
	}
	if !reflect.DeepEqual(gotB.Sources, wantB.Sources) {
		t.Errorf("panel B sources differ after restore")
	}
	if got := fc.VisibleLayers(compare.PanelB); !reflect.DeepEqual(got, wantVisible) {
		t.Errorf("visible = %v, want %v", got, wantVisible)
	}
	if fc.Slider().Percentage != 25 || fc.Orientation() != compare.Horizontal {
		t.Errorf("slider/orientation = %+v / %q", fc.Slider(), fc.Orientation())
	}
	if _, ok := fc.Overrides().Get(compare.PanelB, depth); !ok {
		t.Error("override not restored")
	}
}

func layersByID(d *style.Document) map[string]style.Layer {
	m := make(map[string]style.Layer, len(d.Layers))
	for _, l := range d.Layers {
		m[l.ID] = l
	}
	return m
}

func TestRestoreInactiveDeactivates(t *testing.T) {
	ctx := context.Background()
	rt := buildRuntime(t)
	snap, err := Capture("idle", rt.Controller, rt.Catalog, rt.Map)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Active {
		t.Fatal("captured an active comparison")
	}

	rt.Controller.Activate(ctx)
	if err := Restore(ctx, snap, rt.Controller, rt.Catalog, rt.Map); err != nil {
		t.Fatal(err)
	}
	if rt.Controller.State() != compare.Inactive {
		t.Error("restore of an idle snapshot should deactivate")
	}
}

func TestRestoreRejectsBeforeMutating(t *testing.T) {
	depth := layers.Key{LayerID: 2}
	tests := []struct {
		name string
		edit func(*Snapshot)
		code serrors.Code
	}{
		{"unknown layer", func(s *Snapshot) { s.Selected = []Selected{{Key: layers.Key{LayerID: 42}}} }, serrors.ErrCodeLayerNotFound},
		{"frame out of range", func(s *Snapshot) { s.Selected = []Selected{{Key: depth, Frame: 5}} }, serrors.ErrCodeInvalidInput},
		{"duplicate key", func(s *Snapshot) { s.Selected = []Selected{{Key: depth}, {Key: depth}} }, serrors.ErrCodeInvalidInput},
		{"unknown basemap", func(s *Snapshot) { s.Selected = []Selected{{Key: depth}}; s.Basemap = "Moon" }, serrors.ErrCodeNotFound},
		{"unknown panel", func(s *Snapshot) { s.Panels["C"] = PanelState{} }, serrors.ErrCodeInvalidPanel},
		{"bad slider", func(s *Snapshot) { s.Slider.Percentage = 150 }, serrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			rt := buildRuntime(t)
			c := rt.Controller
			if err := c.Activate(ctx); err != nil {
				t.Fatal(err)
			}
			c.SetLayerStyle(ctx, compare.PanelA, layers.Key{LayerID: 1}, styling.LayerStyle{}, 0.5)
			before := rt.Catalog.Selected()
			master := rt.Map.CurrentStyle().SourceIDs()
			panelB, _ := c.PanelStyle(compare.PanelB)
			groups := c.DisplayGroups(compare.PanelB)

			snap, _ := New("broken")
			tt.edit(snap)
			err := Restore(ctx, snap, c, rt.Catalog, rt.Map)
			if got := serrors.GetCode(err); got != tt.code {
				t.Fatalf("Restore error = %v (code %q), want %q", err, got, tt.code)
			}

			if got := rt.Catalog.Selected(); !reflect.DeepEqual(got, before) {
				t.Errorf("selection = %+v, want %+v", got, before)
			}
			if got := rt.Map.CurrentStyle().SourceIDs(); !reflect.DeepEqual(got, master) {
				t.Errorf("master sources = %v, want %v", got, master)
			}
			if got, _ := c.PanelStyle(compare.PanelB); !reflect.DeepEqual(got.SourceIDs(), panelB.SourceIDs()) {
				t.Errorf("panel B sources = %v, want %v", got.SourceIDs(), panelB.SourceIDs())
			}
			if got := c.DisplayGroups(compare.PanelB); !reflect.DeepEqual(got, groups) {
				t.Errorf("panel B groups = %+v, want %+v", got, groups)
			}
			if rt.Map.CurrentBasemap() != "OSM" {
				t.Errorf("basemap = %q", rt.Map.CurrentBasemap())
			}
			if c.Overrides().Len() != 1 {
				t.Errorf("overrides = %d, want 1", c.Overrides().Len())
			}
		})
	}
}
