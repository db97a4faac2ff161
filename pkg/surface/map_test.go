package surface

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/stylesync/pkg/compare"
	serrors "github.com/matzehuels/stylesync/pkg/errors"
	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/style"
	"github.com/matzehuels/stylesync/pkg/styling"
)

func testCatalog() *layers.Catalog {
	return layers.NewCatalog(
		layers.Layer{ID: 1, Name: "Roads", Visible: true, Frames: []layers.Frame{
			{ID: 10, Kind: layers.KindVector, TileURL: "https://v/{z}/{x}/{y}.pbf", SourceLayer: "roads"},
		}},
		layers.Layer{ID: 2, Name: "Elevation", Visible: false, Frames: []layers.Frame{
			{ID: 20, Kind: layers.KindRaster, TileURL: "https://r/{z}/{x}/{y}.png"},
		}},
	)
}

func newTestMap(t *testing.T, cat *layers.Catalog) *Map {
	t.Helper()
	m, err := New(cat, Options{Basemaps: []Basemap{RasterBasemap("OSM", "https://osm/{z}/{x}/{y}.png", "")}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestMapRendersSelection(t *testing.T) {
	cat := testCatalog()
	cat.Select(1)
	cat.Select(2)
	m := newTestMap(t, cat)
	m.Rebuild()

	doc := m.CurrentStyle()
	if err := doc.Validate(); err != nil {
		t.Fatalf("master invalid: %v", err)
	}
	want := []string{
		"basemap.OSM.raster",
		"1.0.10.vector.fill", "1.0.10.vector.line", "1.0.10.vector.circle",
		"2.0.20.raster.raster",
	}
	if got := doc.LayerIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("layers = %v, want %v", got, want)
	}
	if got := doc.Sources["1.0.10.vector"].Type; got != style.SourceVector {
		t.Errorf("vector source type = %q", got)
	}
	fill, _ := doc.Layer("1.0.10.vector.fill")
	if fill.SourceLayer != "roads" {
		t.Errorf("source-layer = %q, want roads", fill.SourceLayer)
	}
	raster, _ := doc.Layer("2.0.20.raster.raster")
	if got := raster.Visibility(); got != style.Hidden {
		t.Errorf("hidden group drawn %q", got)
	}
	if !m.HasLayer("1.0.10.vector.circle") || m.HasLayer("nope") {
		t.Error("HasLayer disagrees with the master")
	}
}

func TestMapCurrentStyleIsCopy(t *testing.T) {
	m := newTestMap(t, testCatalog())
	doc := m.CurrentStyle()
	doc.Layers = nil
	if len(m.CurrentStyle().Layers) == 0 {
		t.Error("CurrentStyle aliased the master")
	}
}

func TestMapBasemap(t *testing.T) {
	m := newTestMap(t, testCatalog())
	if got := m.CurrentBasemap(); got != "OSM" {
		t.Errorf("basemap = %q", got)
	}
	if got := m.BaseLayerIDs(); !reflect.DeepEqual(got, []string{"basemap.OSM.raster"}) {
		t.Errorf("base layers = %v", got)
	}
	if got := m.Basemaps(); !reflect.DeepEqual(got, []string{"OSM", compare.NoBasemap}) {
		t.Errorf("basemaps = %v", got)
	}

	if err := m.SetBasemap(compare.NoBasemap); err != nil {
		t.Fatal(err)
	}
	if got := m.BaseLayerIDs(); len(got) != 0 {
		t.Errorf("base layers with None = %v", got)
	}
	if n := len(m.CurrentStyle().Layers); n != 0 {
		t.Errorf("master has %d layers without basemap or selection", n)
	}

	err := m.SetBasemap("Mars")
	if !serrors.Is(err, serrors.ErrCodeNotFound) {
		t.Errorf("unknown basemap error = %v", err)
	}
}

func TestNewRejectsBadBasemaps(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"reserved name", Options{Basemaps: []Basemap{{Name: compare.NoBasemap}}}},
		{"duplicate", Options{Basemaps: []Basemap{{Name: "a"}, {Name: "a"}}}},
		{"unknown initial", Options{Basemaps: []Basemap{{Name: "a"}}, Basemap: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(testCatalog(), tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMapClickHandlers(t *testing.T) {
	m := newTestMap(t, testCatalog())
	var got []string
	h := func(p compare.Panel, id string, _ map[string]any) {
		got = append(got, string(p)+":"+id)
	}

	if err := m.RegisterClickHandler("r", style.SourceRaster, h); !serrors.Is(err, serrors.ErrCodeUnsupported) {
		t.Errorf("raster registration error = %v", err)
	}
	if err := m.RegisterClickHandler("1.0.10.vector", style.SourceVector, h); err != nil {
		t.Fatal(err)
	}
	if err := m.RegisterClickHandler("1.0.10.vector", style.SourceVector, h); err != nil {
		t.Fatalf("re-registration: %v", err)
	}

	for _, suffix := range []string{"fill", "line", "circle"} {
		if !m.Click(compare.PanelB, "1.0.10.vector."+suffix, nil) {
			t.Errorf("no handler for %s", suffix)
		}
	}
	if m.Click(compare.PanelB, "1.0.10.vector.raster", nil) {
		t.Error("unexpected handler for raster drawable")
	}
	if len(got) != 3 || !strings.HasPrefix(got[0], "B:") {
		t.Errorf("handler calls = %v", got)
	}
	if srcs := m.ClickSources(); !reflect.DeepEqual(srcs, []string{"1.0.10.vector"}) {
		t.Errorf("click sources = %v", srcs)
	}
}

func TestMapGroupStyle(t *testing.T) {
	cat := testCatalog()
	k, _ := cat.Select(2)
	m := newTestMap(t, cat)
	m.SetGroupStyle(k, styling.LayerStyle{Opacity: 0.6, Colormap: "magma"})
	m.Rebuild()

	doc := m.CurrentStyle()
	l, _ := doc.Layer("2.0.20.raster.raster")
	if got := l.Paint["raster-opacity"]; got != 0.6 {
		t.Errorf("raster-opacity = %v", got)
	}
	if tiles := doc.Sources["2.0.20.raster"].Tiles; !strings.Contains(tiles[0], "colormap=magma") {
		t.Errorf("tiles = %v", tiles)
	}
}

func TestMapCamera(t *testing.T) {
	m := newTestMap(t, testCatalog())
	v := compare.ViewState{Center: [2]float64{2.35, 48.85}, Zoom: 11, Pitch: 30}
	m.SetCamera(v)
	if got := m.CameraPose(); got != v {
		t.Errorf("camera = %+v", got)
	}
	m.Rebuild()
	if got := m.CurrentStyle().Zoom; got != 11 {
		t.Errorf("master zoom = %v", got)
	}
}
