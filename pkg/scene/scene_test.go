package scene

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/stylesync/pkg/cache"
	"github.com/matzehuels/stylesync/pkg/compare"
	serrors "github.com/matzehuels/stylesync/pkg/errors"
	"github.com/matzehuels/stylesync/pkg/layers"
)

func loadTestScene(t *testing.T) *Scene {
	t.Helper()
	s, err := Load(filepath.Join("testdata", "rhine.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestLoad(t *testing.T) {
	s := loadTestScene(t)
	if s.Name != "Rhine floods" {
		t.Errorf("name = %q", s.Name)
	}
	if s.Camera.Center != [2]float64{7.1, 50.7} || s.Camera.Zoom != 9 {
		t.Errorf("camera = %+v", s.Camera)
	}
	if len(s.Layers) != 2 || len(s.Layers[0].Frames) != 2 {
		t.Fatalf("layers = %+v", s.Layers)
	}
	if got := s.Layers[0].Frames[1].SourceLayer; got != "extent" {
		t.Errorf("source_layer = %q", got)
	}
	if s.Selected[0].Style == nil || s.Selected[0].Style.Colormap != "viridis" {
		t.Errorf("selected style = %+v", s.Selected[0].Style)
	}
	if len(s.Events) != 5 {
		t.Errorf("events = %d, want 5", len(s.Events))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error")
	}
}

func TestParseErrors(t *testing.T) {
	valid := `
[[layers]]
id = 1
name = "a"
  [[layers.frames]]
  id = 1
  kind = "vector"
  tile_url = "https://t/{z}/{x}/{y}.pbf"
`
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{"syntax", "name = ", "decode scene"},
		{"unknown key", valid + "\ncolour = 1\n", "unknown key"},
		{"bad frame kind", strings.Replace(valid, `"vector"`, `"mesh"`, 1), "unknown kind"},
		{"bad tile url", strings.Replace(valid, "https://", "ftp://", 1), "http or https"},
		{"duplicate layer", valid + strings.Replace(valid, `"a"`, `"b"`, 1), "duplicate layer"},
		{"unknown selection", valid + "\n[[selected]]\nlayer = 9\n", "unknown layer 9"},
		{"frame out of range", valid + "\n[[selected]]\nlayer = 1\nframe = 3\n", "out of range"},
		{"reserved basemap", "[[basemaps]]\nname = \"None\"\ntiles = \"https://x\"\n", "invalid basemap"},
		{"bad override panel", valid + "\n[[overrides]]\npanel = \"C\"\nlayer = 1\nopacity = 1.0\n", "unknown panel"},
		{"bad override opacity", valid + "\n[[overrides]]\npanel = \"A\"\nlayer = 1\nopacity = 2.0\n", "opacity"},
		{"unknown op", "[[events]]\nop = \"explode\"\n", "unknown op"},
		{"visibility without flag", "[[events]]\nop = \"visibility\"\npanel = \"A\"\ngroup = \"a\"\n", "missing visible"},
		{"style without opacity", "[[events]]\nop = \"style\"\npanel = \"A\"\nlayer = 1\n", "missing opacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !serrors.Is(err, serrors.ErrCodeInvalidScene) {
				t.Errorf("code = %q, want INVALID_SCENE", serrors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	s := loadTestScene(t)
	rt, err := s.Build(BuildOptions{Cache: cache.NewMemoryCache()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer rt.Close()

	sel := rt.Catalog.Selected()
	if len(sel) != 2 || sel[0].Name != "Flood extent" || sel[1].Name != "Water depth" {
		t.Errorf("selection = %+v", sel)
	}
	if got := rt.Map.CurrentBasemap(); got != "OSM" {
		t.Errorf("basemap = %q", got)
	}
	if got := rt.Map.CameraPose().Zoom; got != 9 {
		t.Errorf("zoom = %v", got)
	}
	master := rt.Map.CurrentStyle()
	if err := master.Validate(); err != nil {
		t.Fatalf("master invalid: %v", err)
	}
	tiles := master.Sources["2.0.20.raster"].Tiles
	if len(tiles) != 1 || !strings.Contains(tiles[0], "colormap=viridis") {
		t.Errorf("selected style not applied to master: %v", tiles)
	}
	if _, ok := rt.Controller.Overrides().Get(compare.PanelB, layers.Key{LayerID: 2}); !ok {
		t.Error("stored override not loaded")
	}
	if rt.Controller.State() != compare.Inactive {
		t.Error("controller should start inactive")
	}
}

func TestRun(t *testing.T) {
	s := loadTestScene(t)
	rt, err := s.Build(BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	var steps []string
	if err := s.Run(ctx, rt, func(_ int, e Event) { steps = append(steps, e.Op) }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(steps) != 5 {
		t.Errorf("steps = %v", steps)
	}

	c := rt.Controller
	if c.State() != compare.Active {
		t.Fatal("comparison should be active")
	}
	b, _ := c.PanelStyle(compare.PanelB)
	if !b.HasSource("1.0.11.vector") || b.HasSource("1.0.10.vector") {
		t.Errorf("panel B sources = %v", b.SourceIDs())
	}
	if !b.HasSource("1.1.10.vector") {
		t.Error("panel B missing the newly selected copy")
	}
	raster, _ := b.Layer("2.0.20.raster.raster")
	if got := raster.Paint["raster-opacity"]; got != 0.4 {
		t.Errorf("panel B raster-opacity = %v, want stored 0.4", got)
	}

	a, _ := c.PanelStyle(compare.PanelA)
	fill, _ := a.Layer("1.0.11.vector.fill")
	if got := fill.Paint["fill-color"]; got != "#d7301f" {
		t.Errorf("panel A fill-color = %v", got)
	}

	for _, g := range c.DisplayGroups(compare.PanelB) {
		if g.Name == "Flood extent" && g.Visible {
			t.Error("Flood extent should stay hidden in panel B")
		}
	}
}

func TestRunStopsOnError(t *testing.T) {
	s := loadTestScene(t)
	s.Events = []Event{{Op: OpActivate}, {Op: OpActivate}}
	rt, err := s.Build(BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	err = s.Run(context.Background(), rt, nil)
	if !errors.Is(err, compare.ErrAlreadyActive) {
		t.Fatalf("err = %v, want ErrAlreadyActive", err)
	}
	if !strings.Contains(err.Error(), "event 1") {
		t.Errorf("error does not name the event: %v", err)
	}
}

func TestRunHonorsContext(t *testing.T) {
	s := loadTestScene(t)
	rt, err := s.Build(BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx, rt, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestExampleScenesRun(t *testing.T) {
	paths, _ := filepath.Glob(filepath.Join("..", "..", "examples", "scenes", "*.toml"))
	if len(paths) == 0 {
		t.Fatal("no example scenes found")
	}
	for _, p := range paths {
		t.Run(filepath.Base(p), func(t *testing.T) {
			s, err := Load(p)
			if err != nil {
				t.Fatal(err)
			}
			rt, err := s.Build(BuildOptions{})
			if err != nil {
				t.Fatal(err)
			}
			if err := s.Run(context.Background(), rt, nil); err != nil {
				t.Fatal(err)
			}
		})
	}
}
