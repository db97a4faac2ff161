// Package scene loads TOML scene files.
//
// A scene describes everything needed to stand up a comparison without a
// browser: the basemaps, the layer catalog with its frames, the initial
// selection and camera, stored per-panel overrides, and an optional list of
// scripted events that [Run] replays against a [Runtime].
//
//	name = "Rhine floods"
//	basemap = "OSM"
//
//	[camera]
//	center = [7.1, 50.7]
//	zoom = 9
//
//	[[layers]]
//	id = 1
//	name = "Flood extent"
//	visible = true
//
//	  [[layers.frames]]
//	  id = 10
//	  kind = "vector"
//	  tile_url = "https://tiles.example.com/flood/{z}/{x}/{y}.pbf"
//
//	[[selected]]
//	layer = 1
//
//	[[events]]
//	op = "activate"
package scene

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stylesync/pkg/compare"
	serrors "github.com/matzehuels/stylesync/pkg/errors"
	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/styling"
)

// Scene is a decoded scene file.
type Scene struct {
	Name      string            `toml:"name"`
	Basemap   string            `toml:"basemap"`
	Camera    compare.ViewState `toml:"camera"`
	Basemaps  []BasemapConfig   `toml:"basemaps"`
	Layers    []layers.Layer    `toml:"layers"`
	Selected  []Selection       `toml:"selected"`
	Overrides []OverrideConfig  `toml:"overrides"`
	Events    []Event           `toml:"events"`
}

// BasemapConfig declares a raster tile basemap.
type BasemapConfig struct {
	Name        string `toml:"name"`
	Tiles       string `toml:"tiles"`
	Attribution string `toml:"attribution"`
}

// Selection is one initially selected layer copy. Selections are applied in
// file order, so the last one ends up on top.
type Selection struct {
	Layer int                 `toml:"layer"`
	Frame int                 `toml:"frame"`
	Style *styling.LayerStyle `toml:"style"`
}

// OverrideConfig is a stored per-panel style override.
type OverrideConfig struct {
	Panel   string             `toml:"panel"`
	Layer   int                `toml:"layer"`
	Copy    int                `toml:"copy"`
	Opacity float64            `toml:"opacity"`
	Style   styling.LayerStyle `toml:"style"`
}

// Load reads and validates the scene at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a scene. Unknown keys are rejected.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrCodeInvalidScene, err, "decode scene")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, serrors.New(serrors.ErrCodeInvalidScene, "unknown key %q", undecoded[0].String())
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks internal consistency.
func (s *Scene) Validate() error {
	bad := func(format string, args ...any) error {
		return serrors.New(serrors.ErrCodeInvalidScene, format, args...)
	}

	basemaps := make(map[string]bool, len(s.Basemaps))
	for _, b := range s.Basemaps {
		if b.Name == "" || b.Name == compare.NoBasemap {
			return bad("invalid basemap name %q", b.Name)
		}
		if basemaps[b.Name] {
			return bad("duplicate basemap %q", b.Name)
		}
		if err := serrors.ValidateTileURL(b.Tiles); err != nil {
			return bad("basemap %q: %s", b.Name, serrors.UserMessage(err))
		}
		basemaps[b.Name] = true
	}
	if s.Basemap != "" && s.Basemap != compare.NoBasemap && len(s.Basemaps) > 0 && !basemaps[s.Basemap] {
		return bad("unknown basemap %q", s.Basemap)
	}

	frames := make(map[int]int, len(s.Layers))
	for _, l := range s.Layers {
		if l.ID <= 0 {
			return bad("layer %q: id must be positive", l.Name)
		}
		if _, dup := frames[l.ID]; dup {
			return bad("duplicate layer id %d", l.ID)
		}
		if l.Name == "" {
			return bad("layer %d: missing name", l.ID)
		}
		if len(l.Frames) == 0 {
			return bad("layer %d: no frames", l.ID)
		}
		for _, f := range l.Frames {
			if f.Kind != layers.KindVector && f.Kind != layers.KindRaster {
				return bad("layer %d frame %d: unknown kind %q", l.ID, f.ID, f.Kind)
			}
			if err := serrors.ValidateTileURL(f.TileURL); err != nil {
				return bad("layer %d frame %d: %s", l.ID, f.ID, serrors.UserMessage(err))
			}
		}
		frames[l.ID] = len(l.Frames)
	}

	for i, sel := range s.Selected {
		n, ok := frames[sel.Layer]
		if !ok {
			return bad("selected[%d]: unknown layer %d", i, sel.Layer)
		}
		if sel.Frame < 0 || sel.Frame >= n {
			return bad("selected[%d]: frame %d out of range", i, sel.Frame)
		}
	}

	for i, o := range s.Overrides {
		if _, err := compare.ParsePanel(o.Panel); err != nil {
			return bad("overrides[%d]: %s", i, serrors.UserMessage(err))
		}
		if err := serrors.ValidateOpacity(o.Opacity); err != nil {
			return bad("overrides[%d]: %s", i, serrors.UserMessage(err))
		}
	}

	for i, e := range s.Events {
		if err := e.validate(); err != nil {
			return bad("events[%d]: %s", i, serrors.UserMessage(err))
		}
	}
	return nil
}
