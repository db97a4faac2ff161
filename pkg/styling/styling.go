// Package styling turns a user-facing layer style into MapLibre paint
// properties for individual drawables.
//
// The comparison engine never computes paint itself: it hands a drawable ID,
// a [LayerStyle] (with the panel's opacity substituted), the layer's current
// frame and the desired visibility to a [Styler], and applies whatever
// update comes back.
package styling

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/style"
)

// Defaults applied when a LayerStyle leaves a field empty.
const (
	DefaultColor        = "#0077ff"
	DefaultLineWidth    = 1.5
	DefaultCircleRadius = 4.0
)

// LayerStyle is the user-facing style of one selected layer copy.
type LayerStyle struct {
	Color         string    `json:"color,omitempty" bson:"color,omitempty" toml:"color"`
	Opacity       float64   `json:"opacity" bson:"opacity" toml:"opacity"`
	LineWidth     float64   `json:"line_width,omitempty" bson:"line_width,omitempty" toml:"line_width"`
	CircleRadius  float64   `json:"circle_radius,omitempty" bson:"circle_radius,omitempty" toml:"circle_radius"`
	Colormap      string    `json:"colormap,omitempty" bson:"colormap,omitempty" toml:"colormap"`
	ColormapRange []float64 `json:"colormap_range,omitempty" bson:"colormap_range,omitempty" toml:"colormap_range"`
}

// WithOpacity returns a copy of s with Opacity replaced.
func (s LayerStyle) WithOpacity(opacity float64) LayerStyle {
	s.Opacity = opacity
	if s.ColormapRange != nil {
		s.ColormapRange = append([]float64(nil), s.ColormapRange...)
	}
	return s
}

// Styler computes a drawable's style update.
// It returns false when the drawable cannot be styled (unknown primitive).
type Styler interface {
	ComputeLayerStyle(drawableID string, spec LayerStyle, frame layers.Frame, vector bool, visibility string) (*style.Update, bool)
}

// Default is the built-in Styler.
type Default struct{}

// NewDefault returns the built-in styler.
func NewDefault() Default { return Default{} }

// ComputeLayerStyle derives paint properties from the drawable's primitive
// suffix (".fill", ".line", ".circle", ".raster").
func (Default) ComputeLayerStyle(drawableID string, spec LayerStyle, frame layers.Frame, vector bool, visibility string) (*style.Update, bool) {
	i := strings.LastIndexByte(drawableID, '.')
	if i < 0 {
		return nil, false
	}
	color := spec.Color
	if color == "" {
		color = DefaultColor
	}
	opacity := clamp(spec.Opacity)

	u := &style.Update{Visibility: normalizeVisibility(visibility)}
	switch drawableID[i+1:] {
	case "fill":
		u.Paint = map[string]any{"fill-color": color, "fill-opacity": opacity}
	case "line":
		width := spec.LineWidth
		if width <= 0 {
			width = DefaultLineWidth
		}
		u.Paint = map[string]any{"line-color": color, "line-opacity": opacity, "line-width": width}
	case "circle":
		radius := spec.CircleRadius
		if radius <= 0 {
			radius = DefaultCircleRadius
		}
		u.Paint = map[string]any{"circle-color": color, "circle-opacity": opacity, "circle-radius": radius}
	case "raster":
		if vector {
			return nil, false
		}
		u.Paint = map[string]any{"raster-opacity": opacity}
		u.TileURL = rasterTileURL(frame.TileURL, spec)
	default:
		return nil, false
	}
	return u, true
}

// rasterTileURL appends colormap parameters to a raster tile template.
// Template placeholders such as {z} are left unescaped.
func rasterTileURL(base string, spec LayerStyle) string {
	if base == "" || spec.Colormap == "" {
		return base
	}
	q := url.Values{}
	q.Set("colormap", spec.Colormap)
	if len(spec.ColormapRange) == 2 {
		q.Set("min", fmt.Sprint(spec.ColormapRange[0]))
		q.Set("max", fmt.Sprint(spec.ColormapRange[1]))
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

func normalizeVisibility(v string) string {
	if v == style.Hidden {
		return style.Hidden
	}
	return style.Visible
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

var _ Styler = Default{}
