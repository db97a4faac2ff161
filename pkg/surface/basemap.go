package surface

import (
	"slices"

	"github.com/matzehuels/stylesync/pkg/compare"
	"github.com/matzehuels/stylesync/pkg/style"
)

// Basemap is a named set of background sources and layers.
type Basemap struct {
	Name    string                  `json:"name" toml:"name"`
	Sources map[string]style.Source `json:"sources" toml:"-"`
	Layers  []style.Layer           `json:"layers" toml:"-"`
}

// LayerIDs returns the basemap's layer IDs, bottom first.
func (b Basemap) LayerIDs() []string {
	ids := make([]string, 0, len(b.Layers))
	for _, l := range b.Layers {
		ids = append(ids, l.ID)
	}
	return ids
}

// RasterBasemap returns a basemap drawing a single raster tile layer.
func RasterBasemap(name, tileURL, attribution string) Basemap {
	src := "basemap." + name
	return Basemap{
		Name: name,
		Sources: map[string]style.Source{
			src: {Type: style.SourceRaster, Tiles: []string{tileURL}, TileSize: 256, Attribution: attribution},
		},
		Layers: []style.Layer{
			{ID: src + ".raster", Type: "raster", Source: src},
		},
	}
}

// DefaultBasemaps are available when a scene defines none.
func DefaultBasemaps() []Basemap {
	return []Basemap{
		RasterBasemap("OSM", "https://tile.openstreetmap.org/{z}/{x}/{y}.png", "© OpenStreetMap contributors"),
		RasterBasemap("Satellite", "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}", "Esri"),
	}
}

func basemapNames(m map[string]Basemap) []string {
	names := make([]string, 0, len(m)+1)
	for n := range m {
		names = append(names, n)
	}
	slices.Sort(names)
	return append(names, compare.NoBasemap)
}
