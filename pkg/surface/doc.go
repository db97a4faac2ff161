// Package surface is an in-memory primary map.
//
// A [Map] renders the master style document from a basemap and the
// layer-group selection of a [layers.Catalog]: the basemap's layers are drawn
// first, then every selected group from the bottom of the selection to the
// top. Each group contributes one source for its current frame plus the
// drawables that frame expands into.
//
// Map implements [compare.Surface], so the comparison engine reads the
// master, the camera and the basemap through it and registers feature-click
// handlers on comparison sources.
package surface
