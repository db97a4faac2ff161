// Package pkg provides the core libraries for stylesync side-by-side map
// comparison.
//
// # Overview
//
// Stylesync keeps two comparison panels (A and B) in step with a primary
// map style. Sources and layers follow the primary map; visibility and
// per-layer opacity are owned by each panel. The pkg directory is organized
// into three areas:
//
//  1. Domain: [style], [stylediff], [layers], [styling] and [compare]
//  2. Surfaces: [surface] renders the primary map, [scene] loads and
//     replays scene files
//  3. Infrastructure: [cache], [snapshot], [observability] and [errors]
//
// # Architecture
//
// The data flow for one master change:
//
//	layers.Catalog (selection, frames)
//	         ↓
//	surface.Map (primary style document)
//	         ↓
//	stylediff.Compute (set delta per panel)
//	         ↓
//	compare.Controller (apply delta, regenerate visibility, re-apply overrides)
//	         ↓
//	panel A / panel B style documents
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/stylesync/pkg/compare"
//	    "github.com/matzehuels/stylesync/pkg/scene"
//	)
//
//	s, _ := scene.Load("examples/scenes/rhine-floods.toml")
//	rt, _ := s.Build(scene.BuildOptions{})
//	_ = rt.Controller.Activate(ctx)
//	_ = rt.Controller.SetVisibility(compare.PanelB, "Flood extent", false)
//	doc, _ := rt.Controller.PanelStyle(compare.PanelB)
//
// # Snapshots
//
// [snapshot] captures a comparison (selection, frames, camera, slider,
// per-panel visibility and overrides) and stores it on disk, in Redis or in
// MongoDB. Restoring a snapshot rebuilds the primary map and replays the
// state into the controller.
//
// [style]: https://pkg.go.dev/github.com/matzehuels/stylesync/pkg/style
// [stylediff]: https://pkg.go.dev/github.com/matzehuels/stylesync/pkg/stylediff
// [layers]: https://pkg.go.dev/github.com/matzehuels/stylesync/pkg/layers
// [styling]: https://pkg.go.dev/github.com/matzehuels/stylesync/pkg/styling
// [compare]: https://pkg.go.dev/github.com/matzehuels/stylesync/pkg/compare
// [surface]: https://pkg.go.dev/github.com/matzehuels/stylesync/pkg/surface
// [scene]: https://pkg.go.dev/github.com/matzehuels/stylesync/pkg/scene
// [cache]: https://pkg.go.dev/github.com/matzehuels/stylesync/pkg/cache
// [snapshot]: https://pkg.go.dev/github.com/matzehuels/stylesync/pkg/snapshot
// [observability]: https://pkg.go.dev/github.com/matzehuels/stylesync/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/stylesync/pkg/errors
package pkg
