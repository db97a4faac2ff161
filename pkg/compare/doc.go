// Package compare implements the side-by-side comparison engine.
//
// While a comparison is active, two panels (A and B) each hold an
// independent copy of the primary map's style document. The primary map
// stays the master: every change to it is propagated into both panels as a
// set-membership delta, while each panel keeps its own paint overrides and
// its own per-group visibility.
//
// # Components
//
// The engine is split into three ledgers owned by a [Controller]:
//
//   - [Store] holds the two panel documents and applies master deltas.
//   - [VisibilityLedger] tracks the on/off state of each display group per
//     panel and survives regeneration by display name.
//   - [OpacityLedger] remembers per-panel style overrides keyed by layer
//     copy; it outlives individual comparison sessions.
//
// # Collaborators
//
// The controller never talks to a renderer directly. It reads the master
// through a [Surface], the selected layer groups through [Groups], and
// computes paint through a [styling.Styler]. Implementations live in
// pkg/surface, pkg/layers and pkg/styling respectively.
//
// # Lifecycle
//
//	Inactive --Activate--> Active --Deactivate--> Inactive
//
// Activating snapshots the camera pose, copies the master into both panels,
// regenerates the visibility ledger and re-applies stored overrides.
// Activating twice is an error. Master changes, visibility toggles and
// style edits are no-ops while inactive.
//
// # Concurrency
//
// All Controller methods are safe for concurrent use. Events are serialized
// by a single mutex, and each handler reads the master exactly once.
package compare
