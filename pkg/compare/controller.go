package compare

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	serrors "github.com/matzehuels/stylesync/pkg/errors"
	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/observability"
	"github.com/matzehuels/stylesync/pkg/style"
	"github.com/matzehuels/stylesync/pkg/styling"
)

// ErrAlreadyActive is returned by Activate when a comparison is running.
var ErrAlreadyActive = serrors.New(serrors.ErrCodeInvalidState, "comparison already active")

// ErrUnknownGroup is returned when a visibility toggle names no display group.
var ErrUnknownGroup = serrors.New(serrors.ErrCodeLayerNotFound, "unknown display group")

// State is the comparison lifecycle state.
type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// Options configures a Controller. Zero values select defaults.
type Options struct {
	Logger *log.Logger
	// Overrides is shared with whatever edits per-panel styles outside the
	// controller. A fresh ledger is used when nil.
	Overrides *OpacityLedger
	// OnClick receives feature clicks on panel-B sources.
	OnClick ClickHandler
}

// SyncReport summarizes one master-change event.
type SyncReport struct {
	Deltas     map[Panel]string `json:"deltas"`
	Added      []AddedSource    `json:"added,omitempty"`
	Registered []string         `json:"registered,omitempty"`
	Applied    int              `json:"applied"`
	Skipped    int              `json:"skipped"`
}

// Controller drives a side-by-side comparison. It owns the panel store and
// both ledgers, and reacts to master changes, visibility toggles and
// per-panel style edits.
type Controller struct {
	mu sync.Mutex

	surface Surface
	groups  Groups
	styler  styling.Styler
	logger  *log.Logger
	onClick ClickHandler

	state       State
	store       *Store
	visibility  *VisibilityLedger
	overrides   *OpacityLedger
	visible     map[Panel][]string
	registered  map[string]bool
	view        ViewState
	slider      Slider
	orientation Orientation
}

// NewController wires a controller to its collaborators.
func NewController(surface Surface, groups Groups, styler styling.Styler, opts Options) *Controller {
	if styler == nil {
		styler = styling.NewDefault()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Overrides == nil {
		opts.Overrides = NewOpacityLedger()
	}
	if opts.OnClick == nil {
		logger := opts.Logger
		opts.OnClick = func(p Panel, id string, props map[string]any) {
			logger.Debug("feature clicked", "panel", p, "layer", id, "properties", len(props))
		}
	}
	return &Controller{
		surface:     surface,
		groups:      groups,
		styler:      styler,
		logger:      opts.Logger,
		onClick:     opts.OnClick,
		store:       NewStore(),
		visibility:  NewVisibilityLedger(),
		overrides:   opts.Overrides,
		visible:     make(map[Panel][]string, len(Panels)),
		slider:      DefaultSlider,
		orientation: Vertical,
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

// Activate starts a comparison: it adopts the primary camera, copies the
// master into both panels, wires click handlers for panel-B vector sources,
// regenerates visibility and re-applies stored overrides.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Active {
		return ErrAlreadyActive
	}

	master := c.surface.CurrentStyle()
	c.view = c.surface.CameraPose()
	c.store.Initialize(master)
	c.registered = make(map[string]bool)
	for _, id := range master.SourceIDs() {
		c.registerClicks(id, master.Sources[id].Type)
	}
	c.state = Active

	c.regenerate()
	applied, skipped := c.reapply(ctx, master)

	var nLayers int
	if master != nil {
		nLayers = len(master.Layers)
	}
	c.logger.Info("comparison activated",
		"sources", len(master.SourceIDs()),
		"layers", nLayers,
		"overrides", applied,
		"stale", skipped)
	observability.Sync().OnActivate(ctx, len(master.SourceIDs()), nLayers)
	return nil
}

// Deactivate ends the comparison and discards both panels and their
// visibility state. Stored overrides are kept. It is a no-op when inactive.
func (c *Controller) Deactivate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Inactive {
		return
	}
	c.state = Inactive
	c.store.Reset()
	c.visibility.Reset()
	clear(c.visible)
	c.registered = nil
	c.logger.Info("comparison deactivated")
	observability.Sync().OnDeactivate(ctx)
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// =============================================================================
// Events
// =============================================================================

// MasterChanged propagates the current master into both panels. Sources
// newly added to panel B get click handlers once, vector sources only.
// Visibility is regenerated and stored overrides are re-applied.
func (c *Controller) MasterChanged(ctx context.Context) SyncReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Active {
		return SyncReport{}
	}

	start := time.Now()
	master := c.surface.CurrentStyle()
	res := c.store.Sync(master)

	report := SyncReport{Deltas: make(map[Panel]string, len(res.Deltas)), Added: res.Added}
	for p, d := range res.Deltas {
		report.Deltas[p] = d.Summary()
		observability.Sync().OnDelta(ctx, string(p), d.Summary(), time.Since(start))
	}
	for _, a := range res.Added {
		if c.registerClicks(a.ID, a.Type) {
			report.Registered = append(report.Registered, a.ID)
		}
	}

	c.regenerate()
	report.Applied, report.Skipped = c.reapply(ctx, master)
	c.logger.Debug("master synced",
		"A", report.Deltas[PanelA],
		"B", report.Deltas[PanelB],
		"registered", len(report.Registered))
	return report
}

// SetVisibility toggles one display group in panel p and recomputes the
// panel's visible drawables. It is a no-op when inactive.
func (c *Controller) SetVisibility(p Panel, name string, visible bool) error {
	if err := checkPanel(p); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Active {
		return nil
	}
	if !c.visibility.Set(p, name, visible) {
		return serrors.Wrap(serrors.ErrCodeLayerNotFound, ErrUnknownGroup, "panel %s: %q", p, name)
	}
	c.recompute(p, c.groups.Selected())
	return nil
}

// SetAllVisibility sets every group in panel p to the same state.
func (c *Controller) SetAllVisibility(p Panel, visible bool) error {
	if err := checkPanel(p); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Active {
		return nil
	}
	c.visibility.SetAll(p, visible)
	c.recompute(p, c.groups.Selected())
	return nil
}

// SetLayerStyle stores a per-panel override for a layer copy and, while
// active, applies it immediately.
func (c *Controller) SetLayerStyle(ctx context.Context, p Panel, k layers.Key, ls styling.LayerStyle, opacity float64) error {
	if err := checkPanel(p); err != nil {
		return err
	}
	if err := serrors.ValidateOpacity(opacity); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ov := Override{Style: ls, Opacity: opacity}
	c.overrides.Put(p, k, ov)
	if c.state != Active {
		return nil
	}
	if c.applyOverride(p, k, ov, c.surface.CurrentStyle()) {
		c.logger.Debug("override applied", "panel", p, "layer", k)
	}
	return nil
}

// ReapplyStoredOpacity re-applies every stored override to its panel and
// returns how many were applied and how many were stale.
func (c *Controller) ReapplyStoredOpacity(ctx context.Context) (applied, skipped int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Active {
		return 0, 0
	}
	return c.reapply(ctx, c.surface.CurrentStyle())
}

// UpdateView records the shared camera pose.
func (c *Controller) UpdateView(v ViewState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = v
}

// UpdateSlider records the divider position.
func (c *Controller) UpdateSlider(s Slider) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slider = s
	return nil
}

// SetOrientation records the split direction.
func (c *Controller) SetOrientation(o Orientation) error {
	o, err := ParseOrientation(string(o))
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orientation = o
	return nil
}

// =============================================================================
// Readers
// =============================================================================

// PanelStyle returns a copy of panel p's document.
func (c *Controller) PanelStyle(p Panel) (*style.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Document(p)
}

// VisibleLayers returns panel p's visible drawable IDs, topmost first.
func (c *Controller) VisibleLayers(p Panel) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.visible[p]...)
}

// DisplayGroups returns panel p's visibility entries.
func (c *Controller) DisplayGroups(p Panel) []DisplayGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibility.Entries(p)
}

// Overrides returns the override ledger.
func (c *Controller) Overrides() *OpacityLedger { return c.overrides }

// View returns the shared camera pose.
func (c *Controller) View() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Slider returns the divider position.
func (c *Controller) Slider() Slider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slider
}

// Orientation returns the split direction.
func (c *Controller) Orientation() Orientation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation
}

// =============================================================================
// Internals (c.mu held)
// =============================================================================

func (c *Controller) regenerate() {
	groups := c.groups.Selected()
	c.visibility.Regenerate(groups, c.groups.DrawableIDs)
	for _, p := range Panels {
		c.recompute(p, groups)
	}
}

func (c *Controller) recompute(p Panel, groups []layers.Group) {
	c.visible[p] = VisibleDrawableIDs(
		c.visibility.Entries(p),
		groups,
		c.groups.DrawableIDs,
		c.surface.BaseLayerIDs(),
		c.surface.CurrentBasemap(),
	)
}

// registerClicks wires the click handler to a panel-B source once.
func (c *Controller) registerClicks(id, typ string) bool {
	if typ != style.SourceVector || c.registered[id] {
		return false
	}
	if err := c.surface.RegisterClickHandler(id, typ, c.onClick); err != nil {
		c.logger.Warn("click handler not registered", "source", id, "err", err)
		return false
	}
	c.registered[id] = true
	return true
}

func (c *Controller) reapply(ctx context.Context, master *style.Document) (applied, skipped int) {
	start := time.Now()
	for _, p := range Panels {
		for _, e := range c.overrides.Entries(p) {
			if c.applyOverride(p, e.Key, e.Override, master) {
				applied++
			} else {
				skipped++
			}
		}
	}
	if applied+skipped > 0 {
		observability.Sync().OnReapply(ctx, applied, skipped, time.Since(start))
	}
	return applied, skipped
}

// applyOverride styles every primary-map drawable of a layer copy in panel
// p. It reports false when the copy is no longer selected or its current
// frame cannot be resolved.
func (c *Controller) applyOverride(p Panel, k layers.Key, ov Override, master *style.Document) bool {
	g, ok := c.groups.Lookup(k)
	if !ok {
		return false
	}
	frames := c.groups.Frames(g)
	idx := c.groups.CurrentFrameIndex(g)
	if idx < 0 || idx >= len(frames) {
		return false
	}
	frame := frames[idx]

	visible := make(map[string]bool, len(c.visible[p]))
	for _, id := range c.visible[p] {
		visible[id] = true
	}
	spec := ov.Style.WithOpacity(ov.Opacity)
	for _, id := range c.groups.DrawableIDs(g) {
		if _, ok := master.Layer(id); !ok {
			continue
		}
		vis := style.Hidden
		if visible[id] {
			vis = style.Visible
		}
		u, ok := c.styler.ComputeLayerStyle(id, spec, frame, frame.Vector(), vis)
		if !ok || u == nil {
			continue
		}
		c.store.UpdateLayerStyle(p, id, *u)
	}
	return true
}
