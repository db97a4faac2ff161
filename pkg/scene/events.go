package scene

import (
	"context"
	"fmt"

	"github.com/matzehuels/stylesync/pkg/compare"
	serrors "github.com/matzehuels/stylesync/pkg/errors"
	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/styling"
)

// Event operations.
const (
	OpActivate      = "activate"
	OpDeactivate    = "deactivate"
	OpSelect        = "select"
	OpDeselect      = "deselect"
	OpBasemap       = "basemap"
	OpVisibility    = "visibility"
	OpVisibilityAll = "visibility_all"
	OpStyle         = "style"
	OpFrame         = "frame"
)

// Event is one scripted step.
type Event struct {
	Op      string              `toml:"op"`
	Panel   string              `toml:"panel"`
	Layer   int                 `toml:"layer"`
	Copy    int                 `toml:"copy"`
	Frame   int                 `toml:"frame"`
	Name    string              `toml:"name"`
	Group   string              `toml:"group"`
	Visible *bool               `toml:"visible"`
	Opacity *float64            `toml:"opacity"`
	Style   *styling.LayerStyle `toml:"style"`
}

func (e Event) key() layers.Key { return layers.Key{LayerID: e.Layer, CopyID: e.Copy} }

func (e Event) validate() error {
	needPanel := func() error {
		_, err := compare.ParsePanel(e.Panel)
		return err
	}
	switch e.Op {
	case OpActivate, OpDeactivate:
	case OpSelect, OpDeselect, OpFrame:
		if e.Layer <= 0 {
			return serrors.New(serrors.ErrCodeInvalidInput, "%s: missing layer", e.Op)
		}
	case OpBasemap:
		if e.Name == "" {
			return serrors.New(serrors.ErrCodeInvalidInput, "basemap: missing name")
		}
	case OpVisibility, OpVisibilityAll:
		if err := needPanel(); err != nil {
			return err
		}
		if e.Visible == nil {
			return serrors.New(serrors.ErrCodeInvalidInput, "%s: missing visible", e.Op)
		}
		if e.Op == OpVisibility && e.Group == "" {
			return serrors.New(serrors.ErrCodeInvalidInput, "visibility: missing group")
		}
	case OpStyle:
		if err := needPanel(); err != nil {
			return err
		}
		if e.Opacity == nil {
			return serrors.New(serrors.ErrCodeInvalidInput, "style: missing opacity")
		}
		return serrors.ValidateOpacity(*e.Opacity)
	case "":
		return serrors.New(serrors.ErrCodeInvalidInput, "missing op")
	default:
		return serrors.New(serrors.ErrCodeUnsupported, "unknown op %q", e.Op)
	}
	return nil
}

// Apply performs the event against r.
func (e Event) Apply(ctx context.Context, r *Runtime) error {
	if err := e.validate(); err != nil {
		return err
	}
	switch e.Op {
	case OpActivate:
		return r.Controller.Activate(ctx)
	case OpDeactivate:
		r.Controller.Deactivate(ctx)
	case OpSelect:
		_, err := r.Select(ctx, e.Layer)
		return err
	case OpDeselect:
		if !r.Deselect(ctx, e.key()) {
			return serrors.New(serrors.ErrCodeLayerNotFound, "layer %s not selected", e.key())
		}
	case OpFrame:
		return r.SetFrame(ctx, e.key(), e.Frame)
	case OpBasemap:
		return r.SetBasemap(ctx, e.Name)
	case OpVisibility:
		p, _ := compare.ParsePanel(e.Panel)
		return r.Controller.SetVisibility(p, e.Group, *e.Visible)
	case OpVisibilityAll:
		p, _ := compare.ParsePanel(e.Panel)
		return r.Controller.SetAllVisibility(p, *e.Visible)
	case OpStyle:
		p, _ := compare.ParsePanel(e.Panel)
		var ls styling.LayerStyle
		if e.Style != nil {
			ls = *e.Style
		}
		return r.Controller.SetLayerStyle(ctx, p, e.key(), ls, *e.Opacity)
	}
	return nil
}

func (e Event) String() string {
	switch e.Op {
	case OpSelect:
		return fmt.Sprintf("select %d", e.Layer)
	case OpDeselect, OpFrame:
		return fmt.Sprintf("%s %s", e.Op, e.key())
	case OpBasemap:
		return "basemap " + e.Name
	case OpVisibility:
		return fmt.Sprintf("visibility %s %q", e.Panel, e.Group)
	case OpStyle:
		return fmt.Sprintf("style %s %s", e.Panel, e.key())
	}
	return e.Op
}

// Run replays the scene's events against r in order and stops at the first
// failure. onStep, if non-nil, is called after each successful event.
func (s *Scene) Run(ctx context.Context, r *Runtime, onStep func(i int, e Event)) error {
	for i, e := range s.Events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Apply(ctx, r); err != nil {
			return fmt.Errorf("event %d (%s): %w", i, e.Op, err)
		}
		r.logger.Debug("event applied", "index", i, "event", e.String())
		if onStep != nil {
			onStep(i, e)
		}
	}
	return nil
}
