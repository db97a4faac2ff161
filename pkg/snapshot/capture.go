package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/stylesync/pkg/compare"
	serrors "github.com/matzehuels/stylesync/pkg/errors"
	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/surface"
)

// Capture records the current view.
func Capture(name string, ctrl *compare.Controller, cat *layers.Catalog, m *surface.Map) (*Snapshot, error) {
	s, err := New(name)
	if err != nil {
		return nil, err
	}
	s.Active = ctrl.State() == compare.Active
	s.View = m.CameraPose()
	if s.Active {
		s.View = ctrl.View()
	}
	s.Slider = ctrl.Slider()
	s.Orientation = ctrl.Orientation()
	s.Basemap = m.CurrentBasemap()

	for _, g := range cat.Selected() {
		s.Selected = append(s.Selected, Selected{Key: g.Key, Frame: cat.CurrentFrameIndex(g)})
	}
	for _, p := range compare.Panels {
		ps := PanelState{Overrides: ctrl.Overrides().Entries(p)}
		if groups := ctrl.DisplayGroups(p); len(groups) > 0 {
			ps.Visibility = make(map[string]bool, len(groups))
			for _, g := range groups {
				ps.Visibility[g.Name] = g.Visible
			}
		}
		s.Panels[string(p)] = ps
	}
	return s, nil
}

// Restore puts the catalog, the primary map and the controller back into the
// state recorded in s. The snapshot is checked against the catalog and the
// map first: a layer, frame, basemap or panel that no longer resolves fails
// the restore before anything is changed.
func Restore(ctx context.Context, s *Snapshot, ctrl *compare.Controller, cat *layers.Catalog, m *surface.Map) error {
	if err := check(s, cat, m); err != nil {
		return err
	}

	keys := make([]layers.Key, len(s.Selected))
	for i, sel := range s.Selected {
		keys[i] = sel.Key
	}
	if err := cat.SetSelection(keys); err != nil {
		return fmt.Errorf("restore selection: %w", err)
	}
	for _, sel := range s.Selected {
		if err := cat.SetFrame(sel.Key, sel.Frame); err != nil {
			return fmt.Errorf("restore frame: %w", err)
		}
	}
	if s.Basemap != "" {
		if err := m.SetBasemap(s.Basemap); err != nil {
			return fmt.Errorf("restore basemap: %w", err)
		}
	}
	m.SetCamera(s.View)
	m.Rebuild()

	ledger := ctrl.Overrides()
	ledger.Clear()
	for name, ps := range s.Panels {
		p, _ := compare.ParsePanel(name)
		for _, e := range ps.Overrides {
			ledger.Put(p, e.Key, e.Override)
		}
	}

	switch {
	case s.Active && ctrl.State() == compare.Inactive:
		if err := ctrl.Activate(ctx); err != nil {
			return err
		}
	case s.Active:
		ctrl.MasterChanged(ctx)
	case ctrl.State() == compare.Active:
		ctrl.Deactivate(ctx)
	}

	if s.Active {
		for name, ps := range s.Panels {
			p, _ := compare.ParsePanel(name)
			for group, visible := range ps.Visibility {
				err := ctrl.SetVisibility(p, group, visible)
				if err != nil && !errors.Is(err, compare.ErrUnknownGroup) {
					return err
				}
			}
		}
		ctrl.ReapplyStoredOpacity(ctx)
	}

	ctrl.UpdateView(s.View)
	if err := ctrl.UpdateSlider(s.Slider); err != nil {
		return err
	}
	if s.Orientation != "" {
		return ctrl.SetOrientation(s.Orientation)
	}
	return nil
}

// check validates everything Restore would apply that can fail.
func check(s *Snapshot, cat *layers.Catalog, m *surface.Map) error {
	seen := make(map[layers.Key]bool, len(s.Selected))
	for _, sel := range s.Selected {
		if seen[sel.Key] || sel.Key.CopyID < 0 {
			return serrors.New(serrors.ErrCodeInvalidInput, "restore selection: invalid key %s", sel.Key)
		}
		seen[sel.Key] = true
		if err := cat.CheckFrame(sel.Key.LayerID, sel.Frame); err != nil {
			return fmt.Errorf("restore frame %s: %w", sel.Key, err)
		}
	}
	if s.Basemap != "" {
		if err := m.CheckBasemap(s.Basemap); err != nil {
			return fmt.Errorf("restore basemap: %w", err)
		}
	}
	for name := range s.Panels {
		if _, err := compare.ParsePanel(name); err != nil {
			return fmt.Errorf("restore panel: %w", err)
		}
	}
	if err := s.Slider.Validate(); err != nil {
		return fmt.Errorf("restore slider: %w", err)
	}
	if s.Orientation != "" {
		if _, err := compare.ParseOrientation(string(s.Orientation)); err != nil {
			return fmt.Errorf("restore orientation: %w", err)
		}
	}
	return nil
}
