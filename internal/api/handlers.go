package api

import (
	"net/http"

	"github.com/matzehuels/stylesync/pkg/buildinfo"
	"github.com/matzehuels/stylesync/pkg/compare"
	serrors "github.com/matzehuels/stylesync/pkg/errors"
	"github.com/matzehuels/stylesync/pkg/layers"
	"github.com/matzehuels/stylesync/pkg/snapshot"
	"github.com/matzehuels/stylesync/pkg/styling"
)

// =============================================================================
// Response types
// =============================================================================

type statusResponse struct {
	State       string                   `json:"state"`
	View        compare.ViewState        `json:"view"`
	Slider      compare.Slider           `json:"slider"`
	Orientation compare.Orientation      `json:"orientation"`
	Basemap     string                   `json:"basemap"`
	Basemaps    []string                 `json:"basemaps"`
	Selected    []selectedGroup          `json:"selected"`
	Panels      map[string]panelResponse `json:"panels,omitempty"`
}

type selectedGroup struct {
	layers.Key
	Name  string `json:"name"`
	Frame int    `json:"frame"`
}

type panelResponse struct {
	Visible     []string                `json:"visible"`
	Groups      []compare.DisplayGroup  `json:"groups"`
	Overrides   []compare.OverrideEntry `json:"overrides"`
	Fingerprint string                  `json:"fingerprint,omitempty"`
}

type visibilityRequest struct {
	Visible bool `json:"visible"`
}

type layerStyleRequest struct {
	Style   styling.LayerStyle `json:"style"`
	Opacity float64            `json:"opacity"`
}

type sliderRequest struct {
	Percentage  float64             `json:"percentage"`
	Position    float64             `json:"position"`
	Orientation compare.Orientation `json:"orientation,omitempty"`
}

type frameRequest struct {
	Frame int `json:"frame"`
}

type orderRequest struct {
	Keys []layers.Key `json:"keys"`
}

type clickRequest struct {
	Layer      string         `json:"layer"`
	Properties map[string]any `json:"properties"`
}

type snapshotRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// Health and status
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) status() statusResponse {
	ctrl := s.rt.Controller
	resp := statusResponse{
		State:       ctrl.State().String(),
		View:        ctrl.View(),
		Slider:      ctrl.Slider(),
		Orientation: ctrl.Orientation(),
		Basemap:     s.rt.Map.CurrentBasemap(),
		Basemaps:    s.rt.Map.Basemaps(),
		Selected:    []selectedGroup{},
	}
	if ctrl.State() == compare.Inactive {
		resp.View = s.rt.Map.CameraPose()
	}
	for _, g := range s.rt.Catalog.Selected() {
		resp.Selected = append(resp.Selected, selectedGroup{Key: g.Key, Name: g.Name, Frame: s.rt.Catalog.CurrentFrameIndex(g)})
	}
	if ctrl.State() == compare.Active {
		resp.Panels = make(map[string]panelResponse, len(compare.Panels))
		for _, p := range compare.Panels {
			resp.Panels[p.String()] = s.panel(p)
		}
	}
	return resp
}

func (s *Server) panel(p compare.Panel) panelResponse {
	ctrl := s.rt.Controller
	resp := panelResponse{
		Visible:   ctrl.VisibleLayers(p),
		Groups:    ctrl.DisplayGroups(p),
		Overrides: ctrl.Overrides().Entries(p),
	}
	if doc, ok := ctrl.PanelStyle(p); ok {
		resp.Fingerprint = doc.Fingerprint()
	}
	return resp
}

// =============================================================================
// Lifecycle
// =============================================================================

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rt.Controller.Activate(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rt.Controller.Deactivate(r.Context())
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	var v compare.ViewState
	if err := decodeJSON(r, &v); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rt.Controller.UpdateView(v)
	writeJSON(w, http.StatusOK, s.rt.Controller.View())
}

func (s *Server) handleSlider(w http.ResponseWriter, r *http.Request) {
	var req sliderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl := s.rt.Controller
	if err := ctrl.UpdateSlider(compare.Slider{Percentage: req.Percentage, Position: req.Position}); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Orientation != "" {
		if err := ctrl.SetOrientation(req.Orientation); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, sliderRequest{
		Percentage:  ctrl.Slider().Percentage,
		Position:    ctrl.Slider().Position,
		Orientation: ctrl.Orientation(),
	})
}

// =============================================================================
// Panels
// =============================================================================

func (s *Server) panelParam(w http.ResponseWriter, r *http.Request) (compare.Panel, bool) {
	p, err := compare.ParsePanel(pathParam(r, "panel"))
	if err != nil {
		s.writeError(w, r, err)
		return "", false
	}
	return p, true
}

func (s *Server) handlePanelStyle(w http.ResponseWriter, r *http.Request) {
	p, ok := s.panelParam(w, r)
	if !ok {
		return
	}
	s.mu.RLock()
	doc, ok := s.rt.Controller.PanelStyle(p)
	s.mu.RUnlock()
	if !ok {
		s.writeError(w, r, serrors.New(serrors.ErrCodeInvalidState, "comparison not active"))
		return
	}
	tag := etag(doc.Fingerprint())
	w.Header().Set("ETag", tag)
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePanelLayers(w http.ResponseWriter, r *http.Request) {
	p, ok := s.panelParam(w, r)
	if !ok {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.panel(p))
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	p, ok := s.panelParam(w, r)
	if !ok {
		return
	}
	var req visibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rt.Controller.SetVisibility(p, pathParam(r, "name"), req.Visible); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.panel(p))
}

func (s *Server) handleVisibilityAll(w http.ResponseWriter, r *http.Request) {
	p, ok := s.panelParam(w, r)
	if !ok {
		return
	}
	var req visibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rt.Controller.SetAllVisibility(p, req.Visible); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.panel(p))
}

func (s *Server) handleLayerStyle(w http.ResponseWriter, r *http.Request) {
	p, ok := s.panelParam(w, r)
	if !ok {
		return
	}
	k, ok := s.keyParams(w, r)
	if !ok {
		return
	}
	var req layerStyleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rt.Controller.SetLayerStyle(r.Context(), p, k, req.Style, req.Opacity); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.panel(p))
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	p, ok := s.panelParam(w, r)
	if !ok {
		return
	}
	var req clickRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.rt.Map.Click(p, req.Layer, req.Properties) {
		s.writeError(w, r, serrors.New(serrors.ErrCodeNotFound, "no click handler for layer %q", req.Layer))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Scene
// =============================================================================

func (s *Server) keyParams(w http.ResponseWriter, r *http.Request) (layers.Key, bool) {
	layerID, err := intParam(r, "layer")
	if err != nil {
		s.writeError(w, r, err)
		return layers.Key{}, false
	}
	copyID, err := intParam(r, "copy")
	if err != nil {
		s.writeError(w, r, err)
		return layers.Key{}, false
	}
	return layers.Key{LayerID: layerID, CopyID: copyID}, true
}

func (s *Server) handleSceneLayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rt.Scene.Layers)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	layerID, err := intParam(r, "layer")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k, err := s.rt.Select(r.Context(), layerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, k)
}

func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request) {
	k, ok := s.keyParams(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.rt.Deselect(r.Context(), k)
	if !removed {
		s.writeError(w, r, serrors.New(serrors.ErrCodeLayerNotFound, "layer %s not selected", k))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	k, ok := s.keyParams(w, r)
	if !ok {
		return
	}
	var req frameRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rt.SetFrame(r.Context(), k, req.Frame); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rt.Reorder(r.Context(), req.Keys); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleBasemap(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rt.SetBasemap(r.Context(), pathParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

// =============================================================================
// Snapshots
// =============================================================================

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.snapshots.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if snaps == nil {
		snaps = []*snapshot.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.RLock()
	snap, err := snapshot.Capture(req.Name, s.rt.Controller, s.rt.Catalog, s.rt.Map)
	s.mu.RUnlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.snapshots.Set(r.Context(), snap); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("snapshot saved", "id", snap.ID, "name", snap.Name)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.snapshots.Delete(r.Context(), pathParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := snapshot.Restore(r.Context(), snap, s.rt.Controller, s.rt.Catalog, s.rt.Map); err != nil {
		s.writeError(w, r, serrors.Wrap(serrors.ErrCodeInvalidState, err, "restore snapshot %s", snap.ID))
		return
	}
	s.logger.Info("snapshot restored", "id", snap.ID, "name", snap.Name)
	writeJSON(w, http.StatusOK, s.status())
}
