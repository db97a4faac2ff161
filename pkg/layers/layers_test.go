package layers

import (
	"reflect"
	"testing"

	serrors "github.com/matzehuels/stylesync/pkg/errors"
)

func testCatalog() *Catalog {
	return NewCatalog(
		Layer{ID: 1, Name: "Roads", Visible: true, Frames: []Frame{
			{ID: 10, Kind: KindVector},
			{ID: 11, Kind: KindVector},
		}},
		Layer{ID: 2, Name: "Elevation", Frames: []Frame{
			{ID: 20, Kind: KindRaster},
		}},
	)
}

func names(gs []Group) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.Name
	}
	return out
}

func TestDrawableIDsForFrame(t *testing.T) {
	k := Key{LayerID: 3, CopyID: 1}
	tests := []struct {
		frame Frame
		want  []string
	}{
		{Frame{ID: 7, Kind: KindVector}, []string{"3.1.7.vector.fill", "3.1.7.vector.line", "3.1.7.vector.circle"}},
		{Frame{ID: 8, Kind: KindRaster}, []string{"3.1.8.raster.raster"}},
	}
	for _, tt := range tests {
		if got := DrawableIDsForFrame(k, tt.frame); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DrawableIDsForFrame(%v) = %v, want %v", tt.frame, got, tt.want)
		}
	}
}

func TestCatalogSelectOrderAndCopies(t *testing.T) {
	c := testCatalog()
	k0, err := c.Select(1)
	if err != nil {
		t.Fatal(err)
	}
	c.Select(2)
	k1, _ := c.Select(1)

	if k0 != (Key{LayerID: 1, CopyID: 0}) || k1 != (Key{LayerID: 1, CopyID: 1}) {
		t.Errorf("keys = %v, %v", k0, k1)
	}
	want := []string{"Roads (1)", "Elevation", "Roads"}
	if got := names(c.Selected()); !reflect.DeepEqual(got, want) {
		t.Errorf("selection = %v, want %v", got, want)
	}
	if _, err := c.Select(99); err == nil {
		t.Error("selecting an unknown layer should fail")
	}
}

func TestCatalogDeselect(t *testing.T) {
	c := testCatalog()
	k0, _ := c.Select(1)
	k1, _ := c.Select(1)
	if !c.Deselect(k0) {
		t.Fatal("Deselect should report a selected copy")
	}
	if c.Deselect(k0) {
		t.Error("second Deselect should report false")
	}
	if _, ok := c.Lookup(k0); ok {
		t.Error("deselected copy still found")
	}
	k2, _ := c.Select(1)
	if k2.CopyID != k1.CopyID+1 {
		t.Errorf("copy id = %d, want %d", k2.CopyID, k1.CopyID+1)
	}
}

func TestCatalogReorder(t *testing.T) {
	c := testCatalog()
	a, _ := c.Select(1)
	b, _ := c.Select(2)
	if err := c.Reorder([]Key{a, b}); err != nil {
		t.Fatal(err)
	}
	if got := names(c.Selected()); !reflect.DeepEqual(got, []string{"Roads", "Elevation"}) {
		t.Errorf("selection = %v", got)
	}
	if err := c.Reorder([]Key{a, a}); err == nil {
		t.Error("duplicate keys accepted")
	}
	if err := c.Reorder([]Key{a}); err == nil {
		t.Error("short permutation accepted")
	}
}

func TestCatalogFrames(t *testing.T) {
	c := testCatalog()
	k, _ := c.Select(1)
	g, _ := c.Lookup(k)

	if got := c.CurrentFrameIndex(g); got != 0 {
		t.Errorf("default frame = %d", got)
	}
	if err := c.SetFrame(k, 1); err != nil {
		t.Fatal(err)
	}
	f, ok := c.CurrentFrame(g)
	if !ok || f.ID != 11 {
		t.Errorf("current frame = %+v, %v", f, ok)
	}
	if got := c.DrawableIDs(g); got[0] != "1.0.11.vector.fill" {
		t.Errorf("drawables = %v", got)
	}
	if err := c.SetFrame(k, 5); err == nil {
		t.Error("out-of-range frame accepted")
	}
	if err := c.SetFrame(Key{LayerID: 2}, 0); err == nil {
		t.Error("frame set on unselected layer")
	}
	c.Deselect(k)
	k, _ = c.Select(1)
	g, _ = c.Lookup(k)
	if got := c.CurrentFrameIndex(g); got != 0 {
		t.Errorf("frame leaked to a new copy: %d", got)
	}
}

func TestCatalogSetSelection(t *testing.T) {
	c := testCatalog()
	k, _ := c.Select(1)
	c.SetFrame(k, 1)
	c.Select(2)

	keys := []Key{{LayerID: 1, CopyID: 3}, {LayerID: 1, CopyID: 0}}
	if err := c.SetSelection(keys); err != nil {
		t.Fatal(err)
	}
	if got := names(c.Selected()); !reflect.DeepEqual(got, []string{"Roads (3)", "Roads"}) {
		t.Errorf("selection = %v", got)
	}
	g, _ := c.Lookup(k)
	if got := c.CurrentFrameIndex(g); got != 1 {
		t.Errorf("kept copy lost its frame: %d", got)
	}
	if next, _ := c.Select(1); next.CopyID != 4 {
		t.Errorf("next copy id = %d, want 4", next.CopyID)
	}

	if err := c.SetSelection([]Key{{LayerID: 9}}); err == nil {
		t.Error("unknown layer accepted")
	}
	if err := c.SetSelection([]Key{k, k}); err == nil {
		t.Error("duplicate key accepted")
	}
}

func TestCatalogErrorCodes(t *testing.T) {
	c := testCatalog()
	k, _ := c.Select(1)
	tests := []struct {
		name string
		run  func() error
		want serrors.Code
	}{
		{"select unknown", func() error { _, err := c.Select(99); return err }, serrors.ErrCodeLayerNotFound},
		{"frame unselected", func() error { return c.SetFrame(Key{LayerID: 2}, 0) }, serrors.ErrCodeLayerNotFound},
		{"frame out of range", func() error { return c.SetFrame(k, 5) }, serrors.ErrCodeInvalidInput},
		{"frame negative", func() error { return c.SetFrame(k, -1) }, serrors.ErrCodeInvalidInput},
		{"reorder count", func() error { return c.Reorder(nil) }, serrors.ErrCodeInvalidInput},
		{"reorder unselected", func() error { return c.Reorder([]Key{{LayerID: 2}}) }, serrors.ErrCodeLayerNotFound},
		{"selection unknown", func() error { return c.SetSelection([]Key{{LayerID: 9}}) }, serrors.ErrCodeLayerNotFound},
		{"selection duplicate", func() error { return c.SetSelection([]Key{k, k}) }, serrors.ErrCodeInvalidInput},
		{"check unknown", func() error { return c.CheckFrame(9, 0) }, serrors.ErrCodeLayerNotFound},
		{"check range", func() error { return c.CheckFrame(2, 1) }, serrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if got := serrors.GetCode(err); got != tt.want {
				t.Errorf("code = %q (%v), want %q", got, err, tt.want)
			}
		})
	}
	if err := c.CheckFrame(1, 1); err != nil {
		t.Errorf("CheckFrame(1, 1) = %v", err)
	}
	if got := names(c.Selected()); !reflect.DeepEqual(got, []string{"Roads"}) {
		t.Errorf("failed calls changed the selection: %v", got)
	}
}
