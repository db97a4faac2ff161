package compare

import (
	"reflect"
	"testing"

	"github.com/matzehuels/stylesync/pkg/layers"
)

func drawablesOf(m map[string][]string) func(layers.Group) []string {
	return func(g layers.Group) []string { return m[g.Name] }
}

func group(name string, visible bool) layers.Group {
	return layers.Group{Name: name, Visible: visible}
}

func TestVisibilityRegenerateDefaults(t *testing.T) {
	v := NewVisibilityLedger()
	d := drawablesOf(map[string][]string{"Roads": {"r.fill", "r.line"}})
	v.Regenerate([]layers.Group{group("Roads", true), group("Rivers", false)}, d)

	for _, p := range Panels {
		got := v.Entries(p)
		want := []DisplayGroup{
			{Name: "Roads", Visible: true, LayerIDs: []string{"r.fill", "r.line"}},
			{Name: "Rivers", Visible: false, LayerIDs: nil},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("panel %s entries = %+v, want %+v", p, got, want)
		}
	}
}

func TestVisibilityRegeneratePreservesByName(t *testing.T) {
	v := NewVisibilityLedger()
	d := drawablesOf(nil)
	v.Regenerate([]layers.Group{group("Roads", true), group("Rivers", true)}, d)
	v.Set(PanelB, "Roads", false)

	v.Regenerate([]layers.Group{group("Parks", true), group("Roads", true)}, d)

	if got, ok := v.State(PanelB, "Roads"); !ok || got {
		t.Errorf("panel B Roads = %v (ok=%v), want false", got, ok)
	}
	if got, _ := v.State(PanelA, "Roads"); !got {
		t.Error("panel A Roads should stay visible")
	}
	if _, ok := v.State(PanelB, "Rivers"); ok {
		t.Error("deselected group should be dropped")
	}
	if got, _ := v.State(PanelB, "Parks"); !got {
		t.Error("new group should start at its natural visibility")
	}
}

func TestVisibilitySetUnknown(t *testing.T) {
	v := NewVisibilityLedger()
	if v.Set(PanelA, "nope", true) {
		t.Error("Set on unknown name should report false")
	}
}

func TestVisibilitySetAllAndReset(t *testing.T) {
	v := NewVisibilityLedger()
	v.Regenerate([]layers.Group{group("a", true), group("b", true)}, drawablesOf(nil))
	v.SetAll(PanelA, false)
	for _, e := range v.Entries(PanelA) {
		if e.Visible {
			t.Errorf("panel A %s still visible", e.Name)
		}
	}
	for _, e := range v.Entries(PanelB) {
		if !e.Visible {
			t.Errorf("panel B %s hidden by panel A SetAll", e.Name)
		}
	}
	v.Reset()
	if n := len(v.Entries(PanelA)); n != 0 {
		t.Errorf("entries after Reset = %d, want 0", n)
	}
}

func TestVisibleDrawableIDs(t *testing.T) {
	d := drawablesOf(map[string][]string{
		"G1": {"g1.fill", "g1.line", "g1.circle"},
		"G2": {"g2.raster"},
	})
	// G2 was selected after G1, so it sits first.
	groups := []layers.Group{group("G2", true), group("G1", true)}
	base := []string{"bg", "", "water", "labels"}

	tests := []struct {
		name    string
		entries []DisplayGroup
		basemap string
		want    []string
	}{
		{
			name:    "all visible",
			basemap: "Streets",
			want:    []string{"g2.raster", "g1.circle", "g1.line", "g1.fill", "labels", "water", "bg"},
		},
		{
			name:    "hidden group skipped",
			entries: []DisplayGroup{{Name: "G1", Visible: false}, {Name: "G2", Visible: true}},
			basemap: "Streets",
			want:    []string{"g2.raster", "labels", "water", "bg"},
		},
		{
			name:    "no basemap",
			basemap: NoBasemap,
			want:    []string{"g2.raster", "g1.circle", "g1.line", "g1.fill"},
		},
		{
			name:    "missing entry is included",
			entries: []DisplayGroup{{Name: "G2", Visible: false}},
			basemap: NoBasemap,
			want:    []string{"g1.circle", "g1.line", "g1.fill"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VisibleDrawableIDs(tt.entries, groups, d, base, tt.basemap)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
