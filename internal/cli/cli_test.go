package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stylesync/pkg/snapshot"
	"github.com/matzehuels/stylesync/pkg/style"
)

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	want := []string{"diff", "compare", "serve", "tui", "snapshot", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestDiffCommand(t *testing.T) {
	out, err := execute(t, "diff", "testdata/existing.json", "testdata/candidate.json", "--json")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	var got deltaJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if len(got.SourcesAdded) != 1 || got.SourcesAdded[0] != "depth" {
		t.Errorf("sources added = %v", got.SourcesAdded)
	}
	if len(got.SourcesRemoved) != 1 || got.SourcesRemoved[0] != "roads" {
		t.Errorf("sources removed = %v", got.SourcesRemoved)
	}
	if len(got.LayersAdded) != 1 || got.LayersAdded[0] != "depth.raster" {
		t.Errorf("layers added = %v", got.LayersAdded)
	}
	if len(got.LayersRemoved) != 1 || got.LayersRemoved[0] != "roads.line" {
		t.Errorf("layers removed = %v", got.LayersRemoved)
	}
}

func TestDiffCommandIdentical(t *testing.T) {
	out, err := execute(t, "diff", "testdata/existing.json", "testdata/existing.json")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, "no differences") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "diff", "testdata/existing.json", "testdata/existing.json", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"layers_added": []`) {
		t.Errorf("empty delta should encode empty arrays, got %s", out)
	}
}

func TestDiffCommandErrors(t *testing.T) {
	if _, err := execute(t, "diff", "testdata/existing.json"); err == nil {
		t.Error("expected argument count error")
	}
	if _, err := execute(t, "diff", "testdata/existing.json", "testdata/missing.json"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "compare", "testdata/scene.toml", "--no-cache", "--out", dir)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	for _, want := range []string{"Test scene", "Panel A", "Panel B", "Roads", "Depth", "2.0 opacity 0.30"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	for _, name := range []string{"panel-a.json", "panel-b.json"} {
		doc, err := style.ImportJSON(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("import %s: %v", name, err)
		}
		if !doc.HasSource("2.0.20.raster") {
			t.Errorf("%s: missing selected raster source", name)
		}
	}
}

func TestCompareCommandBadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("name = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "compare", path, "--no-cache"); err == nil {
		t.Error("expected error for invalid scene")
	}
}

func TestSnapshotListEmpty(t *testing.T) {
	t.Setenv(envRedisAddr, "")
	t.Setenv(envMongoURI, "")
	if _, err := execute(t, "snapshot", "list", "--snapshot-dir", t.TempDir()); err != nil {
		t.Fatalf("snapshot list: %v", err)
	}
}

func TestSnapshotShowMissing(t *testing.T) {
	t.Setenv(envRedisAddr, "")
	t.Setenv(envMongoURI, "")
	_, err := execute(t, "snapshot", "show", "00000000-0000-0000-0000-000000000000", "--snapshot-dir", t.TempDir())
	if err == nil {
		t.Error("expected not found error")
	}
}

func TestStoreFlagsBackend(t *testing.T) {
	tests := []struct {
		name  string
		flags storeFlags
		want  string
	}{
		{"default", storeFlags{}, "file"},
		{"mongo", storeFlags{mongoURI: "mongodb://localhost"}, "mongo"},
		{"redis", storeFlags{redisAddr: "localhost:6379"}, "redis"},
		{"redis wins", storeFlags{redisAddr: "localhost:6379", mongoURI: "mongodb://localhost"}, "redis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flags.backend(); got != tt.want {
				t.Errorf("backend() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnapshotListAndDelete(t *testing.T) {
	t.Setenv(envRedisAddr, "")
	t.Setenv(envMongoURI, "")
	dir := t.TempDir()

	store, err := snapshot.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := snapshot.New("before flood")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(context.Background(), snap); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "snapshot", "list", "--snapshot-dir", dir)
	if err != nil {
		t.Fatalf("snapshot list: %v", err)
	}
	if !strings.Contains(out, "before flood") || !strings.Contains(out, snap.ID) {
		t.Errorf("list output missing snapshot:\n%s", out)
	}

	if _, err := execute(t, "snapshot", "show", snap.ID, "--snapshot-dir", dir); err != nil {
		t.Errorf("snapshot show: %v", err)
	}
	if _, err := execute(t, "snapshot", "delete", snap.ID, "--snapshot-dir", dir); err != nil {
		t.Fatalf("snapshot delete: %v", err)
	}
	if _, err := store.Get(context.Background(), snap.ID); !errors.Is(err, snapshot.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}
