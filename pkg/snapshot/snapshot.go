// Package snapshot saves and restores comparison views.
//
// A [Snapshot] captures everything a user would expect to get back: the
// selection with each copy's frame, the basemap, the camera and divider,
// per-panel group visibility and per-panel style overrides. Snapshots are
// persisted through a [Store]:
//   - [MemoryStore]: in-process, for tests and the HTTP server default
//   - [FileStore]: JSON files for the CLI (~/.config/stylesync/snapshots/)
//   - [RedisStore]: shared storage for multi-instance servers
//   - [MongoStore]: durable document storage
//
// # Usage
//
//	snap, err := snapshot.Capture("before", rt.Controller, rt.Catalog, rt.Map)
//	if err != nil {
//	    return err
//	}
//	store.Set(ctx, snap)
//
//	snap, err = store.Get(ctx, id)
//	if errors.Is(err, snapshot.ErrNotFound) {
//	    // unknown or expired
//	}
//	err = snapshot.Restore(ctx, snap, rt.Controller, rt.Catalog, rt.Map)
package snapshot

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stylesync/pkg/compare"
	serrors "github.com/matzehuels/stylesync/pkg/errors"
	"github.com/matzehuels/stylesync/pkg/layers"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = serrors.New(serrors.ErrCodeSnapshotNotFound, "snapshot not found")

// Snapshot is a saved comparison view.
type Snapshot struct {
	ID          string                `json:"id" bson:"_id"`
	Name        string                `json:"name" bson:"name"`
	CreatedAt   time.Time             `json:"created_at" bson:"created_at"`
	Active      bool                  `json:"active" bson:"active"`
	View        compare.ViewState     `json:"view" bson:"view"`
	Slider      compare.Slider        `json:"slider" bson:"slider"`
	Orientation compare.Orientation   `json:"orientation" bson:"orientation"`
	Basemap     string                `json:"basemap" bson:"basemap"`
	Selected    []Selected            `json:"selected" bson:"selected"`
	Panels      map[string]PanelState `json:"panels" bson:"panels"`
}

// Selected is one selected layer copy and its frame index.
type Selected struct {
	Key   layers.Key `json:"key" bson:"key"`
	Frame int        `json:"frame" bson:"frame"`
}

// PanelState is the per-panel part of a snapshot.
type PanelState struct {
	Visibility map[string]bool         `json:"visibility,omitempty" bson:"visibility,omitempty"`
	Overrides  []compare.OverrideEntry `json:"overrides,omitempty" bson:"overrides,omitempty"`
}

// New returns an empty snapshot with a fresh ID.
func New(name string) (*Snapshot, error) {
	if err := serrors.ValidateName(name); err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Panels:    make(map[string]PanelState, len(compare.Panels)),
	}, nil
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Get retrieves a snapshot by ID. It returns ErrNotFound when the
	// snapshot does not exist or has expired.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// Set stores a snapshot, replacing one with the same ID.
	Set(ctx context.Context, s *Snapshot) error

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all snapshots, newest first.
	List(ctx context.Context) ([]*Snapshot, error)

	// Close releases backend resources.
	Close() error
}

// validateID rejects IDs that are not UUIDs. IDs end up in file names and
// database keys.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return serrors.Wrap(serrors.ErrCodeInvalidInput, err, "invalid snapshot id %q", id)
	}
	return nil
}

func sortNewestFirst(snaps []*Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
}
