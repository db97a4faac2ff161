package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/stylesync/pkg/snapshot"
)

// storeFlags selects a snapshot backend. Redis wins over MongoDB, and
// MongoDB over the local file store.
type storeFlags struct {
	redisAddr string
	mongoURI  string
	dir       string
}

func (f *storeFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.redisAddr, "redis", os.Getenv(envRedisAddr), "Redis address for snapshots (env "+envRedisAddr+")")
	fs.StringVar(&f.mongoURI, "mongo", os.Getenv(envMongoURI), "MongoDB URI for snapshots (env "+envMongoURI+")")
	fs.StringVar(&f.dir, "snapshot-dir", "", "directory for file-backed snapshots (default ~/.config/stylesync/snapshots)")
}

// backend names the store the flags select.
func (f *storeFlags) backend() string {
	switch {
	case f.redisAddr != "":
		return "redis"
	case f.mongoURI != "":
		return "mongo"
	default:
		return "file"
	}
}

// open connects to the selected backend and wraps it with observability hooks.
func (f *storeFlags) open(ctx context.Context) (snapshot.Store, error) {
	var (
		store snapshot.Store
		err   error
	)
	backend := f.backend()

	spinner := newSpinnerWithContext(ctx, "Connecting to "+backend+" snapshot store...")
	spinner.Start()
	switch backend {
	case "redis":
		store, err = snapshot.NewRedisStore(ctx, snapshot.RedisConfig{Addr: f.redisAddr})
	case "mongo":
		store, err = snapshot.NewMongoStore(ctx, snapshot.MongoConfig{URI: f.mongoURI})
	default:
		dir := f.dir
		if dir == "" {
			if dir, err = snapshot.DefaultDir(); err != nil {
				break
			}
		}
		store, err = snapshot.NewFileStore(dir)
	}
	spinner.Stop()
	if err != nil {
		return nil, fmt.Errorf("open %s snapshot store: %w", backend, err)
	}
	loggerFromContext(ctx).Debug("snapshot store ready", "backend", backend)
	return snapshot.Instrument(store, backend), nil
}

// snapshotTable renders snapshots as a bordered table.
func snapshotTable(snaps []*snapshot.Snapshot) string {
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		state := "—"
		if s.Active {
			state = "active"
		}
		rows = append(rows, []string{
			s.ID,
			s.Name,
			s.CreatedAt.Local().Format(time.DateTime),
			state,
			fmt.Sprint(len(s.Selected)),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Created", "Comparison", "Layers").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 1:
				return lipgloss.NewStyle().Foreground(colorWhite)
			default:
				return lipgloss.NewStyle().Foreground(colorGray)
			}
		}).
		Render()
}

// =============================================================================
// snapshot command
// =============================================================================

// snapshotCommand creates the snapshot management command.
func (c *CLI) snapshotCommand() *cobra.Command {
	var flags storeFlags

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage saved comparison snapshots",
	}
	flags.register(cmd.PersistentFlags())

	cmd.AddCommand(c.snapshotListCommand(&flags))
	cmd.AddCommand(c.snapshotShowCommand(&flags))
	cmd.AddCommand(c.snapshotDeleteCommand(&flags))
	return cmd
}

func (c *CLI) snapshotListCommand(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			snaps, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				printInfo("No snapshots")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), snapshotTable(snaps))
			return nil
		},
	}
}

func (c *CLI) snapshotShowCommand(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printKeyValue("ID", s.ID)
			printKeyValue("Name", s.Name)
			printKeyValue("Created", s.CreatedAt.Local().Format(time.DateTime))
			printKeyValue("Active", fmt.Sprint(s.Active))
			printKeyValue("Basemap", s.Basemap)
			printKeyValue("Center", fmt.Sprintf("%.4f, %.4f", s.View.Center[0], s.View.Center[1]))
			printKeyValue("Zoom", fmt.Sprintf("%.2f", s.View.Zoom))
			printKeyValue("Slider", fmt.Sprintf("%.0f%% %s", s.Slider.Percentage, s.Orientation))
			for _, sel := range s.Selected {
				printDetail("layer %s frame %d", sel.Key, sel.Frame)
			}
			for panel, ps := range s.Panels {
				hidden := 0
				for _, v := range ps.Visibility {
					if !v {
						hidden++
					}
				}
				printDetail("panel %s: %d hidden groups, %d overrides", panel, hidden, len(ps.Overrides))
			}
			return nil
		},
	}
}

func (c *CLI) snapshotDeleteCommand(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if err := store.Delete(cmd.Context(), id); err != nil {
					printError("%s: %v", id, err)
					return err
				}
				printSuccess("Deleted %s", id)
			}
			return nil
		},
	}
}
