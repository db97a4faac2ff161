package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stylesync/pkg/compare"
	"github.com/matzehuels/stylesync/pkg/scene"
	"github.com/matzehuels/stylesync/pkg/style"
)

// compareCommand creates the compare command.
func (c *CLI) compareCommand() *cobra.Command {
	var (
		outDir  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "compare <scene.toml>",
		Short: "Replay a scene's events and report both comparison panels",
		Long: `Load a scene, replay its scripted events in order and print what each
comparison panel shows afterwards: its display groups, visible layers and
stored per-panel overrides.

With --out, the final style document of each panel is written as
<dir>/panel-a.json and <dir>/panel-b.json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			rt, err := c.loadRuntime(ctx, args[0], noCache)
			if err != nil {
				return err
			}
			defer rt.Close()

			prog := newProgress(logger)
			err = rt.Scene.Run(ctx, rt, func(i int, e scene.Event) {
				printInfo("%s", e)
			})
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Replayed %d events", len(rt.Scene.Events)))

			writeReport(cmd.OutOrStdout(), rt)

			if outDir != "" {
				return exportPanels(rt.Controller, outDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write panel styles to this directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the computed-style cache")
	return cmd
}

// writeReport prints the comparison state of a runtime.
func writeReport(w io.Writer, rt *scene.Runtime) {
	ctrl := rt.Controller
	fmt.Fprintln(w)
	fmt.Fprintln(w, StyleTitle.Render(rt.Scene.Name))
	fmt.Fprintln(w, joinDim(
		"comparison "+ctrl.State().String(),
		"basemap "+rt.Map.CurrentBasemap(),
		fmt.Sprintf("%d selected", len(rt.Catalog.Selected())),
	))
	if ctrl.State() != compare.Active {
		return
	}
	for _, p := range compare.Panels {
		fmt.Fprintln(w)
		fmt.Fprintln(w, StyleTitle.Render("Panel "+p.String()))
		for _, g := range ctrl.DisplayGroups(p) {
			mark := styleIconSuccess.Render(iconSuccess)
			if !g.Visible {
				mark = StyleDim.Render(iconError)
			}
			fmt.Fprintf(w, "  %s %s %s\n", mark, g.Name, StyleDim.Render(fmt.Sprintf("(%d layers)", len(g.LayerIDs))))
		}
		visible := ctrl.VisibleLayers(p)
		fmt.Fprintln(w, "  "+joinDim(fmt.Sprintf("%d visible layers", len(visible)), strings.Join(visible, " ")))
		for _, e := range ctrl.Overrides().Entries(p) {
			fmt.Fprintf(w, "  %s %s opacity %.2f\n", StyleDim.Render(iconArrow), e.Key, e.Override.Opacity)
		}
	}
}

func exportPanels(ctrl *compare.Controller, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, p := range compare.Panels {
		doc, ok := ctrl.PanelStyle(p)
		if !ok {
			printWarning("panel %s has no style (comparison inactive)", p)
			continue
		}
		path := filepath.Join(dir, "panel-"+strings.ToLower(p.String())+".json")
		if err := style.ExportJSON(doc, path); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}
