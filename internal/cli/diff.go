package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stylesync/pkg/style"
	"github.com/matzehuels/stylesync/pkg/stylediff"
)

// diffCommand creates the diff command.
func (c *CLI) diffCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "diff <existing.json> <candidate.json>",
		Short: "Show which sources and layers differ between two style documents",
		Long: `Compare two MapLibre style documents by source and layer ID.

Only membership is compared: a layer present in both documents is never
reported, even if its paint properties differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, err := style.ImportJSON(args[0])
			if err != nil {
				return err
			}
			candidate, err := style.ImportJSON(args[1])
			if err != nil {
				return err
			}
			d := stylediff.Compute(candidate, existing)
			if asJSON {
				return writeDeltaJSON(cmd.OutOrStdout(), d)
			}
			writeDelta(cmd.OutOrStdout(), d)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the delta as JSON")
	return cmd
}

// deltaJSON is the machine-readable form of a stylediff.Delta.
type deltaJSON struct {
	SourcesAdded   []string `json:"sources_added"`
	SourcesRemoved []string `json:"sources_removed"`
	LayersAdded    []string `json:"layers_added"`
	LayersRemoved  []string `json:"layers_removed"`
}

func writeDeltaJSON(w io.Writer, d stylediff.Delta) error {
	out := deltaJSON{
		SourcesAdded:   nonNil(d.SourcesAdded),
		SourcesRemoved: nonNil(d.SourcesRemoved),
		LayersAdded:    nonNil(d.LayersAddedIDs()),
		LayersRemoved:  nonNil(d.LayersRemoved),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeDelta(w io.Writer, d stylediff.Delta) {
	if d.Empty() {
		fmt.Fprintln(w, StyleDim.Render("no differences"))
		return
	}
	writeChanges(w, "Sources", d.SourcesAdded, d.SourcesRemoved)
	writeChanges(w, "Layers", d.LayersAddedIDs(), d.LayersRemoved)
	fmt.Fprintln(w, StyleDim.Render(d.Summary()))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
