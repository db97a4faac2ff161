package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stylesync/pkg/compare"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)

	panelBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1).Width(36)
	panelBoxActiveStyle = panelBoxStyle.BorderForeground(colorCyan)
)

// tuiCommand creates the interactive visibility toggler.
func (c *CLI) tuiCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "tui <scene.toml>",
		Short: "Toggle display groups in both panels interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := c.loadRuntime(ctx, args[0], noCache)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Controller.Activate(ctx); err != nil {
				return err
			}
			final, err := tea.NewProgram(NewPanelModel(rt.Controller), tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			if m, ok := final.(PanelModel); ok && m.Err != nil {
				return m.Err
			}
			writeReport(cmd.OutOrStdout(), rt)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the computed-style cache")
	return cmd
}

// =============================================================================
// PanelModel - Interactive visibility toggling
// =============================================================================

// PanelModel is the bubbletea model showing both panels' display groups.
type PanelModel struct {
	Controller *compare.Controller
	Panel      int // index into compare.Panels
	Cursor     int
	Err        error
}

// NewPanelModel creates a model focused on panel A.
func NewPanelModel(ctrl *compare.Controller) PanelModel {
	return PanelModel{Controller: ctrl}
}

func (m PanelModel) Init() tea.Cmd {
	return nil
}

func (m PanelModel) panel() compare.Panel { return compare.Panels[m.Panel] }

func (m PanelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	groups := m.Controller.DisplayGroups(m.panel())
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "left", "right", "h", "l":
		m.Panel = (m.Panel + 1) % len(compare.Panels)
		m.Cursor = min(m.Cursor, max(len(m.Controller.DisplayGroups(m.panel()))-1, 0))
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(groups)-1 {
			m.Cursor++
		}
	case " ", "enter", "x":
		if m.Cursor < len(groups) {
			g := groups[m.Cursor]
			m.Err = m.Controller.SetVisibility(m.panel(), g.Name, !g.Visible)
		}
	case "a":
		m.Err = m.Controller.SetAllVisibility(m.panel(), true)
	case "n":
		m.Err = m.Controller.SetAllVisibility(m.panel(), false)
	}
	if m.Err != nil {
		return m, tea.Quit
	}
	return m, nil
}

func (m PanelModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Panel Visibility"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab switch panel  space toggle  a/n all/none  q quit"))
	b.WriteString("\n\n")

	boxes := make([]string, len(compare.Panels))
	for i, p := range compare.Panels {
		boxes[i] = m.renderPanel(i, p)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n")
	return b.String()
}

func (m PanelModel) renderPanel(i int, p compare.Panel) string {
	focused := i == m.Panel
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Panel " + p.String()))
	b.WriteString("\n")

	groups := m.Controller.DisplayGroups(p)
	if len(groups) == 0 {
		b.WriteString(listDimStyle.Render("no layers selected"))
	}
	for j, g := range groups {
		cursor := "  "
		if focused && j == m.Cursor {
			cursor = "▸ "
		}
		check := "[ ]"
		if g.Visible {
			check = "[x]"
		}
		line := fmt.Sprintf("%s%s %s", cursor, check, g.Name)
		switch {
		case focused && j == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case g.Visible:
			b.WriteString(listNormalStyle.Render(line))
		default:
			b.WriteString(listDimStyle.Render(line))
		}
		if j < len(groups)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d visible layers", len(m.Controller.VisibleLayers(p)))))

	if focused {
		return panelBoxActiveStyle.Render(b.String())
	}
	return panelBoxStyle.Render(b.String())
}
