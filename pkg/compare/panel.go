package compare

import (
	"strings"

	serrors "github.com/matzehuels/stylesync/pkg/errors"
)

// Panel identifies one side of a comparison.
type Panel string

// The two comparison panels.
const (
	PanelA Panel = "A"
	PanelB Panel = "B"
)

// Panels lists both panels in a stable order.
var Panels = [...]Panel{PanelA, PanelB}

// ParsePanel accepts "a", "A", "b" or "B".
func ParsePanel(s string) (Panel, error) {
	switch Panel(strings.ToUpper(strings.TrimSpace(s))) {
	case PanelA:
		return PanelA, nil
	case PanelB:
		return PanelB, nil
	}
	return "", serrors.New(serrors.ErrCodeInvalidPanel, "unknown panel %q (want A or B)", s)
}

// Valid reports whether p is PanelA or PanelB.
func (p Panel) Valid() bool { return p == PanelA || p == PanelB }

func (p Panel) String() string { return string(p) }

func checkPanel(p Panel) error {
	if !p.Valid() {
		return serrors.New(serrors.ErrCodeInvalidPanel, "unknown panel %q", string(p))
	}
	return nil
}
