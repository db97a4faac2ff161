package compare

import (
	serrors "github.com/matzehuels/stylesync/pkg/errors"
)

// ViewState is the shared camera pose of both panels.
type ViewState struct {
	Center  [2]float64 `json:"center" bson:"center" toml:"center"` // lng, lat
	Zoom    float64    `json:"zoom" bson:"zoom" toml:"zoom"`
	Bearing float64    `json:"bearing" bson:"bearing" toml:"bearing"`
	Pitch   float64    `json:"pitch" bson:"pitch" toml:"pitch"`
}

// Slider is the position of the divider between the panels.
type Slider struct {
	Percentage float64 `json:"percentage" bson:"percentage" toml:"percentage"` // 0..100
	Position   float64 `json:"position" bson:"position" toml:"position"`       // pixels
}

// DefaultSlider splits the view in half.
var DefaultSlider = Slider{Percentage: 50}

// Orientation is the split direction.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// ParseOrientation validates an orientation string. Empty means Vertical.
func ParseOrientation(s string) (Orientation, error) {
	switch Orientation(s) {
	case "", Vertical:
		return Vertical, nil
	case Horizontal:
		return Horizontal, nil
	}
	return "", serrors.New(serrors.ErrCodeInvalidInput, "unknown orientation %q", s)
}

// Validate checks the percentage lies in [0, 100] and the position is not negative.
func (s Slider) Validate() error {
	if s.Percentage < 0 || s.Percentage > 100 {
		return serrors.New(serrors.ErrCodeInvalidInput, "slider percentage %v out of range [0, 100]", s.Percentage)
	}
	if s.Position < 0 {
		return serrors.New(serrors.ErrCodeInvalidInput, "slider position %v is negative", s.Position)
	}
	return nil
}
