// Package host describes the virtual-tabletop session the panel runs inside.
// The host is external: this package only consumes it.
package host

import (
	"context"

	"github.com/lostbyte/mainhero/internal/models"
)

// Role is the local player's role in the host session
type Role string

const (
	RolePlayer Role = "PLAYER"
	RoleGM     Role = "GM"
)

// Item is a live scene entity
type Item struct {
	ID       string         `json:"id"`
	Position models.Vector2 `json:"position"`
}

// ViewportTransform is a camera target
type ViewportTransform struct {
	Scale    float64        `json:"scale"`
	Position models.Vector2 `json:"position"`
}

// Palette is one themed color family
type Palette struct {
	Main         string `json:"main"`
	Light        string `json:"light"`
	Dark         string `json:"dark"`
	ContrastText string `json:"contrastText"`
}

// Theme is the host's current look, broadcast to extensions
type Theme struct {
	Mode       string  `json:"mode"` // "LIGHT" or "DARK"
	Primary    Palette `json:"primary"`
	Secondary  Palette `json:"secondary"`
	Background struct {
		Default string `json:"default"`
		Paper   string `json:"paper"`
	} `json:"background"`
	Text struct {
		Primary   string `json:"primary"`
		Secondary string `json:"secondary"`
		Disabled  string `json:"disabled"`
	} `json:"text"`
}

// Session is the host API surface the panel depends on
type Session interface {
	PlayerID(ctx context.Context) (string, error)
	SetName(ctx context.Context, name string) error
	SetColor(ctx context.Context, color string) error
	Role(ctx context.Context) (Role, error)

	Items(ctx context.Context, ids []string) ([]Item, error)

	ViewportScale(ctx context.Context) (float64, error)
	ViewportWidth(ctx context.Context) (float64, error)
	ViewportHeight(ctx context.Context) (float64, error)
	AnimateTo(ctx context.Context, t ViewportTransform) error

	// Select marks items as the local player's selection
	Select(ctx context.Context, ids []string) error

	Theme(ctx context.Context) (Theme, error)
	// OnThemeChange registers fn for theme broadcasts and returns a function that cancels it
	OnThemeChange(fn func(Theme)) (func(), error)
}
