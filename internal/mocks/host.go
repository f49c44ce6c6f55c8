package mocks

import (
	"context"
	"sync"

	"github.com/lostbyte/mainhero/internal/host"
	"github.com/lostbyte/mainhero/internal/logger"
	"github.com/lostbyte/mainhero/internal/models"
)

// HostSession is an in-memory virtual-tabletop host for local development
// and tests. It records identity writes, camera moves and selections.
type HostSession struct {
	mu sync.Mutex

	playerID string
	role     host.Role
	name     string
	color    string
	items    map[string]host.Item
	scale    float64
	width    float64
	height   float64
	theme    host.Theme

	animations []host.ViewportTransform
	selections [][]string
	nameWrites int

	themeSubs map[int]func(host.Theme)
	nextSub   int

	// Error hooks; a non-nil value makes the matching call fail
	RoleErr    error
	SetNameErr error
	AnimateErr error
	SelectErr  error
	ItemsErr   error
	ThemeErr   error

	// RoleHook and SetNameHook, when set, run inside the matching call before it returns
	RoleHook    func(ctx context.Context)
	SetNameHook func(ctx context.Context, name string)
}

// NewHostSession creates a host where the local player has the PLAYER role
// and a 1280x720 viewport at zoom 1
func NewHostSession() *HostSession {
	logger.Info("Using MOCK host session (no virtual tabletop attached)")

	th := host.Theme{
		Mode:      "DARK",
		Primary:   host.Palette{Main: "#bb99ff", Light: "#d6c2ff", Dark: "#8c73bf", ContrastText: "#000000"},
		Secondary: host.Palette{Main: "#ee99ff", Light: "#f4c2ff", Dark: "#b273bf", ContrastText: "#000000"},
	}
	th.Background.Default = "#1e2231"
	th.Background.Paper = "#222639"
	th.Text.Primary = "#ffffff"
	th.Text.Secondary = "#ffffffb3"
	th.Text.Disabled = "#ffffff80"

	return &HostSession{
		playerID:  "mock-player",
		role:      host.RolePlayer,
		items:     make(map[string]host.Item),
		scale:     1,
		width:     1280,
		height:    720,
		theme:     th,
		themeSubs: make(map[int]func(host.Theme)),
	}
}

// SetRole changes the local player's role
func (h *HostSession) SetRole(role host.Role) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.role = role
}

// SetViewport changes zoom and viewport size
func (h *HostSession) SetViewport(scale, width, height float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scale, h.width, h.height = scale, width, height
}

// PlaceItem puts a scene item at pos
func (h *HostSession) PlaceItem(id string, pos models.Vector2) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items[id] = host.Item{ID: id, Position: pos}
}

// ChangeTheme updates the theme and notifies subscribers
func (h *HostSession) ChangeTheme(th host.Theme) {
	h.mu.Lock()
	h.theme = th
	subs := make([]func(host.Theme), 0, len(h.themeSubs))
	for _, fn := range h.themeSubs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(th)
	}
}

// Identity returns the player name and color last pushed by the panel
func (h *HostSession) Identity() (name, color string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.name, h.color
}

// NameWrites counts SetName calls
func (h *HostSession) NameWrites() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nameWrites
}

// Animations returns every viewport animation requested so far
func (h *HostSession) Animations() []host.ViewportTransform {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]host.ViewportTransform(nil), h.animations...)
}

// Selections returns every Select call so far
func (h *HostSession) Selections() [][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]string(nil), h.selections...)
}

func (h *HostSession) PlayerID(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playerID, nil
}

func (h *HostSession) SetName(ctx context.Context, name string) error {
	if h.SetNameHook != nil {
		h.SetNameHook(ctx, name)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.SetNameErr != nil {
		return h.SetNameErr
	}
	h.name = name
	h.nameWrites++
	return nil
}

func (h *HostSession) SetColor(ctx context.Context, color string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.color = color
	return nil
}

func (h *HostSession) Role(ctx context.Context) (host.Role, error) {
	if h.RoleHook != nil {
		h.RoleHook(ctx)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.RoleErr != nil {
		return "", h.RoleErr
	}
	return h.role, nil
}

func (h *HostSession) Items(ctx context.Context, ids []string) ([]host.Item, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ItemsErr != nil {
		return nil, h.ItemsErr
	}
	var out []host.Item
	for _, id := range ids {
		if item, ok := h.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (h *HostSession) ViewportScale(ctx context.Context) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scale, nil
}

func (h *HostSession) ViewportWidth(ctx context.Context) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, nil
}

func (h *HostSession) ViewportHeight(ctx context.Context) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.height, nil
}

func (h *HostSession) AnimateTo(ctx context.Context, t host.ViewportTransform) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.AnimateErr != nil {
		return h.AnimateErr
	}
	h.animations = append(h.animations, t)
	return nil
}

func (h *HostSession) Select(ctx context.Context, ids []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.SelectErr != nil {
		return h.SelectErr
	}
	h.selections = append(h.selections, append([]string(nil), ids...))
	return nil
}

func (h *HostSession) Theme(ctx context.Context) (host.Theme, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ThemeErr != nil {
		return host.Theme{}, h.ThemeErr
	}
	return h.theme, nil
}

func (h *HostSession) OnThemeChange(fn func(host.Theme)) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.themeSubs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.themeSubs, id)
	}, nil
}

var _ host.Session = (*HostSession)(nil)
