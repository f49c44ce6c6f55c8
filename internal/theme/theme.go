// Package theme maps the host's theme onto the panel's CSS custom properties
// and keeps the panel in step with theme changes.
package theme

import (
	"context"
	"fmt"
	"sync"

	"github.com/lostbyte/mainhero/internal/host"
	"github.com/lostbyte/mainhero/internal/logger"
	"github.com/lostbyte/mainhero/internal/pubsub"
)

// Vars is the presentation form of a host theme
type Vars struct {
	Dark   bool              `json:"dark"`
	Colors map[string]string `json:"colors"`
}

// Variables maps th onto CSS custom property names
func Variables(th host.Theme) Vars {
	return Vars{
		Dark: th.Mode == "DARK",
		Colors: map[string]string{
			"--background-default": th.Background.Default,
			"--background-paper":   th.Background.Paper,
			"--text-primary":       th.Text.Primary,
			"--text-secondary":     th.Text.Secondary,
			"--text-disabled":      th.Text.Disabled,
			"--primary-main":       th.Primary.Main,
			"--primary-light":      th.Primary.Light,
			"--primary-dark":       th.Primary.Dark,
			"--primary-contrast":   th.Primary.ContrastText,
			"--secondary-main":     th.Secondary.Main,
			"--secondary-light":    th.Secondary.Light,
			"--secondary-dark":     th.Secondary.Dark,
			"--secondary-contrast": th.Secondary.ContrastText,
		},
	}
}

// Payload is the event payload published on theme changes
func (v Vars) Payload() map[string]any {
	colors := make(map[string]any, len(v.Colors))
	for k, c := range v.Colors {
		colors[k] = c
	}
	return map[string]any{"dark": v.Dark, "colors": colors}
}

// Watcher follows the host theme and republishes it on the event bus
type Watcher struct {
	session host.Session
	bus     *pubsub.PubSub

	mu      sync.RWMutex
	current Vars
	loaded  bool
	cancel  func()
}

// NewWatcher creates a watcher; nothing happens until Start
func NewWatcher(session host.Session, bus *pubsub.PubSub) *Watcher {
	return &Watcher{session: session, bus: bus}
}

// Start fetches the current theme, then subscribes to changes
func (w *Watcher) Start(ctx context.Context) error {
	th, err := w.session.Theme(ctx)
	if err != nil {
		return fmt.Errorf("fetch host theme: %w", err)
	}
	w.apply(th)

	cancel, err := w.session.OnThemeChange(w.apply)
	if err != nil {
		return fmt.Errorf("follow host theme: %w", err)
	}

	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	return nil
}

// Current returns the last theme seen and whether one was loaded
func (w *Watcher) Current() (Vars, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current, w.loaded
}

// Stop cancels the change subscription
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (w *Watcher) apply(th host.Theme) {
	vars := Variables(th)

	w.mu.Lock()
	w.current = vars
	w.loaded = true
	w.mu.Unlock()

	logger.Debug("Host theme applied", "mode", th.Mode)
	if w.bus != nil {
		w.bus.Publish(pubsub.Event{Type: pubsub.EventThemeChanged, Payload: vars.Payload()})
	}
}
