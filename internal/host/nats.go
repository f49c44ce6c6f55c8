package host

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/lostbyte/mainhero/internal/logger"
)

// Request subjects, relative to "<prefix>.host."
const (
	MethodPlayerID       = "player.getId"
	MethodSetName        = "player.setName"
	MethodSetColor       = "player.setColor"
	MethodRole           = "player.getRole"
	MethodSelect         = "player.select"
	MethodItems          = "scene.items.getItems"
	MethodViewportScale  = "viewport.getScale"
	MethodViewportWidth  = "viewport.getWidth"
	MethodViewportHeight = "viewport.getHeight"
	MethodAnimateTo      = "viewport.animateTo"
	MethodTheme          = "theme.getTheme"

	// SubjectThemeChanged carries Theme broadcasts from the host
	SubjectThemeChanged = "theme.changed"
)

// Reply is the envelope every host bridge answers with
type Reply struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// RemoteError is a failure reported by the host rather than the transport
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("host %s: %s", e.Method, e.Message)
}

type nameArgs struct {
	Name string `json:"name"`
}

type colorArgs struct {
	Color string `json:"color"`
}

type idsArgs struct {
	IDs []string `json:"ids"`
}

// NATSSession reaches the host through JSON request/reply on NATS. The
// browser-side bridge answers on "<prefix>.host.<method>".
type NATSSession struct {
	nc      *nats.Conn
	prefix  string
	timeout time.Duration
}

// NewNATSSession creates a session over nc. timeout bounds each request.
func NewNATSSession(nc *nats.Conn, prefix string, timeout time.Duration) *NATSSession {
	return &NATSSession{nc: nc, prefix: prefix, timeout: timeout}
}

func subject(prefix, method string) string {
	return prefix + ".host." + method
}

func (s *NATSSession) call(ctx context.Context, method string, args any, result any) error {
	payload := []byte("{}")
	if args != nil {
		var err error
		payload, err = json.Marshal(args)
		if err != nil {
			return fmt.Errorf("host %s: encode args: %w", method, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.nc.RequestWithContext(ctx, subject(s.prefix, method), payload)
	if err != nil {
		return fmt.Errorf("host %s: %w", method, err)
	}

	var reply Reply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("host %s: decode reply: %w", method, err)
	}
	if reply.Error != "" {
		return &RemoteError{Method: method, Message: reply.Error}
	}
	if result != nil && len(reply.Result) > 0 {
		if err := json.Unmarshal(reply.Result, result); err != nil {
			return fmt.Errorf("host %s: decode result: %w", method, err)
		}
	}
	return nil
}

func (s *NATSSession) PlayerID(ctx context.Context) (string, error) {
	var id string
	err := s.call(ctx, MethodPlayerID, nil, &id)
	return id, err
}

func (s *NATSSession) SetName(ctx context.Context, name string) error {
	return s.call(ctx, MethodSetName, nameArgs{Name: name}, nil)
}

func (s *NATSSession) SetColor(ctx context.Context, color string) error {
	return s.call(ctx, MethodSetColor, colorArgs{Color: color}, nil)
}

func (s *NATSSession) Role(ctx context.Context) (Role, error) {
	var role Role
	err := s.call(ctx, MethodRole, nil, &role)
	return role, err
}

func (s *NATSSession) Items(ctx context.Context, ids []string) ([]Item, error) {
	var items []Item
	err := s.call(ctx, MethodItems, idsArgs{IDs: ids}, &items)
	return items, err
}

func (s *NATSSession) ViewportScale(ctx context.Context) (float64, error) {
	var v float64
	err := s.call(ctx, MethodViewportScale, nil, &v)
	return v, err
}

func (s *NATSSession) ViewportWidth(ctx context.Context) (float64, error) {
	var v float64
	err := s.call(ctx, MethodViewportWidth, nil, &v)
	return v, err
}

func (s *NATSSession) ViewportHeight(ctx context.Context) (float64, error) {
	var v float64
	err := s.call(ctx, MethodViewportHeight, nil, &v)
	return v, err
}

func (s *NATSSession) AnimateTo(ctx context.Context, t ViewportTransform) error {
	return s.call(ctx, MethodAnimateTo, t, nil)
}

func (s *NATSSession) Select(ctx context.Context, ids []string) error {
	return s.call(ctx, MethodSelect, idsArgs{IDs: ids}, nil)
}

func (s *NATSSession) Theme(ctx context.Context) (Theme, error) {
	var th Theme
	err := s.call(ctx, MethodTheme, nil, &th)
	return th, err
}

func (s *NATSSession) OnThemeChange(fn func(Theme)) (func(), error) {
	sub, err := s.nc.Subscribe(subject(s.prefix, SubjectThemeChanged), func(msg *nats.Msg) {
		var th Theme
		if err := json.Unmarshal(msg.Data, &th); err != nil {
			logger.Warn("Ignoring malformed theme broadcast", "error", err)
			return
		}
		fn(th)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to theme changes: %w", err)
	}
	if err := s.nc.Flush(); err != nil {
		sub.Unsubscribe()
		return nil, fmt.Errorf("subscribe to theme changes: %w", err)
	}
	return func() { sub.Unsubscribe() }, nil
}
