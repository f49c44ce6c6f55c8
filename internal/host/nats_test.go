package host_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/lostbyte/mainhero/internal/host"
	"github.com/lostbyte/mainhero/internal/logger"
	"github.com/lostbyte/mainhero/internal/mocks"
	"github.com/lostbyte/mainhero/internal/models"
	"github.com/lostbyte/mainhero/internal/pubsub"
)

const prefix = "mainhero.test"

func init() {
	logger.Init("error")
}

// bridged starts an embedded NATS server, serves mock over it and returns a
// NATSSession talking to the mock
func bridged(t *testing.T, mock *mocks.HostSession) (*host.NATSSession, *nats.Conn) {
	t.Helper()
	ns, err := pubsub.StartEmbeddedNATS(pubsub.DefaultEmbeddedNATSOptions())
	if err != nil {
		t.Fatalf("Failed to start embedded NATS: %v", err)
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	nc, err := pubsub.Connect(ns.ClientURL(), "host-test")
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	t.Cleanup(nc.Close)

	stop, err := host.Serve(nc, prefix, mock)
	if err != nil {
		t.Fatalf("Serve() failed: %v", err)
	}
	t.Cleanup(stop)

	return host.NewNATSSession(nc, prefix, 2*time.Second), nc
}

func TestNATSSessionRoundTrip(t *testing.T) {
	mock := mocks.NewHostSession()
	mock.SetRole(host.RoleGM)
	mock.SetViewport(1.5, 1920, 1080)
	mock.PlaceItem("token-1", models.Vector2{X: 10, Y: -20})
	s, _ := bridged(t, mock)
	ctx := context.Background()

	id, err := s.PlayerID(ctx)
	if err != nil || id != "mock-player" {
		t.Errorf("PlayerID() = %q, %v", id, err)
	}

	role, err := s.Role(ctx)
	if err != nil || role != host.RoleGM {
		t.Errorf("Role() = %q, %v", role, err)
	}

	if err := s.SetName(ctx, "Aria"); err != nil {
		t.Fatalf("SetName() failed: %v", err)
	}
	if err := s.SetColor(ctx, "#ff0000"); err != nil {
		t.Fatalf("SetColor() failed: %v", err)
	}
	if name, color := mock.Identity(); name != "Aria" || color != "#ff0000" {
		t.Errorf("identity not forwarded: %q %q", name, color)
	}

	items, err := s.Items(ctx, []string{"token-1", "missing"})
	if err != nil {
		t.Fatalf("Items() failed: %v", err)
	}
	if len(items) != 1 || items[0].Position != (models.Vector2{X: 10, Y: -20}) {
		t.Errorf("unexpected items %+v", items)
	}

	scale, _ := s.ViewportScale(ctx)
	width, _ := s.ViewportWidth(ctx)
	height, _ := s.ViewportHeight(ctx)
	if scale != 1.5 || width != 1920 || height != 1080 {
		t.Errorf("viewport = %v %vx%v", scale, width, height)
	}

	target := host.ViewportTransform{Scale: 2, Position: models.Vector2{X: 1, Y: 2}}
	if err := s.AnimateTo(ctx, target); err != nil {
		t.Fatalf("AnimateTo() failed: %v", err)
	}
	if anims := mock.Animations(); len(anims) != 1 || anims[0] != target {
		t.Errorf("animation not forwarded: %+v", anims)
	}

	if err := s.Select(ctx, []string{"token-1"}); err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if sel := mock.Selections(); len(sel) != 1 || sel[0][0] != "token-1" {
		t.Errorf("selection not forwarded: %v", sel)
	}

	th, err := s.Theme(ctx)
	if err != nil {
		t.Fatalf("Theme() failed: %v", err)
	}
	if th.Mode != "DARK" || th.Primary.Main == "" {
		t.Errorf("unexpected theme %+v", th)
	}
}

func TestNATSSessionRemoteError(t *testing.T) {
	mock := mocks.NewHostSession()
	mock.RoleErr = errors.New("not ready")
	s, _ := bridged(t, mock)

	_, err := s.Role(context.Background())
	var remote *host.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Method != host.MethodRole || remote.Message != "not ready" {
		t.Errorf("unexpected remote error %+v", remote)
	}
}

func TestNATSSessionTimesOutWithoutHost(t *testing.T) {
	ns, err := pubsub.StartEmbeddedNATS(pubsub.DefaultEmbeddedNATSOptions())
	if err != nil {
		t.Fatalf("Failed to start embedded NATS: %v", err)
	}
	defer ns.Shutdown()
	nc, err := pubsub.Connect(ns.ClientURL(), "host-test")
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	defer nc.Close()

	s := host.NewNATSSession(nc, prefix, 100*time.Millisecond)
	if _, err := s.PlayerID(context.Background()); err == nil {
		t.Fatal("expected error with nobody answering")
	}
}

func TestThemeBroadcast(t *testing.T) {
	s, nc := bridged(t, mocks.NewHostSession())

	got := make(chan host.Theme, 1)
	cancel, err := s.OnThemeChange(func(th host.Theme) { got <- th })
	if err != nil {
		t.Fatalf("OnThemeChange() failed: %v", err)
	}
	defer cancel()

	th := host.Theme{Mode: "LIGHT"}
	th.Background.Default = "#ffffff"
	if err := host.PublishTheme(nc, prefix, th); err != nil {
		t.Fatalf("PublishTheme() failed: %v", err)
	}

	select {
	case received := <-got:
		if received.Mode != "LIGHT" || received.Background.Default != "#ffffff" {
			t.Errorf("unexpected theme %+v", received)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for theme broadcast")
	}
}

func TestThemeBroadcastIgnoresGarbage(t *testing.T) {
	s, nc := bridged(t, mocks.NewHostSession())

	got := make(chan host.Theme, 2)
	cancel, err := s.OnThemeChange(func(th host.Theme) { got <- th })
	if err != nil {
		t.Fatalf("OnThemeChange() failed: %v", err)
	}
	defer cancel()

	if err := nc.Publish(prefix+".host."+host.SubjectThemeChanged, []byte("not json")); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if err := host.PublishTheme(nc, prefix, host.Theme{Mode: "DARK"}); err != nil {
		t.Fatalf("PublishTheme() failed: %v", err)
	}

	select {
	case received := <-got:
		if received.Mode != "DARK" {
			t.Errorf("garbage should be skipped, got %+v", received)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for theme broadcast")
	}
}
