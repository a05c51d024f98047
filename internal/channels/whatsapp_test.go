package channels

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/kamir/trubot/internal/bus"
	"github.com/kamir/trubot/internal/config"
	"github.com/kamir/trubot/internal/timeline"
)

func newTestTimeline(t *testing.T) *timeline.Service {
	t.Helper()
	svc, err := timeline.NewService(filepath.Join(t.TempDir(), "timeline.db"))
	if err != nil {
		t.Fatalf("failed to create timeline service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestWhatsAppSilentModeSuppressesOutbound(t *testing.T) {
	timeSvc := newTestTimeline(t)
	if err := timeSvc.SetSetting("silent_mode", "true"); err != nil {
		t.Fatalf("failed to enable silent mode: %v", err)
	}
	msgBus := bus.NewMessageBus()

	cfg := config.WhatsAppConfig{Enabled: true}
	wa := NewWhatsAppChannel(cfg, t.TempDir(), msgBus, timeSvc)

	var called int32
	wa.sendFn = func(ctx context.Context, msg *bus.OutboundMessage) error {
		atomic.AddInt32(&called, 1)
		return nil
	}

	wa.handleOutbound(&bus.OutboundMessage{
		Channel: wa.Name(),
		ChatID:  "12345@s.whatsapp.net",
		Content: "test",
	})

	if atomic.LoadInt32(&called) != 0 {
		t.Fatalf("expected send to be suppressed in silent mode")
	}
}

func TestWhatsAppSilentModeDisabledAllowsOutbound(t *testing.T) {
	timeSvc := newTestTimeline(t)

	msgBus := bus.NewMessageBus()
	cfg := config.WhatsAppConfig{Enabled: true}
	wa := NewWhatsAppChannel(cfg, t.TempDir(), msgBus, timeSvc)

	var called int32
	wa.sendFn = func(ctx context.Context, msg *bus.OutboundMessage) error {
		atomic.AddInt32(&called, 1)
		return nil
	}

	wa.handleOutbound(&bus.OutboundMessage{
		Channel: wa.Name(),
		ChatID:  "12345@s.whatsapp.net",
		Content: "test",
	})

	if atomic.LoadInt32(&called) != 1 {
		t.Fatalf("expected send to occur when silent mode is disabled")
	}
}

func TestWhatsAppAllowFrom(t *testing.T) {
	msgBus := bus.NewMessageBus()
	cfg := config.WhatsAppConfig{Enabled: true, AllowFrom: []string{"111", "222"}}
	wa := NewWhatsAppChannel(cfg, t.TempDir(), msgBus, nil)

	if !wa.isAllowed("111") || !wa.isAllowed("222") {
		t.Fatalf("listed senders should be allowed")
	}
	if wa.isAllowed("333") {
		t.Fatalf("unlisted sender should be rejected")
	}

	open := NewWhatsAppChannel(config.WhatsAppConfig{Enabled: true}, t.TempDir(), msgBus, nil)
	if !open.isAllowed("anyone") {
		t.Fatalf("empty allow list should allow everyone")
	}
}
