package tile

import (
	"reflect"
	"testing"
	"time"

	"github.com/qieqieplus/meeting-view/pkg/config"
	"github.com/qieqieplus/meeting-view/pkg/events"
	"github.com/qieqieplus/meeting-view/pkg/loop"
	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
	"github.com/qieqieplus/meeting-view/pkg/netquality"
	"github.com/qieqieplus/meeting-view/pkg/timer"
)

type harness struct {
	bus     *events.Bus
	sdk     *mediasdk.Memory
	sched   *timer.Manual
	emitted []string
	samples []netquality.Sample
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		bus:   events.NewBus(),
		sdk:   mediasdk.NewMemory(nil),
		sched: timer.NewManual(),
	}
	h.bus.Subscribe(events.ParticipantVisible, func(p interface{}) {
		h.emitted = append(h.emitted, "visible:"+p.(events.VisibilityPayload).ParticipantID)
	})
	h.bus.Subscribe(events.ParticipantInvisible, func(p interface{}) {
		h.emitted = append(h.emitted, "invisible:"+p.(events.VisibilityPayload).ParticipantID)
	})
	return h
}

func (h *harness) tile(p mediasdk.Participant, session config.Session) *Tile {
	return New(Config{
		Participant: p,
		Session:     session,
		Bus:         h.bus,
		Stats:       h.sdk,
		Scheduler:   h.sched,
		Dispatcher:  loop.Inline{},
		Async:       func(fn func()) { fn() },
		OnSample: func(_ string, s netquality.Sample) {
			h.samples = append(h.samples, s)
		},
	})
}

func TestTile_MountAndClose(t *testing.T) {
	h := newHarness(t)
	p := mediasdk.Participant{ID: "a", HasVideoStream: true}
	h.sdk.Join(p)
	score := 9.0
	h.sdk.SetScore("a", &score)

	tl := h.tile(p, config.DefaultSession())
	tl.Mount()
	tl.Mount()

	if !tl.Sampling() || h.sched.Active() != 1 {
		t.Errorf("Sampling() = %v with %d timers, want true with 1", tl.Sampling(), h.sched.Active())
	}
	if len(h.samples) != 1 || tl.Sample().Tier() != netquality.TierGood {
		t.Errorf("samples = %d, tier = %v, want 1 good sample on mount", len(h.samples), tl.Sample().Tier())
	}

	tl.Close()
	tl.Close()
	if h.sched.Active() != 0 {
		t.Errorf("Active() after Close = %d, want 0", h.sched.Active())
	}
	if want := []string{"visible:a", "invisible:a"}; !reflect.DeepEqual(h.emitted, want) {
		t.Errorf("emitted = %v, want %v", h.emitted, want)
	}
}

func TestTile_CloseBeforeMount(t *testing.T) {
	h := newHarness(t)
	tl := h.tile(mediasdk.Participant{ID: "a"}, config.DefaultSession())
	tl.Close()
	if len(h.emitted) != 0 {
		t.Errorf("emitted = %v, want nothing for a tile never mounted", h.emitted)
	}
}

func TestTile_NetworkBarDisabled(t *testing.T) {
	h := newHarness(t)
	session := config.DefaultSession()
	session.NetworkBarEnabled = false

	p := mediasdk.Participant{ID: "a", HasAudioStream: true}
	h.sdk.Join(p)
	tl := h.tile(p, session)
	tl.Mount()

	if tl.Sampling() || h.sched.Armed() != 0 {
		t.Errorf("Sampling() = %v, armed = %d, want no sampling", tl.Sampling(), h.sched.Armed())
	}
	if tl.Overlay(false).ShowNetworkBar {
		t.Error("Overlay().ShowNetworkBar = true, want false")
	}
}

func TestTile_StreamChangesRestartSampling(t *testing.T) {
	h := newHarness(t)
	p := mediasdk.Participant{ID: "a"}
	h.sdk.Join(p)

	tl := h.tile(p, config.DefaultSession())
	tl.Mount()
	if tl.Sampling() {
		t.Fatal("Sampling() without streams = true, want false")
	}

	h.sdk.SetStream("a", mediasdk.StreamAudio, true)
	score := 4.0
	h.sdk.SetScore("a", &score)
	p.HasAudioStream = true
	tl.Update(p)
	if !tl.Sampling() || len(h.samples) != 1 {
		t.Fatalf("after audio on: Sampling() = %v, samples = %d", tl.Sampling(), len(h.samples))
	}

	h.sched.Advance(netquality.DefaultInterval)
	if len(h.samples) != 2 {
		t.Errorf("samples after one interval = %d, want 2", len(h.samples))
	}

	// Same streams again: no restart, no extra sample.
	p.MicOn = true
	tl.Update(p)
	if len(h.samples) != 2 || h.sched.Armed() != 1 {
		t.Errorf("samples = %d, armed = %d after non-stream update, want 2 and 1", len(h.samples), h.sched.Armed())
	}

	p.HasAudioStream = false
	tl.Update(p)
	h.sched.Advance(time.Minute)
	if tl.Sampling() || len(h.samples) != 2 {
		t.Errorf("after streams off: Sampling() = %v, samples = %d", tl.Sampling(), len(h.samples))
	}
	if got := tl.Overlay(false).NetworkTier; got != netquality.TierPoor {
		t.Errorf("Overlay().NetworkTier = %v, want last score kept as %v", got, netquality.TierPoor)
	}
}

func TestTile_QualityToggle(t *testing.T) {
	h := newHarness(t)
	session := config.DefaultSession()
	if !h.tile(mediasdk.Participant{ID: "a"}, session).QualityToggleEnabled() {
		t.Error("QualityToggleEnabled() = false, want true")
	}
	session.IsRecorder = true
	if h.tile(mediasdk.Participant{ID: "a"}, session).QualityToggleEnabled() {
		t.Error("QualityToggleEnabled() in recorder mode = true, want false")
	}
}

func TestShowOverlay(t *testing.T) {
	tests := []struct {
		always, mouse, speaker, info bool
		expected                     bool
	}{
		{false, false, false, false, false},
		{true, false, false, false, true},
		{false, true, false, false, true},
		{false, false, true, false, true},
		{false, false, false, true, true},
	}
	for _, test := range tests {
		if got := ShowOverlay(test.always, test.mouse, test.speaker, test.info); got != test.expected {
			t.Errorf("ShowOverlay(%v, %v, %v, %v) = %v, want %v",
				test.always, test.mouse, test.speaker, test.info, got, test.expected)
		}
	}
}

func TestShowPin(t *testing.T) {
	tests := []struct {
		always, pinned, mouse bool
		expected              bool
	}{
		{false, false, false, false},
		{false, false, true, true},
		{false, true, false, true},
		{true, false, true, false},
		{true, true, false, true},
	}
	for _, test := range tests {
		if got := ShowPin(test.always, test.pinned, test.mouse); got != test.expected {
			t.Errorf("ShowPin(%v, %v, %v) = %v, want %v", test.always, test.pinned, test.mouse, got, test.expected)
		}
	}
}

func TestDisplayLabel(t *testing.T) {
	long := "Bartholomew Montgomery-Smythe"
	tests := []struct {
		p        mediasdk.Participant
		expected string
	}{
		{mediasdk.Participant{DisplayName: "Alice"}, "Alice"},
		{mediasdk.Participant{DisplayName: "Alice", IsLocal: true}, "You"},
		{mediasdk.Participant{DisplayName: "Alice", IsLocal: true, IsPresenting: true}, "You are presenting"},
		{mediasdk.Participant{DisplayName: long, IsPresenting: true}, "Bartholomew Mon... is presenting"},
		{mediasdk.Participant{DisplayName: long}, "Bartholomew Montgomery-Smy..."},
	}
	for _, test := range tests {
		if got := DisplayLabel(test.p); got != test.expected {
			t.Errorf("DisplayLabel(%+v) = %q, want %q", test.p, got, test.expected)
		}
	}
}

func TestShowMicBadge(t *testing.T) {
	tests := []struct {
		p        mediasdk.Participant
		expected bool
	}{
		{mediasdk.Participant{MicOn: false}, true},
		{mediasdk.Participant{MicOn: true}, false},
		{mediasdk.Participant{MicOn: true, WebcamOn: true, IsActiveSpeaker: true}, true},
		{mediasdk.Participant{MicOn: true, IsActiveSpeaker: true}, false},
	}
	for _, test := range tests {
		if got := ShowMicBadge(test.p); got != test.expected {
			t.Errorf("ShowMicBadge(%+v) = %v, want %v", test.p, got, test.expected)
		}
	}
}
