package mediasdk

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type recordingListener struct {
	events []string
}

func (r *recordingListener) OnParticipantJoined(p Participant) {
	r.events = append(r.events, "joined:"+p.ID)
}

func (r *recordingListener) OnParticipantLeft(id string) {
	r.events = append(r.events, "left:"+id)
}

func (r *recordingListener) OnParticipantUpdated(p Participant) {
	r.events = append(r.events, "updated:"+p.ID)
}

func (r *recordingListener) OnStreamEnabled(id string, kind StreamKind) {
	r.events = append(r.events, "on:"+id+":"+string(kind))
}

func (r *recordingListener) OnStreamDisabled(id string, kind StreamKind) {
	r.events = append(r.events, "off:"+id+":"+string(kind))
}

type fixedSource struct {
	score float64
	kinds []StreamKind
}

func (f *fixedSource) Stats(_ context.Context, _ string, kind StreamKind) (*Stats, error) {
	f.kinds = append(f.kinds, kind)
	score := f.score
	return &Stats{Score: &score}, nil
}

func TestMemory_ListenerEvents(t *testing.T) {
	sdk := NewMemory(nil)
	l := &recordingListener{}
	sdk.SetListener(l)

	sdk.Join(Participant{ID: "a"})
	if err := sdk.Join(Participant{ID: "a"}); !errors.Is(err, ErrParticipantExists) {
		t.Errorf("second Join() error = %v, want %v", err, ErrParticipantExists)
	}
	sdk.SetStream("a", StreamVideo, true)
	sdk.SetStream("a", StreamVideo, true)
	sdk.Pin("a", PinCam)
	sdk.SetStream("a", StreamVideo, false)
	sdk.Leave("a")

	want := []string{"joined:a", "on:a:video", "updated:a", "off:a:video", "left:a"}
	if !reflect.DeepEqual(l.events, want) {
		t.Errorf("events = %v, want %v", l.events, want)
	}
}

func TestMemory_PinModes(t *testing.T) {
	sdk := NewMemory(nil)
	sdk.Join(Participant{ID: "a"})

	sdk.Pin("a", PinShareAndCam)
	p, _ := sdk.Participant("a")
	if !p.PinState.Cam || !p.PinState.Share {
		t.Errorf("PinState = %+v, want both pinned", p.PinState)
	}

	sdk.Unpin("a", PinShare)
	p, _ = sdk.Participant("a")
	if !p.PinState.Cam || p.PinState.Share {
		t.Errorf("PinState = %+v, want cam only", p.PinState)
	}

	if err := sdk.Pin("missing", PinCam); !errors.Is(err, ErrParticipantNotFound) {
		t.Errorf("Pin(missing) error = %v, want %v", err, ErrParticipantNotFound)
	}
}

func TestMemory_Stats(t *testing.T) {
	ctx := context.Background()
	sdk := NewMemory(nil)
	sdk.Join(Participant{ID: "a"})

	if _, err := sdk.VideoStats(ctx, "a"); !errors.Is(err, ErrNoStream) {
		t.Errorf("VideoStats() without stream error = %v, want %v", err, ErrNoStream)
	}

	sdk.SetStream("a", StreamVideo, true)
	stats, err := sdk.VideoStats(ctx, "a")
	if err != nil || stats.Score != nil {
		t.Errorf("VideoStats() = %+v, %v, want unknown score", stats, err)
	}

	score := 7.5
	sdk.SetScore("a", &score)
	score = 1
	stats, _ = sdk.VideoStats(ctx, "a")
	if stats.Score == nil || *stats.Score != 7.5 {
		t.Errorf("VideoStats().Score = %v, want 7.5", stats.Score)
	}

	boom := errors.New("boom")
	sdk.SetStatsError("a", boom)
	if _, err := sdk.VideoStats(ctx, "a"); !errors.Is(err, boom) {
		t.Errorf("VideoStats() error = %v, want %v", err, boom)
	}
}

func TestMemory_StatsSource(t *testing.T) {
	source := &fixedSource{score: 3}
	sdk := NewMemory(source)
	sdk.Join(Participant{ID: "a", HasAudioStream: true})

	stats, err := sdk.AudioStats(context.Background(), "a")
	if err != nil {
		t.Fatalf("AudioStats() error = %v", err)
	}
	if *stats.Score != 3 {
		t.Errorf("AudioStats().Score = %v, want 3", *stats.Score)
	}
	if !reflect.DeepEqual(source.kinds, []StreamKind{StreamAudio}) {
		t.Errorf("source kinds = %v, want [audio]", source.kinds)
	}

	static := 9.0
	sdk.SetScore("a", &static)
	stats, err = sdk.AudioStats(context.Background(), "a")
	if err != nil {
		t.Fatalf("AudioStats() error = %v", err)
	}
	if *stats.Score != 9 {
		t.Errorf("AudioStats().Score = %v, want static 9", *stats.Score)
	}
	if len(source.kinds) != 1 {
		t.Errorf("source queried %d times, want 1", len(source.kinds))
	}
}

func TestMemory_UpdateKeepsStreams(t *testing.T) {
	sdk := NewMemory(nil)
	sdk.Join(Participant{ID: "a", HasVideoStream: true})

	sdk.Update(Participant{ID: "a", DisplayName: "Alice", MicOn: true})
	p, _ := sdk.Participant("a")
	if !p.HasVideoStream || p.DisplayName != "Alice" || !p.MicOn {
		t.Errorf("Participant() = %+v, want name and mic updated with video kept", p)
	}
}
