package visibility

import (
	"reflect"
	"testing"

	"github.com/qieqieplus/meeting-view/pkg/events"
)

type recorded struct {
	name string
	id   string
}

func recordBus() (*events.Bus, *[]recorded) {
	bus := events.NewBus()
	var got []recorded
	for _, name := range []string{events.ParticipantVisible, events.ParticipantInvisible} {
		name := name
		bus.Subscribe(name, func(p interface{}) {
			got = append(got, recorded{name: name, id: p.(events.VisibilityPayload).ParticipantID})
		})
	}
	return bus, &got
}

func TestTracker_MountUnmount(t *testing.T) {
	bus, got := recordBus()
	tr := NewTracker("p1", bus)

	tr.Mount()
	tr.Unmount()

	want := []recorded{
		{events.ParticipantVisible, "p1"},
		{events.ParticipantInvisible, "p1"},
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("events = %v, want %v", *got, want)
	}
}

func TestTracker_DeduplicatesAndStopsAfterUnmount(t *testing.T) {
	bus, got := recordBus()
	tr := NewTracker("p1", bus)

	tr.SetVisible(true) // before mount: ignored
	tr.Mount()
	tr.Mount()
	tr.SetVisible(true)
	tr.SetVisible(false)
	tr.SetVisible(false)
	tr.SetVisible(true)
	tr.Unmount()
	tr.Unmount()
	tr.SetVisible(true)
	tr.Mount()

	want := []recorded{
		{events.ParticipantVisible, "p1"},
		{events.ParticipantInvisible, "p1"},
		{events.ParticipantVisible, "p1"},
		{events.ParticipantInvisible, "p1"},
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("events = %v, want %v", *got, want)
	}
}

func TestTracker_UnmountWhileInvisibleStillEmits(t *testing.T) {
	bus, got := recordBus()
	tr := NewTracker("p1", bus)
	tr.Mount()
	tr.SetVisible(false)
	tr.Unmount()

	if n := len(*got); n != 3 {
		t.Fatalf("len(events) = %d, want 3", n)
	}
	if last := (*got)[2]; last.name != events.ParticipantInvisible {
		t.Errorf("last event = %v, want %s", last, events.ParticipantInvisible)
	}
	if tr.Visible() {
		t.Error("Visible() = true after unmount")
	}
}

func TestSet_TracksTrackers(t *testing.T) {
	bus := events.NewBus()
	set := NewSet(bus)
	defer set.Close()

	var changes []string
	set.AddObserver(ObserverFunc(func(id string, visible bool) {
		if visible {
			changes = append(changes, "+"+id)
		} else {
			changes = append(changes, "-"+id)
		}
	}))

	a := NewTracker("a", bus)
	b := NewTracker("b", bus)
	a.Mount()
	b.Mount()
	a.SetVisible(false)

	if got := set.IDs(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("IDs() = %v, want [b]", got)
	}

	b.Unmount()
	if set.Len() != 0 {
		t.Errorf("Len() = %d, want 0", set.Len())
	}
	if set.Contains("b") {
		t.Error("Contains(b) = true after unmount")
	}

	// Duplicate invisible from a raw publish must not notify twice
	bus.Publish(events.ParticipantInvisible, events.VisibilityPayload{ParticipantID: "b"})

	if want := []string{"+a", "+b", "-a", "-b"}; !reflect.DeepEqual(changes, want) {
		t.Errorf("changes = %v, want %v", changes, want)
	}
}

func TestSet_IgnoresForeignPayload(t *testing.T) {
	bus := events.NewBus()
	set := NewSet(bus)
	bus.Publish(events.ParticipantVisible, "not-a-payload")
	if set.Len() != 0 {
		t.Errorf("Len() = %d, want 0", set.Len())
	}

	set.Close()
	NewTracker("a", bus).Mount()
	if set.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", set.Len())
	}
}
