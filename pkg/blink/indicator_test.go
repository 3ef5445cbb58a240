package blink

import (
	"reflect"
	"testing"
	"time"

	"github.com/qieqieplus/meeting-view/pkg/timer"
)

func TestIndicator_BlinksOnCadence(t *testing.T) {
	sched := timer.NewManual()
	var seen []float64
	ind := NewIndicator(sched, 0, func(o float64) { seen = append(seen, o) })

	ind.SetProcessing(true)
	sched.Advance(599 * time.Millisecond)
	if len(seen) != 0 {
		t.Fatalf("toggled before 600ms: %v", seen)
	}
	sched.Advance(3*DefaultInterval - 599*time.Millisecond)

	if want := []float64{DimOpacity, SteadyOpacity, DimOpacity}; !reflect.DeepEqual(seen, want) {
		t.Errorf("opacity sequence = %v, want %v", seen, want)
	}
}

func TestIndicator_StopResetsOpacity(t *testing.T) {
	sched := timer.NewManual()
	ind := NewIndicator(sched, DefaultInterval, nil)

	ind.Start()
	sched.Advance(DefaultInterval)
	if got := ind.Opacity(); got != DimOpacity {
		t.Fatalf("Opacity() mid-blink = %v, want %v", got, DimOpacity)
	}

	ind.SetProcessing(false)
	if got := ind.Opacity(); got != SteadyOpacity {
		t.Errorf("Opacity() after stop = %v, want %v", got, SteadyOpacity)
	}
	if ind.Blinking() {
		t.Error("Blinking() = true after stop")
	}
	if sched.Active() != 0 {
		t.Errorf("Active() = %d, want 0", sched.Active())
	}
}

func TestIndicator_SingleTimer(t *testing.T) {
	sched := timer.NewManual()
	ind := NewIndicator(sched, DefaultInterval, nil)

	ind.Start()
	ind.Start()
	ind.SetProcessing(true)
	if sched.Armed() != 1 {
		t.Errorf("Armed() = %d, want 1", sched.Armed())
	}
}

func TestIndicator_CloseStopsEverything(t *testing.T) {
	sched := timer.NewManual()
	calls := 0
	ind := NewIndicator(sched, DefaultInterval, func(float64) { calls++ })

	ind.Start()
	sched.Advance(DefaultInterval)
	ind.Close()
	ind.Close()
	ind.Start()
	sched.Advance(10 * DefaultInterval)

	if calls != 1 {
		t.Errorf("onChange calls = %d, want 1", calls)
	}
	if sched.Active() != 0 {
		t.Errorf("Active() after Close = %d, want 0", sched.Active())
	}
	if got := ind.Opacity(); got != SteadyOpacity {
		t.Errorf("Opacity() after Close = %v, want %v", got, SteadyOpacity)
	}
}
