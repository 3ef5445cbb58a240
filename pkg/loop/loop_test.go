package loop

import (
	"reflect"
	"sync"
	"testing"
)

func TestLoop_RunsInOrder(t *testing.T) {
	l := New()
	if err := l.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer l.Stop()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	if err := l.Do(func() {}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if want := []int{0, 1, 2, 3, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestLoop_PostFromLoop(t *testing.T) {
	l := New()
	l.Start()
	defer l.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	l.Post(func() {
		l.Post(wg.Done)
	})
	wg.Wait()
}

func TestLoop_RecoversPanics(t *testing.T) {
	l := New()
	l.Start()
	defer l.Stop()

	l.Post(func() { panic("boom") })
	ran := false
	if err := l.Do(func() { ran = true }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !ran {
		t.Error("function after panic did not run")
	}
}

func TestLoop_Lifecycle(t *testing.T) {
	l := New()
	if err := l.Do(func() {}); err != ErrNotStarted {
		t.Errorf("Do() before start error = %v, want %v", err, ErrNotStarted)
	}
	if err := l.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := l.Start(); err != ErrAlreadyStarted {
		t.Errorf("second Start() error = %v, want %v", err, ErrAlreadyStarted)
	}
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := l.Stop(); err != ErrStopped {
		t.Errorf("second Stop() error = %v, want %v", err, ErrStopped)
	}
	if err := l.Do(func() {}); err != ErrStopped {
		t.Errorf("Do() after stop error = %v, want %v", err, ErrStopped)
	}
	l.Post(func() { t.Error("ran after stop") })
}

func TestInline(t *testing.T) {
	ran := false
	Inline{}.Post(func() { ran = true })
	if !ran {
		t.Error("Inline.Post did not run synchronously")
	}
}
