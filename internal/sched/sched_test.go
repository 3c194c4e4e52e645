package sched

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestLoopRunsPostedTasksInOrder(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var got []int
	for i := 1; i <= 3; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Wait(func() {})

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("tasks ran as %v, want [1 2 3]", got)
	}
}

func TestLoopCloseDrainsQueue(t *testing.T) {
	l := NewLoop()
	var ran atomic.Bool
	l.Post(func() { ran.Store(true) })
	l.Close()
	if !ran.Load() {
		t.Fatalf("queued task dropped on close")
	}
}

func TestLoopPostAfterCloseIsRefused(t *testing.T) {
	l := NewLoop()

	var ran atomic.Bool
	if !l.Post(func() {}) {
		t.Fatalf("post refused while the loop was running")
	}
	l.Close()
	if l.Post(func() { ran.Store(true) }) {
		t.Fatalf("post accepted after close")
	}
	time.Sleep(20 * time.Millisecond)
	if ran.Load() {
		t.Fatalf("refused task ran anyway")
	}
}

func TestLoopAfterStop(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var fired atomic.Int32
	tm := l.After(10*time.Millisecond, func() { fired.Add(1) })
	tm.Stop()
	time.Sleep(50 * time.Millisecond)
	l.Wait(func() {})
	if fired.Load() != 0 {
		t.Fatalf("stopped timer fired")
	}
}

func TestLoopEvery(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var fired atomic.Int32
	tm := l.Every(5*time.Millisecond, func() { fired.Add(1) })
	time.Sleep(60 * time.Millisecond)
	tm.Stop()
	l.Wait(func() {})
	n := fired.Load()
	if n < 2 {
		t.Fatalf("recurring timer fired %d times, want >= 2", n)
	}
	time.Sleep(30 * time.Millisecond)
	l.Wait(func() {})
	if fired.Load() > n+1 {
		t.Fatalf("timer kept firing after Stop: %d -> %d", n, fired.Load())
	}
}

func TestManualAdvanceFiresInDeadlineOrder(t *testing.T) {
	m := NewManual()
	var got []string
	m.After(30*time.Millisecond, func() { got = append(got, "late") })
	m.After(10*time.Millisecond, func() { got = append(got, "early") })

	m.Advance(50 * time.Millisecond)
	if len(got) != 2 || got[0] != "early" || got[1] != "late" {
		t.Fatalf("fired as %v", got)
	}
}

func TestManualEveryAndStop(t *testing.T) {
	m := NewManual()
	var n int
	tm := m.Every(10*time.Millisecond, func() { n++ })

	m.Advance(35 * time.Millisecond)
	if n != 3 {
		t.Fatalf("recurring fired %d times in 35ms at 10ms period, want 3", n)
	}
	tm.Stop()
	m.Advance(100 * time.Millisecond)
	if n != 3 {
		t.Fatalf("fired after Stop: %d", n)
	}
}

func TestManualStopInsideCallback(t *testing.T) {
	m := NewManual()
	var n int
	var tm Timer
	tm = m.Every(10*time.Millisecond, func() {
		n++
		tm.Stop()
	})
	m.Advance(100 * time.Millisecond)
	if n != 1 {
		t.Fatalf("timer fired %d times after stopping itself, want 1", n)
	}
}

func TestManualTimerScheduledByCallback(t *testing.T) {
	m := NewManual()
	var got []string
	m.After(10*time.Millisecond, func() {
		got = append(got, "first")
		m.After(10*time.Millisecond, func() { got = append(got, "second") })
	})
	m.Advance(25 * time.Millisecond)
	if len(got) != 2 || got[1] != "second" {
		t.Fatalf("fired as %v", got)
	}
}
