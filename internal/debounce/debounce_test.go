package debounce

import (
	"sync"
	"testing"
	"time"
)

func TestScheduleDeliversLastArgsOnce(t *testing.T) {
	var mu sync.Mutex
	var calls [][]any
	d := New(30*time.Millisecond, func(args ...any) {
		mu.Lock()
		calls = append(calls, args)
		mu.Unlock()
	})

	d.Schedule(1)
	d.Schedule(2)
	d.Schedule(3)

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one invocation, got %d", len(calls))
	}
	if calls[0][0] != 3 {
		t.Fatalf("expected last args, got %v", calls[0])
	}
}

func TestScheduleAfterWindowFiresAgain(t *testing.T) {
	var mu sync.Mutex
	count := 0
	d := New(20*time.Millisecond, func(args ...any) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	d.Schedule()
	time.Sleep(60 * time.Millisecond)
	d.Schedule()
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 2 {
		t.Fatalf("expected two invocations, got %d", count)
	}
}

func TestStopCancelsPending(t *testing.T) {
	var mu sync.Mutex
	count := 0
	d := New(20*time.Millisecond, func(args ...any) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	d.Schedule()
	d.Stop()
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Fatalf("stopped debouncer fired %d times", count)
	}
}

func TestFlushFiresImmediatelyAndOnlyOnce(t *testing.T) {
	var mu sync.Mutex
	var got []any
	count := 0
	d := New(time.Hour, func(args ...any) {
		mu.Lock()
		got = args
		count++
		mu.Unlock()
	})

	d.Schedule("now")
	d.Flush()
	d.Flush() // nothing pending, must not fire again

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("expected one invocation, got %d", count)
	}
	if len(got) != 1 || got[0] != "now" {
		t.Fatalf("unexpected args %v", got)
	}
}

func TestValueSettlesToMostRecent(t *testing.T) {
	var mu sync.Mutex
	var settled []string
	v := NewValue(30*time.Millisecond, func(s string) {
		mu.Lock()
		settled = append(settled, s)
		mu.Unlock()
	})

	v.Set("a")
	v.Set("b")
	v.Set("c")

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(settled) != 1 || settled[0] != "c" {
		t.Fatalf("settled = %v, want [c]", settled)
	}
}

func TestValueStop(t *testing.T) {
	var mu sync.Mutex
	delivered := 0
	v := NewValue(20*time.Millisecond, func(int) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	v.Set(1)
	v.Stop()
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if delivered != 0 {
		t.Fatalf("stopped value debouncer delivered %d times", delivered)
	}
}
