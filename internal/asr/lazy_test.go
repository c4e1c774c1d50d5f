package asr

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func TestLazy_ConstructsOnce(t *testing.T) {
	var constructs atomic.Int32
	lazy := NewLazy(func() (*Recognizer, error) {
		constructs.Add(1)
		return NewFromModel(&fakeModel{result: &ModelResult{}}, DeviceCPU, "small", zerolog.Nop()), nil
	})

	if lazy.Loaded() {
		t.Fatal("Loaded() = true before first Get")
	}

	var wg sync.WaitGroup
	recs := make([]*Recognizer, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := lazy.Get()
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			recs[i] = r
		}(i)
	}
	wg.Wait()

	if got := constructs.Load(); got != 1 {
		t.Errorf("constructor ran %d times, want 1", got)
	}
	for i := 1; i < 10; i++ {
		if recs[i] != recs[0] {
			t.Fatal("concurrent Gets returned different instances")
		}
	}
	if !lazy.Loaded() {
		t.Error("Loaded() = false after successful Get")
	}
}

func TestLazy_RetriesAfterFailure(t *testing.T) {
	var constructs int
	lazy := NewLazy(func() (*Recognizer, error) {
		constructs++
		if constructs == 1 {
			return nil, errors.New("model load failed")
		}
		return NewFromModel(&fakeModel{result: &ModelResult{}}, DeviceCPU, "small", zerolog.Nop()), nil
	})

	if _, err := lazy.Get(); err == nil {
		t.Fatal("expected first Get to fail")
	}
	if lazy.Loaded() {
		t.Error("failed construction must not mark the holder loaded")
	}

	r, err := lazy.Get()
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if r == nil {
		t.Fatal("second Get returned nil recognizer")
	}
	if constructs != 2 {
		t.Errorf("constructor ran %d times, want 2", constructs)
	}
}

func TestLazy_CountersZeroWhenUnloaded(t *testing.T) {
	lazy := NewLazy(func() (*Recognizer, error) {
		return nil, errors.New("never succeeds")
	})
	if lazy.Completed() != 0 || lazy.Failed() != 0 {
		t.Error("unloaded holder must report zero counters")
	}
}
