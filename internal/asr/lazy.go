package asr

import "sync"

// Lazy constructs the recognizer on first use and caches the instance for
// the rest of the process lifetime. Construction failure is not cached: the
// next Get retries. The lock is held across construction so concurrent first
// requests produce exactly one instance.
type Lazy struct {
	construct func() (*Recognizer, error)

	mu sync.Mutex
	r  *Recognizer
}

// NewLazy wraps a recognizer constructor in a lazy holder.
func NewLazy(construct func() (*Recognizer, error)) *Lazy {
	return &Lazy{construct: construct}
}

// Get returns the recognizer, constructing it on the first call.
func (l *Lazy) Get() (*Recognizer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.r != nil {
		return l.r, nil
	}
	r, err := l.construct()
	if err != nil {
		return nil, err
	}
	l.r = r
	return r, nil
}

// Loaded reports whether the recognizer has been constructed, without
// constructing it.
func (l *Lazy) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r != nil
}

// Completed returns the successful-transcription count, or 0 when the
// recognizer has not been constructed yet.
func (l *Lazy) Completed() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.r == nil {
		return 0
	}
	return l.r.Completed()
}

// Failed returns the failed-transcription count, or 0 when the recognizer
// has not been constructed yet.
func (l *Lazy) Failed() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.r == nil {
		return 0
	}
	return l.r.Failed()
}
