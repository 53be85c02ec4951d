package unwind

import "sync"

// senderSlot is a single-writer single-reader handoff: the signal
// handler sends at most one []CallFrame value into it, and backtrace's
// caller receives it with a timeout. Guarded by a mutex exclusive for
// the duration of one backtrace so only one is ever in flight
// process-wide.
type senderSlot struct {
	mu sync.Mutex
	ch chan []CallFrame
}

func (s *senderSlot) install() chan []CallFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan []CallFrame, 1)
	s.ch = ch
	return ch
}

func (s *senderSlot) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ch = nil
}

// send delivers frames to the installed channel, if any, without
// blocking. Returns true if no channel is installed (no receiver to
// report to) or the value was delivered, and false if the send would
// block (the channel already holds a value).
func (s *senderSlot) send(frames []CallFrame) bool {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()
	if ch == nil {
		return true // no active receiver; not an error
	}
	select {
	case ch <- frames:
		return true
	default:
		return false
	}
}

var (
	nativeSlot senderSlot
	pySlot     senderSlot
)

// backtraceMu ensures only one backtrace() is in flight at a time,
// process-wide; others fail fast rather than queue.
var backtraceMu sync.Mutex
