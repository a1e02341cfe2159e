package log

import "sync"

const defaultTapBuffer = 64

// Broadcaster is an [io.Writer] that copies every write to all attached
// [Tap] channels, so a running service can stream its log output to live
// observers while still writing to its primary sink via io.MultiWriter.
//
// Delivery never blocks the writer: each tap has a bounded channel and the
// oldest entry is dropped when it is full. Safe for concurrent use.
//
// Create instances with [NewBroadcaster].
type Broadcaster struct {
	mu      sync.Mutex
	taps    map[*Tap]struct{}
	bufSize int
	closed  bool
}

// BroadcasterOption configures a [Broadcaster].
type BroadcasterOption func(*Broadcaster)

// WithTapBuffer sets the channel buffer size for new taps. Values below 1
// are clamped to 1.
func WithTapBuffer(n int) BroadcasterOption {
	return func(b *Broadcaster) {
		if n < 1 {
			n = 1
		}

		b.bufSize = n
	}
}

// NewBroadcaster creates a [Broadcaster]. The default tap buffer holds 64
// entries.
func NewBroadcaster(opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		taps:    make(map[*Tap]struct{}),
		bufSize: defaultTapBuffer,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Write copies p once and delivers the copy to every attached tap, dropping
// each tap's oldest entry when its channel is full. Write always returns
// len(p), nil.
func (b *Broadcaster) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || len(b.taps) == 0 {
		return len(p), nil
	}

	entry := make([]byte, len(p))
	copy(entry, p)

	for t := range b.taps {
		select {
		case t.ch <- entry:
		default:
			<-t.ch
			t.ch <- entry
		}
	}

	return len(p), nil
}

// Attach registers a new [Tap]. On an already-closed Broadcaster the
// returned tap's channel is closed immediately.
func (b *Broadcaster) Attach() *Tap {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := &Tap{
		ch:          make(chan []byte, b.bufSize),
		broadcaster: b,
	}

	if b.closed {
		close(t.ch)

		return t
	}

	b.taps[t] = struct{}{}

	return t
}

// Close detaches every tap, closing their channels. Further writes are
// discarded. Idempotent.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for t := range b.taps {
		close(t.ch)
		delete(b.taps, t)
	}

	return nil
}

// Tap receives log entries from a [Broadcaster].
type Tap struct {
	ch          chan []byte
	broadcaster *Broadcaster
}

// C returns the channel delivering log entries. It is closed when the tap
// is detached or the broadcaster closes. Receivers must not modify the
// delivered slices.
func (t *Tap) C() <-chan []byte {
	return t.ch
}

// Detach unregisters the tap and closes its channel. Idempotent.
func (t *Tap) Detach() {
	b := t.broadcaster

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.taps[t]; !ok {
		return
	}

	delete(b.taps, t)
	close(t.ch)
}
