// Package buffer holds the bounded, ordered log of change records.
//
// When the buffer overflows the oldest record is evicted. If a sink is
// attached, evicted records that were never persisted are written to it before
// they leave memory, so the file keeps the full history while memory stays
// bounded. A failed write parks the evicted records in an unflushed queue that
// is retried ahead of the next write.
package buffer

import (
	"fmt"
	"sync"

	"github.com/penwyp/go-state-sight/internal/core/model"
	"github.com/penwyp/go-state-sight/internal/util"
)

// Writer persists records. It is satisfied by every sink.
type Writer interface {
	Write(records []model.ChangeRecord) error
}

type slot struct {
	record    model.ChangeRecord
	persisted bool
}

// Buffer is a bounded FIFO of change records. It is safe for concurrent use.
type Buffer struct {
	mu        sync.Mutex
	capacity  int
	slots     []slot
	unflushed []model.ChangeRecord
	sink      Writer
	dropFlush bool
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithSink attaches the writer evicted records are persisted to.
func WithSink(w Writer) Option {
	return func(b *Buffer) {
		b.sink = w
	}
}

// WithDropOnFlush empties the buffer after every successful Flush.
func WithDropOnFlush() Option {
	return func(b *Buffer) {
		b.dropFlush = true
	}
}

// New creates a buffer holding at most capacity records.
func New(capacity int, opts ...Option) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("buffer capacity must be at least 1, got %d", capacity)
	}
	b := &Buffer{
		capacity: capacity,
		slots:    make([]slot, 0, capacity),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Capacity returns the maximum number of records held in memory.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Append adds record to the end of the buffer and evicts the oldest records
// beyond capacity. The returned error comes only from the sink; the record is
// appended regardless.
func (b *Buffer) Append(record model.ChangeRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.slots = append(b.slots, slot{record: record})
	if len(b.slots) <= b.capacity {
		return nil
	}

	overflow := len(b.slots) - b.capacity
	evicted := make([]model.ChangeRecord, 0, overflow)
	for _, s := range b.slots[:overflow] {
		if !s.persisted {
			evicted = append(evicted, s.record)
		}
	}
	b.slots = append(b.slots[:0], b.slots[overflow:]...)
	util.LogDebug("buffer full, evicting oldest record", util.F("capacity", b.capacity), util.F("evicted", overflow))

	if b.sink == nil {
		return nil
	}
	b.unflushed = append(b.unflushed, evicted...)
	return b.writeUnflushed()
}

// writeUnflushed persists the unflushed queue. On failure the queue is kept
// for the next attempt. Callers hold b.mu.
func (b *Buffer) writeUnflushed() error {
	if len(b.unflushed) == 0 {
		return nil
	}
	if err := b.sink.Write(b.unflushed); err != nil {
		util.LogWarn("failed to persist evicted records", util.F("pending", len(b.unflushed)), util.F("error", err.Error()))
		return err
	}
	b.unflushed = nil
	return nil
}

// Flush persists the unflushed queue followed by every buffered record not
// yet written. Without a sink it is a no-op.
func (b *Buffer) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sink == nil {
		return nil
	}

	pending := len(b.unflushed)
	batch := append([]model.ChangeRecord(nil), b.unflushed...)
	for _, s := range b.slots {
		if !s.persisted {
			batch = append(batch, s.record)
		}
	}
	if len(batch) > 0 {
		if err := b.sink.Write(batch); err != nil {
			util.LogWarn("failed to flush records", util.F("records", len(batch)), util.F("error", err.Error()))
			return err
		}
	}

	b.unflushed = nil
	for i := range b.slots {
		b.slots[i].persisted = true
	}
	if b.dropFlush {
		b.slots = b.slots[:0]
	}
	util.LogDebug("flushed records", util.F("records", len(batch)), util.F("previously_failed", pending))
	return nil
}

// Discard drops the buffered and unflushed records without writing them.
// Records already written to the sink stay there.
func (b *Buffer) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := len(b.slots) + len(b.unflushed)
	b.slots = b.slots[:0]
	b.unflushed = nil
	util.LogDebug("discarded records", util.F("records", dropped))
}

// Records returns the in-memory records, oldest first.
func (b *Buffer) Records() []model.ChangeRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.ChangeRecord, len(b.slots))
	for i, s := range b.slots {
		out[i] = s.record
	}
	return out
}

// Len returns the number of in-memory records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slots)
}

// Unflushed returns evicted records whose write to the sink failed.
func (b *Buffer) Unflushed() []model.ChangeRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.ChangeRecord(nil), b.unflushed...)
}
