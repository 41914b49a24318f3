package statesight

import (
	"sync"

	"github.com/penwyp/go-state-sight/internal/core/buffer"
	"github.com/penwyp/go-state-sight/internal/core/model"
	"github.com/penwyp/go-state-sight/internal/util"
)

// SharedLog is a reference-counted handle on one bounded log. Every object
// holds a reference to its log; a class created WithSharedLog holds one more
// for as long as it is open. Releasing the last reference flushes the log.
type SharedLog struct {
	buf *buffer.Buffer

	mu   sync.Mutex
	refs int
}

func newSharedLog(buf *buffer.Buffer) *SharedLog {
	return &SharedLog{buf: buf, refs: 1}
}

// retain adds a reference. It fails once the log has been fully released.
func (s *SharedLog) retain() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		return ErrClosed
	}
	s.refs++
	return nil
}

// release drops a reference and flushes the log when it was the last one.
func (s *SharedLog) release() error {
	s.mu.Lock()
	if s.refs == 0 {
		s.mu.Unlock()
		return ErrClosed
	}
	s.refs--
	last := s.refs == 0
	s.mu.Unlock()

	if !last {
		return nil
	}
	util.LogDebug("last log reference released, flushing", util.F("records", s.buf.Len()))
	return s.buf.Flush()
}

// discard drops a reference without flushing. The records of a log nobody
// else references are dropped with it.
func (s *SharedLog) discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		return ErrClosed
	}
	s.refs--
	if s.refs == 0 {
		s.buf.Discard()
	}
	return nil
}

// Refs returns the number of live references.
func (s *SharedLog) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// Records returns the in-memory records, oldest first.
func (s *SharedLog) Records() []model.ChangeRecord {
	return s.buf.Records()
}

// Unflushed returns evicted records whose write to the log file failed.
func (s *SharedLog) Unflushed() []model.ChangeRecord {
	return s.buf.Unflushed()
}

// Flush writes every record not yet persisted to the log file.
func (s *SharedLog) Flush() error {
	return s.buf.Flush()
}

func (s *SharedLog) append(record model.ChangeRecord) error {
	return s.buf.Append(record)
}
