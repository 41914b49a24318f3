package statesight

import (
	"sync"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-state-sight/internal/core/model"
)

const jsonIndent = "    "

// Object is a tracked instance. Attributes live in an ordered map and every
// mutation goes through Set, which records the change before returning.
// An Object is safe for concurrent use.
type Object struct {
	class *Class
	id    string
	log   *SharedLog

	mu     sync.Mutex
	names  []string
	values map[string]any
	closed bool
}

// ID returns the instance identifier recorded in shared logs.
func (o *Object) ID() string {
	return o.id
}

// Class returns the class the object was created from.
func (o *Object) Class() *Class {
	return o.class
}

// Set assigns value to the named attribute and records the change. Every
// assignment is recorded, including one that stores an equal value. The
// value is applied even when an error is returned; a *SinkError means the log
// file could not be written and the record stays available in memory.
func (o *Object) Set(name string, value any) error {
	if name == "" {
		return ErrEmptyAttribute
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}

	previous, existed := o.values[name]
	if !existed {
		o.names = append(o.names, name)
	}
	o.values[name] = value

	opts := o.class.opts
	var prev any
	if existed {
		prev = opts.Serialize(previous)
	}
	record := model.NewChangeRecord(o.class.timestamp(), name, prev, opts.Serialize(value), o.snapshotLocked())
	record.Instance = o.instanceTag()
	return o.log.append(record)
}

func (o *Object) recordInitialState() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	record := model.NewInitialRecord(o.class.timestamp(), o.snapshotLocked())
	record.Instance = o.instanceTag()
	return o.log.append(record)
}

func (o *Object) snapshotLocked() model.Snapshot {
	return o.class.opts.Snapshot(o.names, o.values)
}

func (o *Object) instanceTag() string {
	if o.class.shared == nil {
		return ""
	}
	return o.id
}

// Get returns the current value of an attribute.
func (o *Object) Get(name string) (any, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.values[name]
	return v, ok
}

// Attributes returns attribute names in the order they were first set.
func (o *Object) Attributes() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.names...)
}

func (o *Object) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.names)
}

// State returns the serialized current state.
func (o *Object) State() model.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// ToJSON serializes the current state, independent of the log.
func (o *Object) ToJSON() ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(o.State(), "", jsonIndent)
}

// Log returns the in-memory change records, oldest first. Records already
// evicted to the log file are not included.
func (o *Object) Log() []model.ChangeRecord {
	return o.log.Records()
}

// LogJSON serializes Log as a JSON array.
func (o *Object) LogJSON() ([]byte, error) {
	records := o.Log()
	if records == nil {
		records = []model.ChangeRecord{}
	}
	return sonic.ConfigStd.MarshalIndent(records, "", jsonIndent)
}

// Unflushed returns evicted records whose write to the log file failed. They
// are retried by the next write.
func (o *Object) Unflushed() []model.ChangeRecord {
	return o.log.Unflushed()
}

// Flush writes every record not yet persisted to the log file. Without a log
// file it does nothing.
func (o *Object) Flush() error {
	return o.log.Flush()
}

// abandon closes an object whose construction failed. A per-instance log is
// dropped instead of flushed; a shared log keeps what was already recorded.
func (o *Object) abandon() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	if o.class.shared != nil {
		return o.log.release()
	}
	return o.log.discard()
}

// Close releases the object's reference on its log. When no other reference
// remains, the log is flushed. Further Set calls fail with ErrClosed.
func (o *Object) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	return o.log.release()
}
