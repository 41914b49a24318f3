package statesight

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/penwyp/go-state-sight/internal/core/buffer"
	"github.com/penwyp/go-state-sight/internal/core/model"
	"github.com/penwyp/go-state-sight/internal/core/serializer"
	"github.com/penwyp/go-state-sight/internal/data/sink"
	"github.com/penwyp/go-state-sight/internal/util"
)

// Class describes a kind of tracked object: its name and the configuration
// every instance records with. It plays the role of a decorated type.
type Class struct {
	name   string
	cfg    Config
	opts   serializer.Options
	clock  *util.Clock
	sink   sink.Sink
	shared *SharedLog

	mu     sync.Mutex
	closed bool
}

// NewClass validates the configuration built from opts and returns the
// class. Invalid settings fail here with a *ConfigurationError.
func NewClass(name string, opts ...Option) (*Class, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewClassWithConfig(name, cfg)
}

// NewClassWithConfig is NewClass for a fully built Config.
func NewClassWithConfig(name string, cfg Config) (*Class, error) {
	cfg, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	clock, err := util.NewClock(cfg.Timezone, cfg.Clock)
	if err != nil {
		return nil, &ConfigurationError{Field: "timezone", Reason: err.Error()}
	}

	c := &Class{
		name:  name,
		cfg:   cfg,
		opts:  cfg.serializerOptions(),
		clock: clock,
	}

	if cfg.LogFile != "" {
		s, err := sink.New(cfg.LogFile, cfg.OutputFormat)
		if err != nil {
			return nil, &ConfigurationError{Field: "log_file", Reason: err.Error()}
		}
		c.sink = s
	}

	if cfg.SharedLog {
		buf, err := c.newBuffer()
		if err != nil {
			return nil, err
		}
		c.shared = newSharedLog(buf)
	}

	util.LogDebug("class registered",
		util.F("class", name),
		util.F("buffer_size", cfg.BufferSize),
		util.F("log_file", cfg.LogFile),
		util.F("output_format", string(cfg.OutputFormat)),
		util.F("shared_log", cfg.SharedLog))
	return c, nil
}

func (c *Class) newBuffer() (*buffer.Buffer, error) {
	var opts []buffer.Option
	if c.sink != nil {
		opts = append(opts, buffer.WithSink(c.sink))
	}
	if c.cfg.DropOnFlush {
		opts = append(opts, buffer.WithDropOnFlush())
	}
	buf, err := buffer.New(c.cfg.BufferSize, opts...)
	if err != nil {
		return nil, &ConfigurationError{Field: "buffer_size", Reason: err.Error()}
	}
	return buf, nil
}

func (c *Class) Name() string {
	return c.name
}

// Config returns the resolved configuration.
func (c *Class) Config() Config {
	return c.cfg
}

// New constructs a tracked object. Every Set performed by init is recorded;
// once init returns, an initial-state record capturing the constructed state
// is appended.
//
// If init fails the error is returned and the object's own records are
// dropped without being written; records already evicted to the log file
// stay there. A *SinkError raised while appending the initial-state record is
// returned together with the usable object.
func (c *Class) New(init func(o *Object) error) (*Object, error) {
	log, err := c.acquireLog()
	if err != nil {
		return nil, err
	}

	o := &Object{
		class:  c,
		id:     uuid.NewString(),
		log:    log,
		values: make(map[string]any),
	}

	if init != nil {
		if err := init(o); err != nil {
			if abandonErr := o.abandon(); abandonErr != nil {
				err = errors.Join(err, abandonErr)
			}
			return nil, fmt.Errorf("construct %s: %w", c.name, err)
		}
	}

	return o, o.recordInitialState()
}

func (c *Class) acquireLog() (*SharedLog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.shared != nil {
		if err := c.shared.retain(); err != nil {
			return nil, err
		}
		return c.shared, nil
	}

	buf, err := c.newBuffer()
	if err != nil {
		return nil, err
	}
	return newSharedLog(buf), nil
}

// Log returns the class-wide log of a class created WithSharedLog, and nil
// otherwise.
func (c *Class) Log() []model.ChangeRecord {
	if c.shared == nil {
		return nil
	}
	return c.shared.Records()
}

// SharedLog returns the class-wide log handle, or nil for per-instance logs.
func (c *Class) SharedLog() *SharedLog {
	return c.shared
}

// Close releases the class's reference on its shared log. Objects already
// created keep working; New fails afterwards.
func (c *Class) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.shared == nil {
		return nil
	}
	return c.shared.release()
}

func (c *Class) timestamp() string {
	return util.FormatISO(c.clock.Now())
}
