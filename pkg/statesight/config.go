package statesight

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/penwyp/go-state-sight/internal/core/serializer"
	"github.com/penwyp/go-state-sight/internal/data/sink"
)

// OutputFormat selects how the log file is written.
type OutputFormat = sink.Format

const (
	FormatJSON = sink.FormatJSON
	FormatCSV  = sink.FormatCSV
	FormatText = sink.FormatText
)

// DefaultBufferSize is the number of records kept in memory when no size is
// configured.
const DefaultBufferSize = 50

// Config is the per-class tracking configuration. It is fixed when the class
// is created.
type Config struct {
	// BufferSize is the number of records kept in memory.
	BufferSize int `config:"buffer_size" validate:"min=1"`

	// LogFile receives evicted and flushed records. Empty disables the file.
	LogFile string `config:"log_file"`

	// OutputFormat of LogFile. Empty means json, or the format implied by the
	// LogFile extension when a file is set.
	OutputFormat OutputFormat `config:"output_format" validate:"omitempty,oneof=json csv txt"`

	// Category flags. A disabled category is logged as a placeholder.
	LogLists         bool `config:"log_lists"`
	LogDicts         bool `config:"log_dicts"`
	LogNumericArrays bool `config:"log_numeric_arrays"`

	// SharedLog makes every instance of the class append to one log.
	SharedLog bool `config:"shared_log"`

	// DropOnFlush empties the in-memory log after a successful Flush.
	DropOnFlush bool `config:"drop_on_flush"`

	// Timezone of record timestamps; empty or "Local" is the host zone.
	Timezone string `config:"timezone" validate:"omitempty,timezone"`

	// Clock overrides time.Now for record timestamps.
	Clock func() time.Time `config:"-"`
}

// DefaultConfig returns the configuration used by NewClass before options
// are applied.
func DefaultConfig() Config {
	return Config{
		BufferSize: DefaultBufferSize,
	}
}

// Option adjusts a Config.
type Option func(*Config)

func WithBufferSize(n int) Option {
	return func(c *Config) { c.BufferSize = n }
}

// WithLogFile persists evicted and flushed records to path.
func WithLogFile(path string) Option {
	return func(c *Config) { c.LogFile = path }
}

func WithOutputFormat(format OutputFormat) Option {
	return func(c *Config) { c.OutputFormat = format }
}

func WithLogLists() Option {
	return func(c *Config) { c.LogLists = true }
}

func WithLogDicts() Option {
	return func(c *Config) { c.LogDicts = true }
}

func WithLogNumericArrays() Option {
	return func(c *Config) { c.LogNumericArrays = true }
}

// WithSharedLog makes all instances of the class share one log.
func WithSharedLog() Option {
	return func(c *Config) { c.SharedLog = true }
}

func WithDropOnFlush() Option {
	return func(c *Config) { c.DropOnFlush = true }
}

func WithTimezone(name string) Option {
	return func(c *Config) { c.Timezone = name }
}

func WithClock(now func() time.Time) Option {
	return func(c *Config) { c.Clock = now }
}

var configValidate = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("config"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// resolve fills in the output format and validates the configuration.
func (c Config) resolve() (Config, error) {
	if c.OutputFormat == "" {
		c.OutputFormat = FormatJSON
		if c.LogFile != "" {
			c.OutputFormat = sink.FormatFromPath(c.LogFile)
		}
	}
	c.OutputFormat = OutputFormat(strings.ToLower(string(c.OutputFormat)))
	if strings.EqualFold(c.Timezone, "local") {
		c.Timezone = ""
	}

	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Config{}, configurationError(verrs[0])
		}
		return Config{}, &ConfigurationError{Field: "config", Reason: err.Error()}
	}
	return c, nil
}

func configurationError(fe validator.FieldError) *ConfigurationError {
	var reason string
	switch fe.Tag() {
	case "min":
		reason = fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "oneof":
		reason = fmt.Sprintf("must be one of %s, got %q", strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "timezone":
		reason = fmt.Sprintf("must be a valid time zone, got %q", fe.Value())
	default:
		reason = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return &ConfigurationError{Field: fe.Field(), Reason: reason}
}

func (c Config) serializerOptions() serializer.Options {
	return serializer.Options{
		LogLists:         c.LogLists,
		LogDicts:         c.LogDicts,
		LogNumericArrays: c.LogNumericArrays,
	}
}
