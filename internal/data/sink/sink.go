// Package sink appends change records to a file in one of the supported
// textual formats. Each Write opens the file, appends and closes it again.
package sink

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-state-sight/internal/core/model"
)

// Format is an on-disk record format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatCSV, FormatText}

// CSVHeader is the header row of csv sinks.
var CSVHeader = []string{
	model.FieldTimestamp, model.FieldChangedAttribute, model.FieldChange, model.FieldState,
}

// Sink persists records.
type Sink interface {
	Write(records []model.ChangeRecord) error
	Path() string
	Format() Format
}

// Error reports a failed sink operation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state sink %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// closeFile closes c and reports a failure through err unless an earlier
// error is already set. Some filesystems only report write errors on close.
func closeFile(c io.Closer, path string, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = &Error{Op: "close", Path: path, Err: cerr}
	}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q", name)
}

// FormatFromPath infers the format from a file extension: .json is json,
// .csv is csv and anything else is txt.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	default:
		return FormatText
	}
}

// New returns the sink writing format to path.
func New(path string, format Format) (Sink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sink path is empty")
	}
	switch format {
	case FormatJSON:
		return &JSONSink{path: path}, nil
	case FormatCSV:
		return &CSVSink{path: path}, nil
	case FormatText:
		return &TextSink{path: path}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
