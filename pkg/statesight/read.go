package statesight

import (
	"context"
	"io"

	"github.com/penwyp/go-state-sight/internal/data/parser"
	"github.com/penwyp/go-state-sight/internal/data/sink"
	"github.com/penwyp/go-state-sight/internal/data/watcher"
	"github.com/penwyp/go-state-sight/internal/presentation/formatter"
)

func formatFor(path string, format OutputFormat) (OutputFormat, error) {
	if format == "" {
		return sink.FormatFromPath(path), nil
	}
	return sink.ParseFormat(string(format))
}

// ReadLog reads a log file back into records. An empty format is inferred
// from the file extension.
func ReadLog(path string, format OutputFormat) ([]ChangeRecord, error) {
	format, err := formatFor(path, format)
	if err != nil {
		return nil, err
	}
	return parser.ParseFile(path, format)
}

// Follow emits the records of a log file, then every record appended to it
// until ctx is cancelled. A truncated or replaced file is read again from the
// start. Both channels are closed when following stops.
func Follow(ctx context.Context, path string, format OutputFormat) (<-chan ChangeRecord, <-chan error, error) {
	format, err := formatFor(path, format)
	if err != nil {
		return nil, nil, err
	}
	f, err := watcher.NewFollower(path, format)
	if err != nil {
		return nil, nil, err
	}
	go f.Run(ctx)
	return f.Records(), f.Errors(), nil
}

// WriteTable renders records as a table sized to w when w is a terminal.
func WriteTable(w io.Writer, records []ChangeRecord) error {
	return formatter.NewTableFormatter(formatter.TerminalWidth(w)).Format(w, records)
}
