package statesight

import (
	"io"

	"github.com/penwyp/go-state-sight/internal/util"
)

// SetLogOutput sends the package's diagnostics (evictions, flushes, sink
// failures) to w at the given level: "debug", "info", "warn" or "error".
// JSON lines are written when jsonFormat is set. A nil w silences them.
func SetLogOutput(w io.Writer, level string, jsonFormat bool) {
	if w == nil {
		util.SetLogger(nil)
		return
	}
	format := util.FormatText
	if jsonFormat {
		format = util.FormatJSON
	}
	util.SetLogger(util.NewLogger(util.ParseLogLevel(level), util.NewWriterOutput(w, format)))
}

// SetLogFile appends the package's diagnostics to path.
func SetLogFile(path, level string) error {
	out, err := util.NewFileOutput(path, util.FormatText)
	if err != nil {
		return err
	}
	util.SetLogger(util.NewLogger(util.ParseLogLevel(level), out))
	return nil
}
