package sink

import (
	"encoding/csv"
	"os"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-state-sight/internal/core/model"
)

// CSVSink writes one row per record under a fixed header. The Change and
// State cells hold JSON text.
type CSVSink struct {
	mu   sync.Mutex
	path string
}

func (s *CSVSink) Path() string   { return s.path }
func (s *CSVSink) Format() Format { return FormatCSV }

func (s *CSVSink) Write(records []model.ChangeRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row, err := csvRow(r)
		if err != nil {
			return &Error{Op: "encode", Path: s.path, Err: err}
		}
		rows = append(rows, row)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return &Error{Op: "open", Path: s.path, Err: err}
	}
	defer closeFile(file, s.path, &err)

	info, err := file.Stat()
	if err != nil {
		return &Error{Op: "stat", Path: s.path, Err: err}
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(CSVHeader); err != nil {
			return &Error{Op: "write", Path: s.path, Err: err}
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return &Error{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

func csvRow(r model.ChangeRecord) ([]string, error) {
	change, err := sonic.ConfigStd.Marshal(r.ChangeValue())
	if err != nil {
		return nil, err
	}
	state, err := sonic.ConfigStd.Marshal(r.State)
	if err != nil {
		return nil, err
	}
	return []string{r.Timestamp, r.ChangedAttribute, string(change), string(state)}, nil
}
