package sink

import (
	"bytes"
	"os"
	"sync"

	"github.com/penwyp/go-state-sight/internal/core/model"
)

// TextSink writes one line per record: the record's JSON object without its
// enclosing braces.
type TextSink struct {
	mu   sync.Mutex
	path string
}

func (s *TextSink) Path() string   { return s.path }
func (s *TextSink) Format() Format { return FormatText }

func (s *TextSink) Write(records []model.ChangeRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out bytes.Buffer
	for _, r := range records {
		line, err := TextLine(r)
		if err != nil {
			return &Error{Op: "encode", Path: s.path, Err: err}
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return &Error{Op: "open", Path: s.path, Err: err}
	}
	defer closeFile(file, s.path, &err)

	if _, err := file.Write(out.Bytes()); err != nil {
		return &Error{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// TextLine renders r the way a txt sink stores it.
func TextLine(r model.ChangeRecord) (string, error) {
	data, err := r.MarshalJSON()
	if err != nil {
		return "", err
	}
	data = bytes.TrimSpace(data)
	return string(data[1 : len(data)-1]), nil
}
