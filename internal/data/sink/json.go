package sink

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-state-sight/internal/core/model"
)

const jsonIndent = "    "

// tailWindow is how far from the end of a json sink the closing bracket is
// searched for.
const tailWindow = 4096

// JSONSink keeps the file a single JSON array. Appending rewrites the closing
// bracket.
type JSONSink struct {
	mu   sync.Mutex
	path string
}

func (s *JSONSink) Path() string   { return s.path }
func (s *JSONSink) Format() Format { return FormatJSON }

func (s *JSONSink) Write(records []model.ChangeRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := encodeJSONRecords(records)
	if err != nil {
		return &Error{Op: "encode", Path: s.path, Err: err}
	}

	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return &Error{Op: "open", Path: s.path, Err: err}
	}
	defer closeFile(file, s.path, &err)

	info, err := file.Stat()
	if err != nil {
		return &Error{Op: "stat", Path: s.path, Err: err}
	}

	var out bytes.Buffer
	offset := int64(0)
	if info.Size() == 0 {
		out.WriteString("[\n")
	} else {
		end, empty, err := findArrayEnd(file, info.Size())
		if err != nil {
			return &Error{Op: "append", Path: s.path, Err: err}
		}
		offset = end
		if !empty {
			out.WriteString(",")
		}
		out.WriteString("\n")
	}
	out.Write(body)
	out.WriteString("\n]\n")

	// The new tail is always longer than the one it overwrites, so the file
	// never shrinks while a reader follows it.
	if _, err := file.WriteAt(out.Bytes(), offset); err != nil {
		return &Error{Op: "write", Path: s.path, Err: err}
	}
	if err := file.Truncate(offset + int64(out.Len())); err != nil {
		return &Error{Op: "truncate", Path: s.path, Err: err}
	}
	return nil
}

func encodeJSONRecords(records []model.ChangeRecord) ([]byte, error) {
	var body bytes.Buffer
	for i, r := range records {
		data, err := sonic.ConfigStd.MarshalIndent(r, jsonIndent, jsonIndent)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			body.WriteString(",\n")
		}
		body.WriteString(jsonIndent)
		body.Write(data)
	}
	return body.Bytes(), nil
}

// findArrayEnd returns the offset just past the last element (or the opening
// bracket) of the array and whether the array is empty.
func findArrayEnd(r io.ReaderAt, size int64) (int64, bool, error) {
	start := size - tailWindow
	if start < 0 {
		start = 0
	}
	tail := make([]byte, size-start)
	if _, err := r.ReadAt(tail, start); err != nil && err != io.EOF {
		return 0, false, err
	}

	i := lastNonSpace(tail, len(tail))
	if i < 0 || tail[i] != ']' {
		return 0, false, fmt.Errorf("existing file is not a JSON array")
	}
	j := lastNonSpace(tail, i)
	if j < 0 {
		return 0, false, fmt.Errorf("existing file is not a JSON array")
	}
	return start + int64(j) + 1, tail[j] == '[', nil
}

func lastNonSpace(b []byte, end int) int {
	for i := end - 1; i >= 0; i-- {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return i
		}
	}
	return -1
}
