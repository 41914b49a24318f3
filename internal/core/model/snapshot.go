package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Snapshot maps attribute names to serialized values, remembering the order in
// which attributes were first assigned.
type Snapshot struct {
	keys   []string
	values map[string]any
}

// NewSnapshot returns an empty snapshot sized for n attributes.
func NewSnapshot(n int) Snapshot {
	return Snapshot{
		keys:   make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// Put stores value under key. New keys are appended to the order.
func (s *Snapshot) Put(key string, value any) {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Get returns the value stored under key.
func (s Snapshot) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the attribute names in assignment order.
func (s Snapshot) Keys() []string {
	return append([]string(nil), s.keys...)
}

func (s Snapshot) Len() int {
	return len(s.keys)
}

// Map returns a copy of the snapshot as a plain map.
func (s Snapshot) Map() map[string]any {
	m := make(map[string]any, len(s.keys))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

// MarshalJSON writes the snapshot as a JSON object in assignment order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := sonic.ConfigStd.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := sonic.ConfigStd.Marshal(s.values[k])
		if err != nil {
			return nil, fmt.Errorf("encode attribute %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping its key order.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = Snapshot{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("snapshot must be a JSON object, got %v", tok)
	}

	out := NewSnapshot(8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("snapshot key must be a string, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode attribute %q: %w", key, err)
		}
		out.Put(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}
