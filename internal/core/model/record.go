package model

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// InitialStateMarker is the Change value of the record appended once an object
// finishes construction.
const InitialStateMarker = "Initial State"

// Column names shared by every on-disk format.
const (
	FieldTimestamp        = "Timestamp"
	FieldChangedAttribute = "Changed Attribute"
	FieldChange           = "Change"
	FieldState            = "State"
	FieldInstance         = "Instance"
)

// Change holds the serialized previous and current values of one assignment.
type Change struct {
	Previous any `json:"previous"`
	Current  any `json:"current"`
}

// ChangeRecord is one logged assignment together with the full state that
// resulted from it. A record with a nil Change is the initial-state record.
type ChangeRecord struct {
	Timestamp        string
	ChangedAttribute string
	Instance         string // set only when several instances share one log
	Change           *Change
	State            Snapshot
}

// IsInitial reports whether r is the synthetic initial-state record.
func (r ChangeRecord) IsInitial() bool {
	return r.Change == nil
}

// NewInitialRecord builds the record appended after construction.
func NewInitialRecord(timestamp string, state Snapshot) ChangeRecord {
	return ChangeRecord{Timestamp: timestamp, State: state}
}

// NewChangeRecord builds the record for one assignment.
func NewChangeRecord(timestamp, attribute string, previous, current any, state Snapshot) ChangeRecord {
	return ChangeRecord{
		Timestamp:        timestamp,
		ChangedAttribute: attribute,
		Change:           &Change{Previous: previous, Current: current},
		State:            state,
	}
}

// ChangeValue returns what is stored under the "Change" key: either the
// initial-state marker or the previous/current pair.
func (r ChangeRecord) ChangeValue() any {
	if r.Change == nil {
		return InitialStateMarker
	}
	return r.Change
}

type wireRecord struct {
	Timestamp        string   `json:"Timestamp"`
	ChangedAttribute string   `json:"Changed Attribute"`
	Instance         string   `json:"Instance,omitempty"`
	Change           any      `json:"Change"`
	State            Snapshot `json:"State"`
}

// MarshalJSON encodes the record with the column names used on disk.
func (r ChangeRecord) MarshalJSON() ([]byte, error) {
	return sonic.ConfigStd.Marshal(wireRecord{
		Timestamp:        r.Timestamp,
		ChangedAttribute: r.ChangedAttribute,
		Instance:         r.Instance,
		Change:           r.ChangeValue(),
		State:            r.State,
	})
}

// UnmarshalJSON decodes a record produced by MarshalJSON. Numbers come back
// as float64.
func (r *ChangeRecord) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := sonic.ConfigStd.Unmarshal(data, &w); err != nil {
		return err
	}

	change, err := DecodeChange(w.Change)
	if err != nil {
		return err
	}

	*r = ChangeRecord{
		Timestamp:        w.Timestamp,
		ChangedAttribute: w.ChangedAttribute,
		Instance:         w.Instance,
		Change:           change,
		State:            w.State,
	}
	return nil
}

// DecodeChange converts a decoded "Change" value back into a *Change.
// The initial-state marker yields nil.
func DecodeChange(v any) (*Change, error) {
	switch c := v.(type) {
	case string:
		if c != InitialStateMarker {
			return nil, fmt.Errorf("unexpected change marker %q", c)
		}
		return nil, nil
	case map[string]any:
		return &Change{Previous: c["previous"], Current: c["current"]}, nil
	case nil:
		return nil, fmt.Errorf("missing %s", FieldChange)
	default:
		return nil, fmt.Errorf("unexpected change value of type %T", v)
	}
}
