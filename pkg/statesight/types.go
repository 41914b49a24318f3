package statesight

import (
	"github.com/penwyp/go-state-sight/internal/core/model"
	"github.com/penwyp/go-state-sight/internal/core/serializer"
)

type (
	// ChangeRecord is one logged assignment plus the state that resulted from
	// it. The initial-state record has a nil Change.
	ChangeRecord = model.ChangeRecord
	Change       = model.Change
	Snapshot     = model.Snapshot
)

// InitialState is the Change value stored for the initial-state record.
const InitialState = model.InitialStateMarker

// Placeholders written for values that are not expanded.
const (
	PlaceholderList         = serializer.PlaceholderList
	PlaceholderDict         = serializer.PlaceholderDict
	PlaceholderNumericArray = serializer.PlaceholderNumericArray
	PlaceholderFunction     = serializer.PlaceholderFunction
	PlaceholderCycle        = serializer.PlaceholderCycle
)

// Number is the element constraint of NumericArray.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// NumericArray marks a slice as a homogeneous numeric buffer. It is logged
// under the numeric array category instead of the list category. Go arrays
// of numbers, such as [3]float64, are numeric arrays already.
type NumericArray[T Number] []T

// NumericArray implements the marker the serializer looks for.
func (NumericArray[T]) NumericArray() {}
