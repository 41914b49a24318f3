package serializer

import (
	"reflect"
	"time"
)

// Kind is the serialization category of a value.
type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindTime
	KindDuration
	KindSequence
	KindMapping
	KindNumericArray
	KindCallable
	KindOpaque
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindTime:
		return "time"
	case KindDuration:
		return "duration"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindNumericArray:
		return "numeric array"
	case KindCallable:
		return "callable"
	default:
		return "opaque"
	}
}

// NumericArrayMarker is implemented by types that should be treated as
// numeric arrays even though their Go shape is a slice.
type NumericArrayMarker interface {
	NumericArray()
}

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	numericArrayIfaceTy = reflect.TypeOf((*NumericArrayMarker)(nil)).Elem()
)

// Classify returns the category of v. Pointers and interfaces are expected to
// be unwrapped by the caller; an invalid value is KindNull.
func Classify(v reflect.Value) Kind {
	if !v.IsValid() {
		return KindNull
	}

	t := v.Type()
	switch t {
	case timeType:
		return KindTime
	case durationType:
		return KindDuration
	}
	if t.Implements(numericArrayIfaceTy) && isNumericKind(elemKind(t)) {
		if v.Kind() == reflect.Slice && v.IsNil() {
			return KindNull
		}
		return KindNumericArray
	}

	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return KindScalar
	case reflect.Array:
		if isNumericKind(t.Elem().Kind()) {
			return KindNumericArray
		}
		return KindSequence
	case reflect.Slice:
		if v.IsNil() {
			return KindNull
		}
		return KindSequence
	case reflect.Map:
		if v.IsNil() {
			return KindNull
		}
		return KindMapping
	case reflect.Func:
		if v.IsNil() {
			return KindNull
		}
		return KindCallable
	default:
		return KindOpaque
	}
}

func elemKind(t reflect.Type) reflect.Kind {
	switch t.Kind() {
	case reflect.Array, reflect.Slice:
		return t.Elem().Kind()
	default:
		return reflect.Invalid
	}
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
