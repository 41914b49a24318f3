// Package serializer turns arbitrary attribute values into JSON-friendly data.
// Values are classified into a small set of kinds; sequences, mappings and
// numeric arrays are expanded only when their category is enabled, and
// everything that cannot be represented degrades to a placeholder string.
// Serialization never fails and never calls into the value.
package serializer

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/penwyp/go-state-sight/internal/core/model"
	"github.com/penwyp/go-state-sight/internal/util"
)

// Placeholders written in place of values that are not expanded.
const (
	PlaceholderList         = "<list object>"
	PlaceholderDict         = "<dict object>"
	PlaceholderNumericArray = "<numeric array object>"
	PlaceholderFunction     = "<function>"
	PlaceholderMaxDepth     = "<max depth>"
	PlaceholderCycle        = "<cycle>"
)

// MaxDepth bounds recursion into nested containers.
const MaxDepth = 32

// Options selects which container categories are expanded.
type Options struct {
	LogLists         bool
	LogDicts         bool
	LogNumericArrays bool
}

// Serialize converts v into a value built only from nil, bool, numbers,
// strings, []any and map[string]any.
func (o Options) Serialize(v any) any {
	w := walker{Options: o}
	return w.value(reflect.ValueOf(v), 0)
}

// visit identifies a container on the current recursion path. Slices are
// keyed with their length, as two slices may share a backing array.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

// walker serializes one value. path holds the containers currently being
// expanded; reaching one of them again is a cycle.
type walker struct {
	Options
	path map[visit]struct{}
}

// enter marks v as being expanded. It returns false when v is already on the
// path.
func (w *walker) enter(v reflect.Value) (visit, bool) {
	key := visit{ptr: v.Pointer(), typ: v.Type()}
	if v.Kind() == reflect.Slice {
		key.len = v.Len()
	}
	if _, ok := w.path[key]; ok {
		return key, false
	}
	if w.path == nil {
		w.path = make(map[visit]struct{})
	}
	w.path[key] = struct{}{}
	return key, true
}

func (w *walker) leave(key visit) {
	delete(w.path, key)
}

// Snapshot serializes every attribute in order.
func (o Options) Snapshot(names []string, values map[string]any) model.Snapshot {
	snap := model.NewSnapshot(len(names))
	for _, name := range names {
		snap.Put(name, o.Serialize(values[name]))
	}
	return snap
}

// OpaquePlaceholder names the Go type of a value that has no serialized form.
func OpaquePlaceholder(t reflect.Type) string {
	return fmt.Sprintf("<object %s>", t)
}

func (w *walker) value(v reflect.Value, depth int) any {
	if depth > MaxDepth {
		return PlaceholderMaxDepth
	}
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return nil
		}
		if depth++; depth > MaxDepth {
			return PlaceholderMaxDepth
		}
		if v.Kind() == reflect.Pointer {
			key, ok := w.enter(v)
			if !ok {
				return PlaceholderCycle
			}
			defer w.leave(key)
		}
		v = v.Elem()
	}

	switch kind := Classify(v); kind {
	case KindNull:
		return nil
	case KindScalar:
		return scalar(v)
	case KindTime:
		return util.FormatISO(v.Interface().(time.Time))
	case KindDuration:
		return v.Interface().(time.Duration).String()
	case KindSequence:
		if !w.LogLists {
			return PlaceholderList
		}
		if v.Kind() == reflect.Array {
			return w.sequence(v, depth)
		}
		key, ok := w.enter(v)
		if !ok {
			return PlaceholderCycle
		}
		defer w.leave(key)
		return w.sequence(v, depth)
	case KindMapping:
		if !w.LogDicts {
			return PlaceholderDict
		}
		key, ok := w.enter(v)
		if !ok {
			return PlaceholderCycle
		}
		defer w.leave(key)
		return w.mapping(v, depth)
	case KindNumericArray:
		if !w.LogNumericArrays {
			return PlaceholderNumericArray
		}
		return numericArray(v)
	case KindCallable:
		return PlaceholderFunction
	default:
		util.LogDebug("attribute value has no serialized form", util.F("type", v.Type().String()), util.F("kind", kind.String()))
		return OpaquePlaceholder(v.Type())
	}
}

func (w *walker) sequence(v reflect.Value, depth int) any {
	out := make([]any, v.Len())
	for i := range out {
		out[i] = w.value(v.Index(i), depth+1)
	}
	return out
}

func (w *walker) mapping(v reflect.Value, depth int) any {
	type entry struct {
		name string
		typ  string
		key  reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	for _, k := range v.MapKeys() {
		entries = append(entries, entry{name: mapKey(k), typ: k.Type().String(), key: k})
	}
	// Keys of different types can render to the same string; the sort makes
	// the surviving value independent of map iteration order.
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].name != entries[b].name {
			return entries[a].name < entries[b].name
		}
		return entries[a].typ < entries[b].typ
	})

	out := make(map[string]any, len(entries))
	for _, e := range entries {
		out[e.name] = w.value(v.MapIndex(e.key), depth+1)
	}
	return out
}

func mapKey(k reflect.Value) string {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(scalar(k))
	default:
		return fmt.Sprintf("%v", k.Interface())
	}
}

func numericArray(v reflect.Value) any {
	out := make([]any, v.Len())
	for i := range out {
		out[i] = scalar(v.Index(i))
	}
	return out
}

// scalar passes builtin scalars through and converts named scalar types to
// their underlying builtin type.
func scalar(v reflect.Value) any {
	if v.Type().PkgPath() == "" && v.CanInterface() {
		switch x := v.Interface().(type) {
		case float64:
			return finite(x)
		case float32:
			return finite(float64(x))
		default:
			return x
		}
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return finite(v.Float())
	default:
		return OpaquePlaceholder(v.Type())
	}
}

func finite(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}
