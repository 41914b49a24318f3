package statesight_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-state-sight/pkg/statesight"
)

var fixedTime = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() statesight.Option {
	return statesight.WithClock(func() time.Time { return fixedTime })
}

func newClass(t *testing.T, opts ...statesight.Option) *statesight.Class {
	t.Helper()
	opts = append([]statesight.Option{statesight.WithTimezone("UTC"), fixedClock()}, opts...)
	class, err := statesight.NewClass("MyClass", opts...)
	require.NoError(t, err)
	return class
}

func newObject(t *testing.T, class *statesight.Class, init func(*statesight.Object) error) *statesight.Object {
	t.Helper()
	o, err := class.New(init)
	require.NoError(t, err)
	return o
}

func setXY(x, y any) func(*statesight.Object) error {
	return func(o *statesight.Object) error {
		if err := o.Set("x", x); err != nil {
			return err
		}
		return o.Set("y", y)
	}
}

func TestConstructionIsRecorded(t *testing.T) {
	o := newObject(t, newClass(t), setXY(1, "initial"))

	log := o.Log()
	require.Len(t, log, 3)

	assert.Equal(t, "x", log[0].ChangedAttribute)
	assert.Equal(t, &statesight.Change{Previous: nil, Current: 1}, log[0].Change)
	assert.Equal(t, []string{"x"}, log[0].State.Keys())

	assert.Equal(t, "y", log[1].ChangedAttribute)
	assert.Equal(t, []string{"x", "y"}, log[1].State.Keys())

	initial := log[2]
	assert.True(t, initial.IsInitial())
	assert.Empty(t, initial.ChangedAttribute)
	assert.Equal(t, statesight.InitialState, initial.ChangeValue())
	assert.Equal(t, map[string]any{"x": 1, "y": "initial"}, initial.State.Map())

	assert.Equal(t, "2024-01-15T10:00:00Z", initial.Timestamp)
	assert.Empty(t, initial.Instance)
}

func TestSetRecordsPreviousAndCurrent(t *testing.T) {
	o := newObject(t, newClass(t), setXY(1, "initial"))

	require.NoError(t, o.Set("x", 5))
	require.NoError(t, o.Set("z", true))

	log := o.Log()
	require.Len(t, log, 5)

	assert.Equal(t, &statesight.Change{Previous: 1, Current: 5}, log[3].Change)
	assert.Equal(t, []string{"x", "y"}, log[3].State.Keys())
	x, _ := log[3].State.Get("x")
	assert.Equal(t, 5, x)

	assert.Equal(t, &statesight.Change{Previous: nil, Current: true}, log[4].Change)
	assert.Equal(t, []string{"x", "y", "z"}, log[4].State.Keys())

	v, ok := o.Get("x")
	require.True(t, ok)
	assert.Equal(t, 5, v)
	_, ok = o.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"x", "y", "z"}, o.Attributes())
	assert.Equal(t, 3, o.Len())
}

func TestEqualAssignmentsAreRecorded(t *testing.T) {
	o := newObject(t, newClass(t), nil)

	require.NoError(t, o.Set("x", 1))
	require.NoError(t, o.Set("x", 1))

	log := o.Log()
	require.Len(t, log, 3)
	assert.Equal(t, &statesight.Change{Previous: 1, Current: 1}, log[2].Change)
}

func TestBufferKeepsNewestRecords(t *testing.T) {
	o := newObject(t, newClass(t, statesight.WithBufferSize(2)), nil)

	for _, v := range []int{1, 2, 3} {
		require.NoError(t, o.Set("x", v))
	}

	log := o.Log()
	require.Len(t, log, 2)
	assert.Equal(t, &statesight.Change{Previous: 1, Current: 2}, log[0].Change)
	assert.Equal(t, &statesight.Change{Previous: 2, Current: 3}, log[1].Change)
}

func TestLogLengthIsBounded(t *testing.T) {
	for _, size := range []int{1, 2, 5, 50} {
		for _, sets := range []int{0, 1, 4, 60} {
			t.Run(fmt.Sprintf("size%d_sets%d", size, sets), func(t *testing.T) {
				o := newObject(t, newClass(t, statesight.WithBufferSize(size)), nil)
				for i := 0; i < sets; i++ {
					require.NoError(t, o.Set("n", i))
				}

				want := sets + 1
				if want > size {
					want = size
				}
				log := o.Log()
				require.Len(t, log, want)

				last := log[len(log)-1]
				if sets == 0 {
					assert.True(t, last.IsInitial())
				} else {
					assert.Equal(t, sets-1, last.Change.Current)
				}
			})
		}
	}
}

func TestCategoryFlags(t *testing.T) {
	values := map[string]any{
		"items":   []int{1, 2},
		"config":  map[string]int{"a": 1},
		"samples": statesight.NumericArray[float64]{0.5, 1.5},
		"fixed":   [2]int{3, 4},
	}
	order := []string{"items", "config", "samples", "fixed"}

	tests := []struct {
		name string
		opts []statesight.Option
		want map[string]any
	}{
		{
			name: "all_disabled",
			want: map[string]any{
				"items":   statesight.PlaceholderList,
				"config":  statesight.PlaceholderDict,
				"samples": statesight.PlaceholderNumericArray,
				"fixed":   statesight.PlaceholderNumericArray,
			},
		},
		{
			name: "all_enabled",
			opts: []statesight.Option{statesight.WithLogLists(), statesight.WithLogDicts(), statesight.WithLogNumericArrays()},
			want: map[string]any{
				"items":   []any{1, 2},
				"config":  map[string]any{"a": 1},
				"samples": []any{0.5, 1.5},
				"fixed":   []any{3, 4},
			},
		},
		{
			name: "lists_only",
			opts: []statesight.Option{statesight.WithLogLists()},
			want: map[string]any{
				"items":   []any{1, 2},
				"config":  statesight.PlaceholderDict,
				"samples": statesight.PlaceholderNumericArray,
				"fixed":   statesight.PlaceholderNumericArray,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newObject(t, newClass(t, tt.opts...), nil)
			for _, name := range order {
				require.NoError(t, o.Set(name, values[name]))
			}

			log := o.Log()
			for i, name := range order {
				record := log[i+1]
				require.Equal(t, name, record.ChangedAttribute)
				assert.Equal(t, tt.want[name], record.Change.Current, name)
			}
			assert.Equal(t, tt.want, o.State().Map())
		})
	}
}

func TestCallablesAreNotInvoked(t *testing.T) {
	o := newObject(t, newClass(t, statesight.WithLogLists(), statesight.WithLogDicts()), nil)

	called := false
	require.NoError(t, o.Set("callback", func() { called = true }))

	log := o.Log()
	assert.Equal(t, statesight.PlaceholderFunction, log[len(log)-1].Change.Current)
	assert.False(t, called)

	// The raw value is still what Get returns.
	v, _ := o.Get("callback")
	assert.IsType(t, func() {}, v)
}

func TestTimeValuesAreISOStrings(t *testing.T) {
	o := newObject(t, newClass(t), nil)
	require.NoError(t, o.Set("at", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)))

	log := o.Log()
	assert.Equal(t, "2024-03-01T12:30:00Z", log[1].Change.Current)
}

func TestToJSONDoesNotRecord(t *testing.T) {
	o := newObject(t, newClass(t), setXY(1, "initial"))
	before := len(o.Log())

	first, err := o.ToJSON()
	require.NoError(t, err)
	second, err := o.ToJSON()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, o.Log(), before)

	var state map[string]any
	require.NoError(t, json.Unmarshal(first, &state))
	assert.Equal(t, map[string]any{"x": float64(1), "y": "initial"}, state)
}

func TestLogJSON(t *testing.T) {
	o := newObject(t, newClass(t), setXY(1, "initial"))
	require.NoError(t, o.Set("x", 2))

	data, err := o.LogJSON()
	require.NoError(t, err)

	var records []statesight.ChangeRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 4)
	assert.True(t, records[2].IsInitial())
	assert.Equal(t, &statesight.Change{Previous: float64(1), Current: float64(2)}, records[3].Change)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Initial State", raw[2]["Change"])
	assert.Equal(t, "x", raw[3]["Changed Attribute"])
}

func TestLogJSONOfDroppedLogIsEmptyArray(t *testing.T) {
	class := newClass(t, statesight.WithDropOnFlush(), statesight.WithLogFile(t.TempDir()+"/changes.json"))
	o := newObject(t, class, nil)
	require.NoError(t, o.Flush())
	assert.Empty(t, o.Log())

	data, err := o.LogJSON()
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestSetValidation(t *testing.T) {
	o := newObject(t, newClass(t), nil)

	assert.ErrorIs(t, o.Set("", 1), statesight.ErrEmptyAttribute)
	assert.Len(t, o.Log(), 1)

	require.NoError(t, o.Close())
	require.NoError(t, o.Close())
	assert.ErrorIs(t, o.Set("x", 1), statesight.ErrClosed)
	assert.Len(t, o.Log(), 1)
}

func TestConstructorFailure(t *testing.T) {
	errInvalid := errors.New("radius must be positive")
	class := newClass(t)

	o, err := class.New(func(o *statesight.Object) error {
		if err := o.Set("radius", -1); err != nil {
			return err
		}
		return errInvalid
	})
	assert.Nil(t, o)
	require.ErrorIs(t, err, errInvalid)
	assert.Contains(t, err.Error(), "construct MyClass")
}

func TestClosedClassRejectsNew(t *testing.T) {
	class := newClass(t)
	o := newObject(t, class, nil)

	require.NoError(t, class.Close())
	require.NoError(t, class.Close())

	_, err := class.New(nil)
	assert.ErrorIs(t, err, statesight.ErrClosed)

	// Existing objects keep working.
	assert.NoError(t, o.Set("x", 1))
}

func TestObjectsHaveIndependentLogs(t *testing.T) {
	class := newClass(t)
	a := newObject(t, class, setXY(1, "a"))
	b := newObject(t, class, setXY(2, "b"))

	require.NoError(t, a.Set("x", 10))

	assert.Len(t, a.Log(), 4)
	assert.Len(t, b.Log(), 3)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Nil(t, class.Log())
	assert.Nil(t, class.SharedLog())
	assert.Same(t, class, a.Class())
}

func TestConcurrentSet(t *testing.T) {
	o := newObject(t, newClass(t, statesight.WithBufferSize(1000)), nil)

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				assert.NoError(t, o.Set(fmt.Sprintf("g%d", g), i))
			}
		}(g)
	}
	wg.Wait()

	log := o.Log()
	require.Len(t, log, 1+10*20)
	assert.Equal(t, 10, o.Len())

	// Each record's snapshot reflects the assignment it describes.
	for _, r := range log[1:] {
		v, ok := r.State.Get(r.ChangedAttribute)
		require.True(t, ok)
		assert.Equal(t, r.Change.Current, v)
	}
}

func TestSelfReferencingValueIsRecorded(t *testing.T) {
	o := newObject(t, newClass(t, statesight.WithLogLists(), statesight.WithLogDicts()), nil)

	graph := map[string]any{"name": "root"}
	graph["self"] = graph
	graph["children"] = []any{graph, graph, graph}

	done := make(chan error, 1)
	go func() { done <- o.Set("graph", graph) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Set did not return")
	}

	log := o.Log()
	assert.Equal(t, map[string]any{
		"name":     "root",
		"self":     statesight.PlaceholderCycle,
		"children": []any{statesight.PlaceholderCycle, statesight.PlaceholderCycle, statesight.PlaceholderCycle},
	}, log[len(log)-1].Change.Current)
}
