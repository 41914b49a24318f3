// Package statesight records every change made to a tracked object's
// attributes.
//
// A Class carries the tracking configuration; objects created from it keep
// their attributes in an ordered map whose single mutation point, Set,
// appends a ChangeRecord holding the timestamp, the previous and current
// values and a snapshot of the whole state. Records live in a bounded
// in-memory log. When a log file is configured, records evicted from memory
// are appended to it first, in json, csv or txt form.
//
//	class, err := statesight.NewClass("Point", statesight.WithBufferSize(100))
//	if err != nil {
//		return err
//	}
//	p, err := class.New(func(o *statesight.Object) error {
//		if err := o.Set("x", 1); err != nil {
//			return err
//		}
//		return o.Set("y", 2)
//	})
//	p.Set("x", 3)
//	records := p.Log() // x=1, y=2, Initial State, x: 1 -> 3
//
// Values are serialized by category. Scalars pass through, times become
// ISO-8601 strings, functions and other opaque values become placeholders,
// and lists, maps and numeric arrays are expanded only when their category is
// enabled with WithLogLists, WithLogDicts or WithLogNumericArrays.
package statesight
