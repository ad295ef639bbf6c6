package projections

import "reflect"

// TypeName returns the bare type name of v, without package path or pointer
// markers. Handlers are keyed and telemetry is labeled by it.
func TypeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
