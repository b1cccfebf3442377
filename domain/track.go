package domain

import "time"

// ChangeHook is called with the name of a field that actually changed.
type ChangeHook func(field string)

// TrackFunc assigns value to *field when equal reports a difference, marks
// e modified and calls hook once. It reports whether anything changed.
func TrackFunc[T any](e *Entity, field *T, value T, equal func(a, b T) bool, name string, hook ChangeHook) bool {
	if equal(*field, value) {
		return false
	}
	*field = value
	e.markModified()
	if hook != nil {
		hook(name)
	}
	return true
}

// TrackField is TrackFunc with value equality.
func TrackField[T comparable](e *Entity, field *T, value T, name string, hook ChangeHook) bool {
	return TrackFunc(e, field, value, func(a, b T) bool { return a == b }, name, hook)
}

// TrackTime compares instants, ignoring location and monotonic readings.
func TrackTime(e *Entity, field *time.Time, value time.Time, name string, hook ChangeHook) bool {
	return TrackFunc(e, field, value, time.Time.Equal, name, hook)
}

// TrackOptional handles nullable fields: nil and nil are equal, two set
// values are compared by value. The stored pointer never aliases value.
func TrackOptional[T comparable](e *Entity, field **T, value *T, name string, hook ChangeHook) bool {
	return trackOptional(e, field, value, func(a, b T) bool { return a == b }, name, hook)
}

// TrackOptionalTime is TrackOptional for instants.
func TrackOptionalTime(e *Entity, field **time.Time, value *time.Time, name string, hook ChangeHook) bool {
	return trackOptional(e, field, value, time.Time.Equal, name, hook)
}

func trackOptional[T any](e *Entity, field **T, value *T, equal func(a, b T) bool, name string, hook ChangeHook) bool {
	cur := *field
	switch {
	case cur == nil && value == nil:
		return false
	case cur != nil && value != nil && equal(*cur, *value):
		return false
	}
	if value == nil {
		*field = nil
	} else {
		v := *value
		*field = &v
	}
	e.markModified()
	if hook != nil {
		hook(name)
	}
	return true
}

// TrackSet synchronises *field with incoming using set semantics.
//
// Elements missing from incoming are removed, keeping the order of the
// survivors. Elements of incoming not yet present are appended in incoming
// order, each at most once. Duplicates already stored in *field are left as
// they are. The hook fires once, and only when the symmetric difference of
// the two collections is non-empty.
func TrackSet[T comparable](e *Entity, field *[]T, incoming []T, name string, hook ChangeHook) bool {
	existing := *field

	want := make(map[T]struct{}, len(incoming))
	for _, v := range incoming {
		want[v] = struct{}{}
	}
	have := make(map[T]struct{}, len(existing))
	for _, v := range existing {
		have[v] = struct{}{}
	}

	result := make([]T, 0, len(existing)+len(incoming))
	removed := 0
	for _, v := range existing {
		if _, ok := want[v]; !ok {
			removed++
			continue
		}
		result = append(result, v)
	}
	added := 0
	for _, v := range incoming {
		if _, ok := have[v]; ok {
			continue
		}
		have[v] = struct{}{}
		result = append(result, v)
		added++
	}

	if removed == 0 && added == 0 {
		return false
	}
	*field = result
	e.markModified()
	if hook != nil {
		hook(name)
	}
	return true
}
