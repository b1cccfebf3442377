package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackFieldEqualValueIsNoop(t *testing.T) {
	var e Entity
	name := "basil"
	calls := 0

	changed := TrackField(&e, &name, "basil", "Name", func(string) { calls++ })

	assert.False(t, changed)
	assert.False(t, e.IsModified())
	assert.Zero(t, calls)
}

func TestTrackFieldChangeCallsHookOnce(t *testing.T) {
	var e Entity
	name := "basil"
	var fields []string

	changed := TrackField(&e, &name, "thai basil", "Name", func(f string) { fields = append(fields, f) })

	assert.True(t, changed)
	assert.True(t, e.IsModified())
	assert.Equal(t, "thai basil", name)
	assert.Equal(t, []string{"Name"}, fields)
}

func TestTrackTimeIgnoresLocation(t *testing.T) {
	var e Entity
	utc := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	field := utc
	local := utc.In(time.FixedZone("EST", -5*3600))

	assert.False(t, TrackTime(&e, &field, local, "StartDate", nil))
	assert.False(t, e.IsModified())
}

func TestTrackOptional(t *testing.T) {
	one, two := 1, 2
	tests := []struct {
		name    string
		current *int
		value   *int
		changed bool
	}{
		{"nil to nil", nil, nil, false},
		{"nil to value", nil, &one, true},
		{"value to nil", &one, nil, true},
		{"same value", &one, &one, false},
		{"equal value different pointer", &one, func() *int { v := 1; return &v }(), false},
		{"different value", &one, &two, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var e Entity
			field := tc.current
			got := TrackOptional(&e, &field, tc.value, "Field", nil)
			assert.Equal(t, tc.changed, got)
			assert.Equal(t, tc.changed, e.IsModified())
			if tc.value == nil {
				assert.Nil(t, field)
			} else {
				require.NotNil(t, field)
				assert.Equal(t, *tc.value, *field)
			}
		})
	}
}

func TestTrackOptionalDoesNotAlias(t *testing.T) {
	var e Entity
	var field *int
	v := 3
	TrackOptional(&e, &field, &v, "Field", nil)
	v = 4
	assert.Equal(t, 3, *field)
}

func TestTrackSet(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		incoming []string
		want     []string
		changed  bool
	}{
		{"replace one", []string{"A", "B"}, []string{"B", "C"}, []string{"B", "C"}, true},
		{"equal sets", []string{"A", "B"}, []string{"B", "A"}, []string{"A", "B"}, false},
		{"incoming duplicates appended once", []string{"A"}, []string{"A", "C", "C"}, []string{"A", "C"}, true},
		{"existing duplicates untouched", []string{"A", "A", "B"}, []string{"A", "B"}, []string{"A", "A", "B"}, false},
		{"remove all", []string{"A", "B"}, nil, []string{}, true},
		{"empty to empty", nil, nil, nil, false},
		{"survivor order kept", []string{"C", "A", "B"}, []string{"B", "C", "D"}, []string{"C", "B", "D"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var e Entity
			field := tc.existing
			var fields []string

			got := TrackSet(&e, &field, tc.incoming, "Tags", func(f string) { fields = append(fields, f) })

			assert.Equal(t, tc.changed, got)
			assert.Equal(t, tc.changed, e.IsModified())
			assert.Equal(t, tc.want, field)
			if tc.changed {
				assert.Equal(t, []string{"Tags"}, fields)
			} else {
				assert.Empty(t, fields)
			}
		})
	}
}
