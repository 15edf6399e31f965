package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_supersedes(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b Event
		want bool
	}{
		{
			name: "later creation wins",
			a:    Event{ID: "a", CreatedAt: base.Add(time.Second)},
			b:    Event{ID: "z", CreatedAt: base},
			want: true,
		},
		{
			name: "earlier creation loses",
			a:    Event{ID: "z", CreatedAt: base},
			b:    Event{ID: "a", CreatedAt: base.Add(time.Second)},
			want: false,
		},
		{
			name: "equal creation falls back to higher id",
			a:    Event{ID: "b", CreatedAt: base},
			b:    Event{ID: "a", CreatedAt: base},
			want: true,
		},
		{
			name: "equal creation lower id loses",
			a:    Event{ID: "a", CreatedAt: base},
			b:    Event{ID: "b", CreatedAt: base},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, supersedes(tt.a, tt.b))
		})
	}
}

func Test_canonicalize(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: "e1", StudentID: "s1", ClassID: "c1", Date: "2026-03-10", IsPresent: true, CreatedAt: base},
		{ID: "e2", StudentID: "s1", ClassID: "c1", Date: "2026-03-10", IsPresent: false, CreatedAt: base.Add(time.Minute)},
		{ID: "e3", StudentID: "s2", ClassID: "c1", Date: "2026-03-10", IsPresent: true, CreatedAt: base},
		{ID: "e4", StudentID: "s1", ClassID: "c1", Date: "2026-03-11", IsPresent: true, CreatedAt: base},
	}

	canon := canonicalize(events)
	assert.Len(t, canon, 3)
	assert.Equal(t, "e2", canon[recordKey{studentID: "s1", classID: "c1", date: "2026-03-10"}].ID)
	assert.Equal(t, "e3", canon[recordKey{studentID: "s2", classID: "c1", date: "2026-03-10"}].ID)
	assert.Equal(t, "e4", canon[recordKey{studentID: "s1", classID: "c1", date: "2026-03-11"}].ID)

	// insertion order does not matter
	reversed := []Event{events[3], events[2], events[1], events[0]}
	assert.Equal(t, canon, canonicalize(reversed))
}
