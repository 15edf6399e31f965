package attendance

// recordKey identifies the (student, class, day) slot that duplicate events
// compete for.
type recordKey struct {
	studentID string
	classID   string
	date      string
}

// canonicalize picks exactly one event per (student, class, day) key: the one
// with the latest CreatedAt, ties broken by the highest ID. Every read path
// (day view, summary, dashboard, matrix) goes through this and nothing else,
// so duplicates from concurrent or corrective submissions resolve the same
// way everywhere.
func canonicalize(events []Event) map[recordKey]Event {
	canon := make(map[recordKey]Event, len(events))
	for _, evt := range events {
		key := recordKey{studentID: evt.StudentID, classID: evt.ClassID, date: evt.Date}
		cur, ok := canon[key]
		if !ok || supersedes(evt, cur) {
			canon[key] = evt
		}
	}
	return canon
}

// supersedes reports whether a wins over b for the same record key.
func supersedes(a, b Event) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
