package api

import (
	"sort"
	"time"
)

// SortTasksNewestFirst orders tasks by CreatedAt descending, breaking ties by ID descending.
func SortTasksNewestFirst(tasks []Task) []Task {
	if len(tasks) == 0 {
		return nil
	}
	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti := ParseTime(sorted[i].CreatedAt)
		tj := ParseTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})
	return sorted
}

// ParseTime parses an API timestamp, returning the zero time when it is
// empty or malformed.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
