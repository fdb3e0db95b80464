package store

import "time"

// Period is the stored document for one calendar month: one interval
// record per line.
type Period struct {
	Key       string // 2006-01
	Content   string
	UpdatedAt time.Time
}

type Setting struct {
	Key   string
	Value string
}
