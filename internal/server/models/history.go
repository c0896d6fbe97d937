package models

import "time"

// NoteHistory is the append-only revision log of a single note. Entries are
// ordered by position; the first revision of a note stores the new version
// followed by the version it replaced.
type NoteHistory struct {
	ID      string         `json:"_id"`
	History []HistoryEntry `json:"history"`
}

// HistoryEntry is one immutable snapshot of a note's title and content.
type HistoryEntry struct {
	Date    time.Time `json:"date"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
}
