package common

// ListingCacheKey is the single cache key under which note listings are kept.
// Every successful note mutation invalidates it.
const ListingCacheKey = "notes"

// NotesChannel is the broadcast channel lifecycle events are published on.
const NotesChannel = "notes"

const (
	// MinNoteFieldLength is the minimum trimmed length of a note title or content.
	MinNoteFieldLength = 5

	DefaultPage    = 1
	DefaultPerPage = 5
	MaxPerPage     = 100
)
