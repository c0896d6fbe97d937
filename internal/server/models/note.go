package models

import "time"

type Note struct {
	ID            string       `json:"_id"`
	Title         string       `json:"title"`
	Content       string       `json:"content"`
	ImageURL      string       `json:"imageUrl,omitempty"`
	CreatorID     string       `json:"-"`
	Creator       *UserSummary `json:"creator,omitempty"`
	NoteHistoryID *string      `json:"noteHistory,omitempty"`
	History       *NoteHistory `json:"history,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// HasImage reports whether an image reference is attached.
func (n *Note) HasImage() bool {
	return n.ImageURL != ""
}

// NotePage is one page of a listing or search result.
type NotePage struct {
	Notes       []*Note `json:"notes"`
	TotalItems  int     `json:"totalItems"`
	CurrentPage int     `json:"currentPage"`
	HasNext     bool    `json:"hasNext"`
}
