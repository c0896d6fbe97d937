package models

// User is a registered account. Password holds the bcrypt hash, never the
// plain text. NoteIDs lists the notes the user created, in creation order.
type User struct {
	ID       string
	Email    string
	Name     string
	Password string
	Bio      string
	NoteIDs  []string
}

// DefaultBio is assigned to users who did not provide one.
const DefaultBio = "I am new!"

// UserSummary is the public projection of a User attached to notes.
type UserSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}
