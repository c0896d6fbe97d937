// Package events delivers note lifecycle notifications to subscribers.
package events

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event is one lifecycle notification. Create and update events carry the
// note; delete events carry only its id.
type Event struct {
	Action Action
	Note   *models.Note
	NoteID string
}

func Created(n *models.Note) Event { return Event{Action: ActionCreate, Note: n} }
func Updated(n *models.Note) Event { return Event{Action: ActionUpdate, Note: n} }
func Deleted(id string) Event      { return Event{Action: ActionDelete, NoteID: id} }

// Publisher is the notification sink. Publishing is fire-and-forget: an
// error means the event was not handed off and is only worth logging.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type message struct {
	Channel string `json:"channel"`
	Action  Action `json:"action"`
	Note    any    `json:"note"`
}

// Encode renders e in its wire form:
// {"channel": ..., "action": ..., "note": <note object or id>}.
func Encode(channel string, e Event) ([]byte, error) {
	m := message{Channel: channel, Action: e.Action}
	if e.Action == ActionDelete {
		m.Note = e.NoteID
	} else {
		m.Note = e.Note
	}
	return json.Marshal(m)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
