package library

import (
	"time"

	"github.com/google/uuid"
)

// EventType names something that happened at the desk.
type EventType string

const (
	EventItemAdded        EventType = "ItemAdded"
	EventPersonRegistered EventType = "PersonRegistered"
	EventItemCheckedOut   EventType = "ItemCheckedOut"
	EventItemReturned     EventType = "ItemReturned"
	EventCheckoutFailed   EventType = "CheckoutFailed"
	EventReturnFailed     EventType = "ReturnFailed"
)

// Event is emitted by the Registry after every mutation attempt. Failed
// attempts carry the Reason and change nothing.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	ItemKind   string    `json:"item_kind,omitempty"`
	ItemID     string    `json:"item_id,omitempty"`
	PersonID   string    `json:"person_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Failed reports whether the event records a rejected operation.
func (e Event) Failed() bool { return e.Reason != "" }

// Recorder receives registry events. Record is called while the registry lock
// is held, so implementations must not call back into the Registry.
type Recorder interface {
	Record(Event)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Event)

func (f RecorderFunc) Record(e Event) { f(e) }

type multiRecorder []Recorder

func (m multiRecorder) Record(e Event) {
	for _, r := range m {
		r.Record(e)
	}
}

// Recorders fans an event out to every non-nil recorder in order.
func Recorders(rs ...Recorder) Recorder {
	out := make(multiRecorder, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func newEvent(t EventType, at time.Time) Event {
	return Event{ID: uuid.New(), Type: t, OccurredAt: at}
}
