// Package events publishes what happened on the platform to interested consumers.
package events

import (
	"context"
	"time"
)

const (
	VideoPublished      = "video.published"
	VideoDeleted        = "video.deleted"
	LikeToggled         = "like.toggled"
	SubscriptionToggled = "subscription.toggled"
)

// Event is a single fact. ActorID is the user that caused it, SubjectID the
// record it is about.
type Event struct {
	Type      string            `json:"type"`
	ActorID   string            `json:"actorId"`
	SubjectID string            `json:"subjectId"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	At        time.Time         `json:"at"`
}

// New returns an Event stamped with the current time.
func New(typ, actorID, subjectID string, attrs map[string]string) Event {
	return Event{Type: typ, ActorID: actorID, SubjectID: subjectID, Attrs: attrs, At: time.Now().UTC()}
}

// Publisher delivers events. Publishing is best effort: a failed publish
// never undoes the change the event describes.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types returns the types of the recorded events in order.
func (r *Recorder) Types() []string {
	types := make([]string, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}
