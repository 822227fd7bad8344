package portal

import (
	"fmt"

	central "github.com/geekforce/central.go"
	"github.com/geekforce/central.go/pkg/models"
	"github.com/geekforce/central.go/pkg/status"
)

// AddEvent dispatches a calendar event. The creator is stamped from
// the session; an event needs a title and at least one attendee.
func (p *Portal) AddEvent(event models.CalendarEvent) (central.DocRef, error) {
	user, err := p.requireUser()
	if err != nil {
		return central.DocRef{}, err
	}
	if event.Title == "" {
		return central.DocRef{}, fmt.Errorf("%w: event title is required", status.ErrInvalidArgument)
	}
	if len(event.AttendeeIDs) == 0 {
		return central.DocRef{}, fmt.Errorf("%w: at least one attendee is required", status.ErrInvalidArgument)
	}

	attendees := make([]string, len(event.AttendeeIDs))
	copy(attendees, event.AttendeeIDs)

	return p.client.EnqueueCreate(central.Collection(models.CollectionEvents), central.Fields{
		"title":       event.Title,
		"description": event.Description,
		"startTime":   event.StartTime,
		"endTime":     event.EndTime,
		"attendeeIds": attendees,
		"createdBy":   user.UID,
	})
}

// WatchEvents feeds the calendar page, earliest event first.
func (p *Portal) WatchEvents(fn func(View[models.CalendarEvent])) (central.Unsubscribe, error) {
	q := central.Query{Collection: models.CollectionEvents}.SortBy("startTime", central.Asc)
	return watch[models.CalendarEvent](p, q, fn)
}

// WatchMemberEvents feeds a single member's schedule: events whose
// attendee list contains the member.
func (p *Portal) WatchMemberEvents(memberID string, fn func(View[models.CalendarEvent])) (central.Unsubscribe, error) {
	q := central.Query{Collection: models.CollectionEvents}.
		Where("attendeeIds", central.OpArrayContains, memberID).
		SortBy("startTime", central.Asc)
	return watch[models.CalendarEvent](p, q, fn)
}
