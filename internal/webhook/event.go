package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EventCustomerCreated is the only event type the service acts on.
const EventCustomerCreated = "customer.created"

var (
	// ErrMalformedEvent is returned for bodies that are not a valid event.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrUnsupportedEvent is returned for event types the service ignores.
	ErrUnsupportedEvent = errors.New("unsupported event type")
)

// EventUser is the account carried by a customer event.
type EventUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

// Event is an inbound platform event.
type Event struct {
	ID        string    `json:"event_id"`
	Type      string    `json:"event_type"`
	User      EventUser `json:"user"`
	CreatedAt string    `json:"created_at,omitempty"`
}

// ParseEvent decodes and validates an event body.
func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if ev.Type != EventCustomerCreated {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEvent, ev.Type)
	}

	ev.User.ID = strings.TrimSpace(ev.User.ID)
	ev.User.Email = strings.TrimSpace(ev.User.Email)
	if ev.User.ID == "" || ev.User.Email == "" {
		return nil, fmt.Errorf("%w: user id and email are required", ErrMalformedEvent)
	}

	return &ev, nil
}
