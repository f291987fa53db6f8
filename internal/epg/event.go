// Package epg holds the programme-event model consumed by the reminder and
// navigation flows, and the canonical cache-key derivation for events.
package epg

import (
	"time"
)

// Event is a single programme on a broadcast service. UniqueID is the
// server-side event identifier; it is empty until guide data for the event
// has been resolved, which can happen after the event is first referenced.
type Event struct {
	EventID        int64     `json:"eventId"`
	ServiceID      int64     `json:"serviceId"`
	UniqueID       string    `json:"uniqueId,omitempty"`
	Title          string    `json:"title"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	ParentalRating int       `json:"parentalRating"`
}

// Duration returns the scheduled length of the event.
func (e Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// IsAiring reports whether the event is on air at the given instant.
func (e Event) IsAiring(now time.Time) bool {
	return !now.Before(e.StartTime) && now.Before(e.EndTime)
}
