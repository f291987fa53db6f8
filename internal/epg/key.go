package epg

import (
	"fmt"
	"regexp"
	"strings"
)

// EventKey is the canonical cache key for a programme event. Events may be
// referenced both before and after their guide data resolves, so the key is
// derived exactly once here: the server-side unique ID when present,
// otherwise a synthetic key from the raw service and event numbers. Both
// reference paths agree on the resulting key.
type EventKey string

var keyCleaner = regexp.MustCompile(`[^a-z0-9.\-_]+`)

// KeyForEvent derives the canonical key for an event.
func KeyForEvent(e Event) EventKey {
	if e.UniqueID != "" {
		return EventKey(normalizeUniqueID(e.UniqueID))
	}
	return KeyForRawIDs(e.ServiceID, e.EventID)
}

// KeyForRawIDs derives the fallback key used when no unique event ID has
// been resolved yet.
func KeyForRawIDs(serviceID, eventID int64) EventKey {
	return EventKey(fmt.Sprintf("svc.%d.ev.%d", serviceID, eventID))
}

// normalizeUniqueID lowercases the ID and collapses runs of separators and
// unsupported characters to single dots, so upstream formatting variations
// (CRIDs arrive with mixed case and slashes) cannot split cache entries.
func normalizeUniqueID(id string) string {
	s := strings.ToLower(strings.TrimSpace(id))
	s = keyCleaner.ReplaceAllString(s, ".")
	return strings.Trim(s, ".")
}
