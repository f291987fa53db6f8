// Package types provides type-safe enumerations shared across the
// coordination core.
//
// This package centralizes typed constants and state types to prevent
// string-based bugs and enable exhaustive switch statements.
package types

import (
	"encoding/json"
	"fmt"
)

// ContentType classifies a playback request.
type ContentType string

const (
	// ContentVOD is on-demand content played from the VOD catalogue.
	ContentVOD ContentType = "vod"

	// ContentCatchUp is broadcast content replayed after transmission.
	ContentCatchUp ContentType = "catchup"

	// ContentStartOver is broadcast content restarted while still airing.
	ContentStartOver ContentType = "startover"
)

// String implements fmt.Stringer.
func (c ContentType) String() string {
	return string(c)
}

// IsValid checks whether the content type is one of the defined constants.
func (c ContentType) IsValid() bool {
	switch c {
	case ContentVOD, ContentCatchUp, ContentStartOver:
		return true
	default:
		return false
	}
}

// IsBroadcastReplay reports whether the content type replays a broadcast
// service (catch-up or start-over). These are the types subject to
// channel-level parental locks.
func (c ContentType) IsBroadcastReplay() bool {
	return c == ContentCatchUp || c == ContentStartOver
}

// MarshalJSON implements json.Marshaler.
func (c ContentType) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(c))
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ContentType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	ct := ContentType(str)
	if !ct.IsValid() {
		return fmt.Errorf("invalid content type: %q", str)
	}
	*c = ct
	return nil
}

// ParseContentType parses a string into a ContentType.
func ParseContentType(s string) (ContentType, error) {
	ct := ContentType(s)
	if !ct.IsValid() {
		return "", fmt.Errorf("invalid content type: %q (valid: vod, catchup, startover)", s)
	}
	return ct, nil
}
