package playback

import (
	"context"
	"time"

	"github.com/jmcfet/promoUI-sub009/internal/types"
)

// Request describes one user playback action. It is immutable once handed
// to the gate and discarded after playback starts or the flow is rejected.
type Request struct {
	ContentID      string            `json:"contentId"`
	ContentType    types.ContentType `json:"contentType"`
	ServiceID      int64             `json:"serviceId"`
	StartTime      time.Time         `json:"startTime"`
	EndTime        time.Time         `json:"endTime"`
	ParentalRating int               `json:"parentalRating"`
	EntitlementID  string            `json:"entitlementId,omitempty"`
}

// Asset is the playable content resolved for a request.
type Asset struct {
	ContentUID  string            `json:"contentUid"`
	ServiceID   int64             `json:"serviceId"`
	Title       string            `json:"title"`
	Duration    time.Duration     `json:"duration"`
	ContentType types.ContentType `json:"contentType"`
}

// Options steer PlayAsset.
type Options struct {
	// ConfirmPurchase sends a purchase confirmation to the entitlement
	// service before playout starts.
	ConfirmPurchase bool `json:"confirmPurchase,omitempty"`
	// FromStart plays from position zero regardless of stored bookmarks.
	FromStart bool `json:"fromStart,omitempty"`
	// StartOver marks a start-over playout; the send-describe preference
	// is disabled before playing.
	StartOver bool `json:"startOver,omitempty"`
}

// ConflictClass names a resource-conflict check category.
type ConflictClass string

// ClassVODPlayback is the conflict class checked before any on-demand or
// replay playout (tuner and decoder contention with active recordings).
const ClassVODPlayback ConflictClass = "vod_playback"

// ParentalPolicy answers whether a service is locked for the viewer at a
// given programme rating.
type ParentalPolicy interface {
	IsChannelLocked(ctx context.Context, serviceID int64, rating int) (bool, error)
}

// ResourceChecker runs the middleware resource-conflict check.
type ResourceChecker interface {
	CheckResources(ctx context.Context, class ConflictClass) error
}

// URLBuilder resolves a playout URL from an entitlement.
type URLBuilder interface {
	PlayoutURL(ctx context.Context, entitlementID string) (string, error)
}

// Purchaser confirms purchases against the entitlement service.
type Purchaser interface {
	ConfirmPurchase(ctx context.Context, entitlementID string) error
}

// Tuner drives the background tuner.
type Tuner interface {
	TuneToChannel(ctx context.Context, serviceID int64, background bool) error
}

// PlayoutConfig is handed to the player for one playout.
type PlayoutConfig struct {
	URL   string
	Start time.Duration
	Asset Asset

	// OnComplete fires when playback stops, with the final position. The
	// gate uses it to persist or delete the bookmark.
	OnComplete func(ctx context.Context, position time.Duration)

	// Retry re-opens the same playout; the error dialog offers it to the
	// viewer. This is the single user-driven retry in the system, never an
	// automatic one.
	Retry func(ctx context.Context) error
}

// Player starts playouts.
type Player interface {
	RequestPlayout(ctx context.Context, cfg PlayoutConfig) error
}
