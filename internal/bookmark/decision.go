// Package bookmark decides whether playback resumes from a stored position
// or starts from zero, and whether a position qualifies for bookmarking at
// playback stop. The bookmark records themselves are owned by the remote
// entitlement service; this package only caches the last-fetched value for
// the duration of one playback-setup flow.
package bookmark

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmcfet/promoUI-sub009/internal/metrics"
	"github.com/jmcfet/promoUI-sub009/internal/types"
)

// PositionOffset compensates a known overshoot in upstream playback
// position reporting: positions are pulled back by this amount both when a
// bookmark is stored and when one is used as a resume point.
const PositionOffset = 10 * time.Second

// Service is the remote bookmark store consumed by the decision flow.
type Service interface {
	// GetBookmark returns the stored position for the content, 0 when none.
	GetBookmark(ctx context.Context, contentUID string) (time.Duration, error)
	SetBookmark(ctx context.Context, contentUID string, position time.Duration) error
	DeleteBookmark(ctx context.Context, contentUID string) error
}

// ResumePrompter presents the resume/restart choice to the viewer.
type ResumePrompter interface {
	// ChooseRestart returns true when the viewer picked "restart".
	ChooseRestart(ctx context.Context, position time.Duration) (bool, error)
}

// Bookmarkable reports whether a position may be bookmarked for content of
// the given duration. The trailing 4% of content never qualifies, so
// content watched to completion does not re-trigger resume prompts.
// The comparison is exact: position == 0.96*duration is not bookmarkable.
func Bookmarkable(position, duration time.Duration) bool {
	if duration <= 0 {
		return false
	}
	// position < 0.96*duration, in integer arithmetic (0.96 == 24/25).
	return 25*position < 24*duration
}

// AdjustPosition pulls a reported position back by PositionOffset, clamping
// at zero.
func AdjustPosition(raw time.Duration) time.Duration {
	if raw <= PositionOffset {
		return 0
	}
	return raw - PositionOffset
}

// Decider runs the resume-or-restart decision for one playback setup.
type Decider struct {
	svc    Service
	prompt ResumePrompter
	logger zerolog.Logger
}

// NewDecider wires a Decider.
func NewDecider(svc Service, prompt ResumePrompter, logger zerolog.Logger) *Decider {
	return &Decider{svc: svc, prompt: prompt, logger: logger}
}

// Decide returns the playback start position for the content. A stored
// nonzero bookmark prompts the viewer; choosing resume starts from the
// adjusted bookmark, choosing restart (or having no bookmark) starts from
// zero. No prompt is shown when the stored position is zero.
func (d *Decider) Decide(ctx context.Context, contentUID string, contentType types.ContentType) (time.Duration, error) {
	pos, err := d.svc.GetBookmark(ctx, contentUID)
	if err != nil {
		return 0, fmt.Errorf("fetch bookmark for %s: %w", contentUID, err)
	}
	if pos <= 0 {
		return 0, nil
	}

	restart, err := d.prompt.ChooseRestart(ctx, pos)
	if err != nil {
		return 0, err
	}
	if restart {
		d.logger.Debug().Str("content", contentUID).Msg("viewer chose restart")
		return 0, nil
	}

	start := AdjustPosition(pos)
	d.logger.Debug().
		Str("content", contentUID).
		Str("type", contentType.String()).
		Dur("stored", pos).
		Dur("start", start).
		Msg("resuming from bookmark")
	return start, nil
}

// FinishPlayback persists or deletes the bookmark when playback stops. A
// bookmarkable position is stored (offset-adjusted); a position in the
// trailing 4% deletes any stored bookmark so fully watched content does not
// accumulate stale resume points.
func (d *Decider) FinishPlayback(ctx context.Context, contentUID string, position, duration time.Duration) error {
	if Bookmarkable(position, duration) {
		stored := AdjustPosition(position)
		if err := d.svc.SetBookmark(ctx, contentUID, stored); err != nil {
			return fmt.Errorf("store bookmark for %s: %w", contentUID, err)
		}
		d.logger.Debug().Str("content", contentUID).Dur("position", stored).Msg("bookmark stored")
		metrics.RecordBookmark("store")
		return nil
	}

	if err := d.svc.DeleteBookmark(ctx, contentUID); err != nil {
		return fmt.Errorf("delete bookmark for %s: %w", contentUID, err)
	}
	d.logger.Debug().Str("content", contentUID).Msg("bookmark deleted, watched to end")
	metrics.RecordBookmark("delete")
	return nil
}
