// Package playback implements the playback admission gate: parental,
// entitlement and resource-conflict checks applied in fixed order before a
// playout request reaches the player.
package playback

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmcfet/promoUI-sub009/internal/bookmark"
	"github.com/jmcfet/promoUI-sub009/internal/metrics"
	"github.com/jmcfet/promoUI-sub009/internal/pin"
	"github.com/jmcfet/promoUI-sub009/internal/prefs"
)

// Gate decides whether a playback request may proceed and drives the
// playout once admitted.
type Gate struct {
	pins      pin.Prompter
	policy    ParentalPolicy
	resources ResourceChecker
	urls      URLBuilder
	purchases Purchaser
	tuner     Tuner
	player    Player
	bookmarks *bookmark.Decider
	prefs     *prefs.Store
	logger    zerolog.Logger
}

// Deps holds the gate's collaborators.
type Deps struct {
	Pins      pin.Prompter
	Policy    ParentalPolicy
	Resources ResourceChecker
	URLs      URLBuilder
	Purchases Purchaser
	Tuner     Tuner
	Player    Player
	Bookmarks *bookmark.Decider
	Prefs     *prefs.Store
	Logger    zerolog.Logger
}

// NewGate wires a Gate from its dependencies.
func NewGate(d Deps) *Gate {
	return &Gate{
		pins:      d.Pins,
		policy:    d.Policy,
		resources: d.Resources,
		urls:      d.URLs,
		purchases: d.Purchases,
		tuner:     d.Tuner,
		player:    d.Player,
		bookmarks: d.Bookmarks,
		prefs:     d.Prefs,
		logger:    d.Logger,
	}
}

// Admit runs the admission checks for a request, in fixed order: parental
// PIN for locked catch-up/start-over channels first, then the resource
// conflict check. A cancelled PIN returns ErrPinCancelled and nothing else
// runs; the flow ends silently. Failures are terminal for this attempt;
// the viewer must re-trigger playback.
func (g *Gate) Admit(ctx context.Context, req Request) error {
	if req.ContentType.IsBroadcastReplay() {
		locked, err := g.policy.IsChannelLocked(ctx, req.ServiceID, req.ParentalRating)
		if err != nil {
			metrics.RecordAdmission(req.ContentType.String(), "error")
			return newError(CodeSystem, fmt.Errorf("parental policy check: %w", err))
		}
		if locked {
			ok, err := g.pins.RequestPin(ctx, pin.KindParental)
			if err != nil {
				metrics.RecordAdmission(req.ContentType.String(), "error")
				return newError(CodeSystem, fmt.Errorf("pin prompt: %w", err))
			}
			if !ok {
				g.logger.Debug().
					Str("content", req.ContentID).
					Msg("admission abandoned, pin cancelled")
				metrics.RecordAdmission(req.ContentType.String(), "pin_cancelled")
				return ErrPinCancelled
			}
		}
	}

	if err := g.resources.CheckResources(ctx, ClassVODPlayback); err != nil {
		metrics.RecordAdmission(req.ContentType.String(), "resource_conflict")
		return newError(CodeResourceConflict, err)
	}

	metrics.RecordAdmission(req.ContentType.String(), "admitted")
	return nil
}

// PlayAsset resolves the playout URL for the entitlement and starts
// playback. The steps run strictly in order and short-circuit on the first
// failure: URL resolution, optional purchase confirmation, start-over
// preference handling, start-position decision, background tune, playout.
func (g *Gate) PlayAsset(ctx context.Context, asset Asset, entitlementID string, opts Options) error {
	url, err := g.urls.PlayoutURL(ctx, entitlementID)
	if err != nil {
		mapped := mapServiceError(err)
		metrics.RecordPlayout(asset.ContentType.String(), string(mapped.Code))
		return mapped
	}

	if opts.ConfirmPurchase {
		if err := g.purchases.ConfirmPurchase(ctx, entitlementID); err != nil {
			metrics.RecordPlayout(asset.ContentType.String(), string(CodeCannotCompletePurchase))
			return newError(CodeCannotCompletePurchase, err)
		}
	}

	if opts.StartOver {
		// Start-over streams must not carry the audio-description track
		// request; restore is the UI shell's responsibility.
		if err := g.prefs.SetBool(prefs.KeySendDescribe, false, false); err != nil {
			g.logger.Warn().Err(err).Msg("failed to disable send-describe preference")
		}
	}

	start, err := g.startPosition(ctx, asset, opts)
	if err != nil {
		metrics.RecordPlayout(asset.ContentType.String(), string(CodeOf(err)))
		return err
	}

	// Keep the background tuner on the asset's channel so leaving playback
	// lands on live TV without a fresh tune.
	if err := g.tuner.TuneToChannel(ctx, asset.ServiceID, true); err != nil {
		g.logger.Warn().Err(err).Int64("service", asset.ServiceID).Msg("background tune failed")
	}

	cfg := PlayoutConfig{
		URL:   url,
		Start: start,
		Asset: asset,
		OnComplete: func(ctx context.Context, position time.Duration) {
			if err := g.bookmarks.FinishPlayback(ctx, asset.ContentUID, position, asset.Duration); err != nil {
				g.logger.Warn().Err(err).Str("content", asset.ContentUID).Msg("bookmark update failed")
			}
		},
	}
	cfg.Retry = func(ctx context.Context) error {
		return g.player.RequestPlayout(ctx, cfg)
	}

	if err := g.player.RequestPlayout(ctx, cfg); err != nil {
		metrics.RecordPlayout(asset.ContentType.String(), string(CodeSystem))
		return newError(CodeSystem, err)
	}

	g.logger.Info().
		Str("content", asset.ContentUID).
		Str("type", asset.ContentType.String()).
		Dur("start", start).
		Msg("playout started")
	metrics.RecordPlayout(asset.ContentType.String(), "ok")
	return nil
}

func (g *Gate) startPosition(ctx context.Context, asset Asset, opts Options) (time.Duration, error) {
	if opts.FromStart {
		return 0, nil
	}
	start, err := g.bookmarks.Decide(ctx, asset.ContentUID, asset.ContentType)
	if err != nil {
		return 0, newError(CodeSystem, err)
	}
	return start, nil
}
