package ccom

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmcfet/promoUI-sub009/internal/reminder"
)

// EventHandler consumes scheduler notifications. reminder.Manager
// satisfies it.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev reminder.Event)
}

// Pump long-polls the scheduler's event stream and feeds every
// notification to the handler. One pump runs per daemon; the cursor makes
// reconnects resume where the last poll stopped.
type Pump struct {
	client  *Client
	handler EventHandler
	logger  zerolog.Logger

	// http is a dedicated client without a fixed timeout: long-polls are
	// bounded per request by pollTimeout instead.
	http        *http.Client
	pollTimeout time.Duration
	retryDelay  time.Duration

	cursor int64
}

// NewPump wires a pump onto the client's event stream.
func NewPump(client *Client, handler EventHandler, logger zerolog.Logger) *Pump {
	return &Pump{
		client:      client,
		handler:     handler,
		logger:      logger.With().Str("component", "ccom-pump").Logger(),
		http:        &http.Client{},
		pollTimeout: 30 * time.Second,
		retryDelay:  2 * time.Second,
	}
}

// Run polls until ctx is cancelled. Poll failures are logged and retried
// after a short delay; Run only returns the ctx error.
func (p *Pump) Run(ctx context.Context) error {
	p.logger.Info().Msg("event pump started")
	for {
		events, next, err := p.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info().Msg("event pump stopped")
				return ctx.Err()
			}
			p.logger.Warn().Err(err).Msg("event poll failed")
			select {
			case <-time.After(p.retryDelay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		p.cursor = next
		for _, ev := range events {
			p.handler.HandleEvent(ctx, ev)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// poll issues one long-poll request. The server holds the request open
// until events arrive or its own timeout passes, answering an empty batch
// in the latter case.
func (p *Pump) poll(ctx context.Context) ([]reminder.Event, int64, error) {
	pollCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()

	u := p.client.base + "/ccom/events?cursor=" + strconv.FormatInt(p.cursor, 10)
	req, _ := http.NewRequestWithContext(pollCtx, http.MethodGet, u, nil)

	res, err := p.http.Do(req)
	if err != nil {
		return nil, 0, &SchedulerError{Sentinel: ErrUnavailable, Operation: "pollEvents", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, 0, statusErr("pollEvents", res)
	}

	var payload struct {
		Cursor int64            `json:"cursor"`
		Events []reminder.Event `json:"events"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, 0, &SchedulerError{Sentinel: ErrBadResponse, Operation: "pollEvents", Err: err}
	}
	return payload.Events, payload.Cursor, nil
}
