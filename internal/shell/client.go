// Package shell is the callback client towards the on-device UI shell.
// Everything the coordination core cannot do headlessly lives behind it:
// PIN and resume dialogs, task alerts, the tuner, the player and the
// power state.
package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmcfet/promoUI-sub009/internal/pin"
	"github.com/jmcfet/promoUI-sub009/internal/playback"
	"github.com/jmcfet/promoUI-sub009/internal/reminder"
)

// Client talks to the UI shell's callback API. It implements
// pin.Prompter, bookmark.ResumePrompter, reminder.Dialoger,
// reminder.Tuner, reminder.Power, playback.Tuner, playback.Player,
// playback.ParentalPolicy and navigation.RatingPolicy.
type Client struct {
	base string
	http *http.Client
}

// New builds a client for the shell at base. Dialog calls block until
// the viewer answers, so no fixed client timeout is set; callers bound
// dialogs through their context.
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{},
	}
}

// NewWithHTTPClient is New with a caller-supplied http.Client.
func NewWithHTTPClient(base string, hc *http.Client) *Client {
	c := New(base)
	if hc != nil {
		c.http = hc
	}
	return c
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("shell: encode %s: %w", path, err)
		}
		rd = bytes.NewReader(raw)
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("shell: %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		io.Copy(io.Discard, res.Body)
		return fmt.Errorf("shell: %s: HTTP %d", path, res.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("shell: %s: decode: %w", path, err)
	}
	return nil
}

// RequestPin shows the PIN dialog for the given policy kind. The dialog
// blocks until answered or ctx expires.
func (c *Client) RequestPin(ctx context.Context, kind pin.Kind) (bool, error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.post(ctx, "/shell/pin", map[string]string{"kind": string(kind)}, &out)
	if err != nil {
		return false, err
	}
	return out.OK, nil
}

// ChooseRestart shows the resume/restart prompt for a stored bookmark.
func (c *Client) ChooseRestart(ctx context.Context, position time.Duration) (bool, error) {
	var out struct {
		Restart bool `json:"restart"`
	}
	body := map[string]int64{"positionSeconds": int64(position / time.Second)}
	if err := c.post(ctx, "/shell/resume", body, &out); err != nil {
		return false, err
	}
	return out.Restart, nil
}

// ShowTaskAlert presents a fired reminder or auto-tune, returning the
// viewer's choice. A ctx deadline expiring surfaces as the deadline
// error so the caller can apply its timeout default.
func (c *Client) ShowTaskAlert(ctx context.Context, alert reminder.Alert) (reminder.Action, error) {
	var out struct {
		Action reminder.Action `json:"action"`
	}
	if err := c.post(ctx, "/shell/task-alert", alert, &out); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return out.Action, nil
}

// TuneToChannel tunes the box; background keeps the current UI surface.
func (c *Client) TuneToChannel(ctx context.Context, serviceID int64, background bool) error {
	body := map[string]any{"serviceId": serviceID, "background": background}
	return c.post(ctx, "/shell/tune", body, nil)
}

// RequestPlayout starts a playout. Completion is reported back on the
// control API by the shell; the callback in cfg is not serialized.
func (c *Client) RequestPlayout(ctx context.Context, cfg playback.PlayoutConfig) error {
	body := map[string]any{
		"url":          cfg.URL,
		"startSeconds": int64(cfg.Start / time.Second),
		"asset":        cfg.Asset,
	}
	return c.post(ctx, "/shell/play", body, nil)
}

// Standby reports whether the box is in standby. Transport failures read
// as awake so alerts still proceed.
func (c *Client) Standby() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out struct {
		Standby bool `json:"standby"`
	}
	if err := c.post(ctx, "/shell/power/state", nil, &out); err != nil {
		return false
	}
	return out.Standby
}

// Wake brings the box out of standby.
func (c *Client) Wake(ctx context.Context) error {
	return c.post(ctx, "/shell/power/wake", nil, nil)
}

// IsChannelLocked answers the parental lock check for a service at a
// programme rating, from the shell's viewer settings.
func (c *Client) IsChannelLocked(ctx context.Context, serviceID int64, rating int) (bool, error) {
	var out struct {
		Locked bool `json:"locked"`
	}
	body := map[string]any{"serviceId": serviceID, "rating": rating}
	if err := c.post(ctx, "/shell/parental/channel", body, &out); err != nil {
		return false, err
	}
	return out.Locked, nil
}

// IsRatingLocked answers whether a bare programme rating is locked.
func (c *Client) IsRatingLocked(ctx context.Context, rating int) (bool, error) {
	var out struct {
		Locked bool `json:"locked"`
	}
	if err := c.post(ctx, "/shell/parental/rating", map[string]int{"rating": rating}, &out); err != nil {
		return false, err
	}
	return out.Locked, nil
}
