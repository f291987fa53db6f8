// Package traxis is the HTTP client for the SDP/Traxis back end:
// entitlements, playout URLs, purchases, per-account bookmarks and the
// content catalogue.
package traxis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmcfet/promoUI-sub009/internal/navigation"
)

// StatusError carries the upstream HTTP status so callers can fold
// failures into their own taxonomies.
type StatusError struct {
	Operation string
	Status    int
	Body      string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("traxis: %s: HTTP %d", e.Operation, e.Status)
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	return msg
}

// HTTPStatus returns the upstream status code.
func (e *StatusError) HTTPStatus() int {
	return e.Status
}

// Client talks to the Traxis API for one account. It implements
// bookmark.Service, playback.URLBuilder, playback.Purchaser and
// navigation.ContentSource.
type Client struct {
	base    string
	account string
	http    *http.Client
}

// New builds a client for the given base URL and account id.
func New(base, account string) *Client {
	return &Client{
		base:    strings.TrimRight(base, "/"),
		account: account,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWithHTTPClient is New with a caller-supplied http.Client.
func NewWithHTTPClient(base, account string, hc *http.Client) *Client {
	c := New(base, account)
	if hc != nil {
		c.http = hc
	}
	return c
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	req.Header.Set("X-Account", c.account)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("traxis: %s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return readStatusErr(op, res)
	}
	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("traxis: %s: decode: %w", op, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, op, method, path string, body any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("traxis: %s: encode: %w", op, err)
		}
		rd = bytes.NewReader(raw)
	}
	req, _ := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	req.Header.Set("X-Account", c.account)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("traxis: %s: %w", op, err)
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	switch res.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	default:
		return &StatusError{Operation: op, Status: res.StatusCode}
	}
}

func readStatusErr(op string, res *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return &StatusError{Operation: op, Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
}

// PlayoutURL resolves the playout locator for an entitlement. 403 and 404
// pass through as StatusError for the admission taxonomy.
func (c *Client) PlayoutURL(ctx context.Context, entitlementID string) (string, error) {
	var p struct {
		URL string `json:"url"`
	}
	path := "/traxis/entitlements/" + url.PathEscape(entitlementID) + "/playout"
	if err := c.get(ctx, "playoutURL", path, &p); err != nil {
		return "", err
	}
	if p.URL == "" {
		return "", fmt.Errorf("traxis: playoutURL: empty locator for %s", entitlementID)
	}
	return p.URL, nil
}

// GetEntitlementForCatchUp resolves the entitlement id for a broadcast
// replay of the given event on the given channel.
func (c *Client) GetEntitlementForCatchUp(ctx context.Context, serviceID, eventID int64) (string, error) {
	var p struct {
		EntitlementID string `json:"entitlementId"`
	}
	path := fmt.Sprintf("/traxis/catchup/%d/%d/entitlement", serviceID, eventID)
	if err := c.get(ctx, "catchUpEntitlement", path, &p); err != nil {
		return "", err
	}
	return p.EntitlementID, nil
}

// ConfirmPurchase completes a pending purchase for the entitlement.
func (c *Client) ConfirmPurchase(ctx context.Context, entitlementID string) error {
	path := "/traxis/entitlements/" + url.PathEscape(entitlementID) + "/purchase"
	return c.send(ctx, "confirmPurchase", http.MethodPost, path, nil)
}

// GetBookmark returns the stored position for the content, 0 when the
// account has none.
func (c *Client) GetBookmark(ctx context.Context, contentUID string) (time.Duration, error) {
	var p struct {
		PositionSeconds int64 `json:"positionSeconds"`
	}
	path := "/traxis/bookmarks/" + url.PathEscape(contentUID)
	err := c.get(ctx, "getBookmark", path, &p)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return 0, nil
		}
		return 0, err
	}
	return time.Duration(p.PositionSeconds) * time.Second, nil
}

// SetBookmark stores the position for the content.
func (c *Client) SetBookmark(ctx context.Context, contentUID string, position time.Duration) error {
	body := map[string]int64{"positionSeconds": int64(position / time.Second)}
	path := "/traxis/bookmarks/" + url.PathEscape(contentUID)
	return c.send(ctx, "setBookmark", http.MethodPut, path, body)
}

// DeleteBookmark removes the stored position. Deleting an absent bookmark
// succeeds.
func (c *Client) DeleteBookmark(ctx context.Context, contentUID string) error {
	path := "/traxis/bookmarks/" + url.PathEscape(contentUID)
	err := c.send(ctx, "deleteBookmark", http.MethodDelete, path, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return nil
	}
	return err
}

// Root lists the catalogue's top-level nodes.
func (c *Client) Root(ctx context.Context) ([]navigation.Node, error) {
	var p struct {
		Nodes []navigation.Node `json:"nodes"`
	}
	if err := c.get(ctx, "root", "/traxis/catalogue/root", &p); err != nil {
		return nil, err
	}
	return p.Nodes, nil
}

// Children lists a node's direct children.
func (c *Client) Children(ctx context.Context, nodeID string) ([]navigation.Node, error) {
	var p struct {
		Nodes []navigation.Node `json:"nodes"`
	}
	path := "/traxis/catalogue/nodes/" + url.PathEscape(nodeID) + "/children"
	if err := c.get(ctx, "children", path, &p); err != nil {
		return nil, err
	}
	return p.Nodes, nil
}

// AssetByUID resolves a server-side unique asset id; unknown ids map to
// navigation.ErrAssetNotFound.
func (c *Client) AssetByUID(ctx context.Context, uid string) (navigation.Node, error) {
	var node navigation.Node
	path := "/traxis/catalogue/assets/" + url.PathEscape(uid)
	err := c.get(ctx, "assetByUID", path, &node)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return navigation.Node{}, fmt.Errorf("asset %q: %w", uid, navigation.ErrAssetNotFound)
		}
		return navigation.Node{}, err
	}
	return node, nil
}
