// Package ccom is the HTTP client for the CCOM middleware: the external
// job scheduler behind reminders and auto-tunes, and the resource broker
// consulted before playouts.
package ccom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmcfet/promoUI-sub009/internal/playback"
	"github.com/jmcfet/promoUI-sub009/internal/reminder"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound    = errors.New("ccom: job not found")
	ErrUnavailable = errors.New("ccom: host unreachable or transport failure")
	ErrUpstream    = errors.New("ccom: internal error (5xx)")
	ErrBadResponse = errors.New("ccom: malformed response")
	ErrConflict    = errors.New("ccom: resource conflict")
)

// SchedulerError wraps the sentinels with request context.
type SchedulerError struct {
	Sentinel  error
	Operation string
	Status    int
	Err       error
}

func (e *SchedulerError) Error() string {
	msg := fmt.Sprintf("ccom: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SchedulerError) Unwrap() error {
	return e.Sentinel
}

// Client talks to the CCOM scheduler API. It implements
// reminder.Scheduler and playback.ResourceChecker.
type Client struct {
	base string
	http *http.Client
}

// New builds a client for the given base URL.
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWithHTTPClient is New with a caller-supplied http.Client, used by
// tests and by the daemon when it shares a transport.
func NewWithHTTPClient(base string, hc *http.Client) *Client {
	c := New(base)
	if hc != nil {
		c.http = hc
	}
	return c
}

// AddJob submits a job. The scheduler answers synchronously with a
// correlation handle only; the add-job outcome arrives later on the event
// stream.
func (c *Client) AddJob(ctx context.Context, spec reminder.JobSpec) (reminder.Handle, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return "", &SchedulerError{Sentinel: ErrBadResponse, Operation: "addJob", Err: err}
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/ccom/jobs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", &SchedulerError{Sentinel: ErrUnavailable, Operation: "addJob", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusAccepted && res.StatusCode != http.StatusOK {
		return "", statusErr("addJob", res)
	}

	var p struct {
		Handle string `json:"handle"`
	}
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return "", &SchedulerError{Sentinel: ErrBadResponse, Operation: "addJob", Err: err}
	}
	if p.Handle == "" {
		return "", &SchedulerError{Sentinel: ErrBadResponse, Operation: "addJob", Err: errors.New("empty handle")}
	}
	return reminder.Handle(p.Handle), nil
}

// DeleteJob removes a scheduled job.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	u := c.base + "/ccom/jobs/" + url.PathEscape(jobID)
	req, _ := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)

	res, err := c.http.Do(req)
	if err != nil {
		return &SchedulerError{Sentinel: ErrUnavailable, Operation: "deleteJob", Err: err}
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	switch res.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return &SchedulerError{Sentinel: ErrNotFound, Operation: "deleteJob", Status: res.StatusCode}
	default:
		return statusErr("deleteJob", res)
	}
}

// TasksAt lists the tasks scheduled for the given instant.
func (c *Client) TasksAt(ctx context.Context, at time.Time) ([]reminder.TaskAlert, error) {
	u := c.base + "/ccom/tasks?at=" + strconv.FormatInt(at.Unix(), 10)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &SchedulerError{Sentinel: ErrUnavailable, Operation: "tasksAt", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, statusErr("tasksAt", res)
	}

	var p struct {
		Tasks []reminder.TaskAlert `json:"tasks"`
	}
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return nil, &SchedulerError{Sentinel: ErrBadResponse, Operation: "tasksAt", Err: err}
	}
	return p.Tasks, nil
}

// CheckResources asks the middleware whether the given playout class can
// start without displacing a recording. A 409 maps to the resource
// conflict taxonomy code.
func (c *Client) CheckResources(ctx context.Context, class playback.ConflictClass) error {
	u := c.base + "/ccom/resources/check?class=" + url.QueryEscape(string(class))
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)

	res, err := c.http.Do(req)
	if err != nil {
		return &SchedulerError{Sentinel: ErrUnavailable, Operation: "checkResources", Err: err}
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	switch res.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		return &SchedulerError{Sentinel: ErrConflict, Operation: "checkResources", Status: res.StatusCode}
	default:
		return statusErr("checkResources", res)
	}
}

func statusErr(op string, res *http.Response) *SchedulerError {
	sentinel := ErrBadResponse
	switch {
	case res.StatusCode == http.StatusNotFound:
		sentinel = ErrNotFound
	case res.StatusCode >= 500:
		sentinel = ErrUpstream
	}
	return &SchedulerError{Sentinel: sentinel, Operation: op, Status: res.StatusCode}
}
