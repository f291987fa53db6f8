package reminder

import (
	"context"
	"time"

	"github.com/jmcfet/promoUI-sub009/internal/types"
)

// Kind classifies what a scheduler job does when it fires.
type Kind string

const (
	// KindReminder pops a programme reminder.
	KindReminder Kind = "reminder"

	// KindAutoTune tunes the box to a channel.
	KindAutoTune Kind = "autotune"

	// KindGeneric is an application-defined job carrying opaque info.
	KindGeneric Kind = "generic"
)

// Handle correlates a job submission with the scheduler's asynchronous
// add-job completion events.
type Handle string

// JobSpec describes a job submitted to the external scheduler.
type JobSpec struct {
	Type      types.JobType     `json:"type"`
	Kind      Kind              `json:"kind"`
	EventID   int64             `json:"eventId,omitempty"`
	ServiceID int64             `json:"serviceId,omitempty"`
	StartTime time.Time         `json:"startTime"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// TaskAlert is the payload of a fired job.
type TaskAlert struct {
	JobID     string    `json:"jobId"`
	Kind      Kind      `json:"kind"`
	EventID   int64     `json:"eventId,omitempty"`
	ServiceID int64     `json:"serviceId,omitempty"`
	StartTime time.Time `json:"startTime"`
	Title     string    `json:"title,omitempty"`
}

// EventType names the scheduler's global event kinds.
type EventType string

const (
	EventAddJobOK     EventType = "add_job_ok"
	EventAddJobFailed EventType = "add_job_failed"
	EventTaskStarted  EventType = "task_started"
)

// Event is one scheduler notification. Add-job completions are global, not
// request-scoped; the manager correlates them by Handle.
type Event struct {
	Type   EventType  `json:"type"`
	Handle Handle     `json:"handle,omitempty"`
	JobID  string     `json:"jobId,omitempty"`
	Reason string     `json:"reason,omitempty"`
	Task   *TaskAlert `json:"task,omitempty"`
}

// Scheduler is the external job scheduler contract. AddJob returns a handle
// synchronously; the actual outcome arrives later as an Event.
type Scheduler interface {
	AddJob(ctx context.Context, spec JobSpec) (Handle, error)
	DeleteJob(ctx context.Context, jobID string) error
	// TasksAt lists all tasks scheduled for the given instant; used to
	// collect the full conflict set when simultaneous jobs fire.
	TasksAt(ctx context.Context, at time.Time) ([]TaskAlert, error)
}

// Action is a selectable choice on a task-alert dialog.
type Action string

const (
	ActionTuneNow   Action = "tune_now"
	ActionDontTune  Action = "dont_tune"
	ActionCancelAll Action = "cancel_all"
)

// Alert is what the dialog collaborator presents for a fired task (or a
// set of simultaneously fired tasks).
type Alert struct {
	Tasks    []TaskAlert
	Conflict bool
}

// Dialoger shows task-alert dialogs. A context deadline bounds how long
// the dialog may stay open; the manager applies the timeout default when
// the deadline expires.
type Dialoger interface {
	ShowTaskAlert(ctx context.Context, alert Alert) (Action, error)
}

// Tuner tunes the box to a service.
type Tuner interface {
	TuneToChannel(ctx context.Context, serviceID int64, background bool) error
}

// Power reports and changes the box power state. A task alert firing while
// the box is in standby wakes it before any dialog is shown.
type Power interface {
	Standby() bool
	Wake(ctx context.Context) error
}

// Journal records job-state observations for diagnostics and listings.
type Journal interface {
	Record(ctx context.Context, jobID string, kind Kind, state types.JobState, startTime time.Time) error
}
