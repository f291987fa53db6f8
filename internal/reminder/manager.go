// Package reminder coordinates one-off and repeating jobs against the
// external scheduler: reminder and auto-tune creation, cancellation, and
// arbitration when several jobs fire at the same instant.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmcfet/promoUI-sub009/internal/cache"
	"github.com/jmcfet/promoUI-sub009/internal/epg"
	"github.com/jmcfet/promoUI-sub009/internal/metrics"
	"github.com/jmcfet/promoUI-sub009/internal/types"
)

// cacheKeyPrefix namespaces reminder state in the shared cache.
const cacheKeyPrefix = "reminder:"

// DefaultDialogTimeout bounds how long a task-alert dialog stays open
// before the default action (tune to the first channel) is taken.
const DefaultDialogTimeout = 30 * time.Second

// ErrAddJobFailed is returned when the scheduler reports a failed job
// submission.
var ErrAddJobFailed = errors.New("scheduler rejected job")

type pendingAdd struct {
	key  epg.EventKey
	spec JobSpec
	done chan addResult
}

type addResult struct {
	jobID string
	err   error
}

// Manager owns the reminder lifecycle on top of the external scheduler.
// All mutable state is guarded by mu; scheduler events and API calls may
// arrive on any goroutine.
type Manager struct {
	sched   Scheduler
	cache   cache.Cache
	journal Journal
	dialogs Dialoger
	tuner   Tuner
	power   Power
	logger  zerolog.Logger

	dialogTimeout time.Duration

	mu      sync.Mutex
	pending map[Handle]*pendingAdd
	jobs    map[epg.EventKey]string // event key -> scheduler job id
	// lastProcessedTaskStartTime suppresses the redundant per-task alerts
	// the scheduler emits when several jobs share a start time; only the
	// first alert of an instant is processed, as a conflict when the
	// instant has more than one task.
	lastProcessedTaskStartTime time.Time
	// activeDialogs dedups alert dialogs per job id.
	activeDialogs map[string]struct{}
}

// Deps holds the manager's collaborators.
type Deps struct {
	Scheduler Scheduler
	Cache     cache.Cache
	Journal   Journal
	Dialogs   Dialoger
	Tuner     Tuner
	Power     Power
	Logger    zerolog.Logger
}

// NewManager wires a Manager.
func NewManager(d Deps) *Manager {
	return &Manager{
		sched:         d.Scheduler,
		cache:         d.Cache,
		journal:       d.Journal,
		dialogs:       d.Dialogs,
		tuner:         d.Tuner,
		power:         d.Power,
		logger:        d.Logger,
		dialogTimeout: DefaultDialogTimeout,
		pending:       make(map[Handle]*pendingAdd),
		jobs:          make(map[epg.EventKey]string),
		activeDialogs: make(map[string]struct{}),
	}
}

// SetReminder schedules a one-time reminder for the event and blocks until
// the scheduler confirms or rejects the submission, or ctx expires.
func (m *Manager) SetReminder(ctx context.Context, event epg.Event) error {
	spec := JobSpec{
		Type:      types.JobOneTime,
		Kind:      KindReminder,
		EventID:   event.EventID,
		ServiceID: event.ServiceID,
		StartTime: event.StartTime,
	}
	return m.submit(ctx, epg.KeyForEvent(event), spec)
}

// SetAutoTune schedules a tune job from the pending auto-tune properties.
func (m *Manager) SetAutoTune(ctx context.Context, props *AutoTuneProperties) error {
	spec := props.JobSpec()
	key := epg.KeyForRawIDs(spec.ServiceID, spec.StartTime.Unix())
	return m.submit(ctx, key, spec)
}

// SetGenericReminder schedules an application-defined job carrying opaque
// extra info.
func (m *Manager) SetGenericReminder(ctx context.Context, spec JobSpec) error {
	spec.Kind = KindGeneric
	key := epg.KeyForRawIDs(spec.ServiceID, spec.StartTime.Unix())
	return m.submit(ctx, key, spec)
}

// submit registers the pending entry and hands the job to the scheduler.
// The lock is held across AddJob so a completion event racing in on the
// pump goroutine cannot observe an unregistered handle.
func (m *Manager) submit(ctx context.Context, key epg.EventKey, spec JobSpec) error {
	p := &pendingAdd{key: key, spec: spec, done: make(chan addResult, 1)}

	m.mu.Lock()
	handle, err := m.sched.AddJob(ctx, spec)
	if err != nil {
		m.mu.Unlock()
		metrics.RecordReminderJob(string(spec.Kind), "failed")
		return fmt.Errorf("add job: %w", err)
	}
	m.pending[handle] = p
	m.mu.Unlock()

	select {
	case res := <-p.done:
		if res.err != nil {
			metrics.RecordReminderJob(string(spec.Kind), "failed")
			return res.err
		}
		m.mu.Lock()
		m.jobs[key] = res.jobID
		m.mu.Unlock()
		m.cache.Set(cacheKeyPrefix+string(key), string(types.ReminderActive), 0)
		if err := m.journal.Record(ctx, res.jobID, spec.Kind, types.JobStateCreated, spec.StartTime); err != nil {
			m.logger.Warn().Err(err).Str("job", res.jobID).Msg("journal write failed")
		}
		metrics.RecordReminderJob(string(spec.Kind), "created")
		m.logger.Info().
			Str("job", res.jobID).
			Str("kind", string(spec.Kind)).
			Time("start", spec.StartTime).
			Msg("reminder created")
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		delete(m.pending, handle)
		m.mu.Unlock()
		return ctx.Err()
	}
}

// CancelReminder cancels any reminder for the event. The local cache entry
// flips to cancelled immediately and the scheduler deletion is requested
// without waiting for confirmation. Cancelling an event with no reminder
// is a no-op.
func (m *Manager) CancelReminder(ctx context.Context, event epg.Event) {
	key := epg.KeyForEvent(event)

	m.mu.Lock()
	jobID, ok := m.jobs[key]
	if ok {
		delete(m.jobs, key)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	m.cache.Set(cacheKeyPrefix+string(key), string(types.ReminderCancelled), 0)
	metrics.RecordReminderJob("reminder", "cancelled")

	if err := m.sched.DeleteJob(ctx, jobID); err != nil {
		// Optimistic cancellation: local state already says cancelled.
		m.logger.Warn().Err(err).Str("job", jobID).Msg("scheduler delete failed")
	}
	if err := m.journal.Record(ctx, jobID, KindReminder, types.JobStateCreatedDeleting, event.StartTime); err != nil {
		m.logger.Warn().Err(err).Str("job", jobID).Msg("journal write failed")
	}
}

// IsReminderSet answers the UI's "is a reminder set for this event" query
// from the local cache; the scheduler is never asked.
func (m *Manager) IsReminderSet(event epg.Event) bool {
	return m.stateFor(epg.KeyForEvent(event)).IsSet()
}

// IsReminderSetForRawIDs is the pre-guide-resolution variant of
// IsReminderSet.
func (m *Manager) IsReminderSetForRawIDs(serviceID, eventID int64) bool {
	return m.stateFor(epg.KeyForRawIDs(serviceID, eventID)).IsSet()
}

func (m *Manager) stateFor(key epg.EventKey) types.ReminderState {
	v, ok := m.cache.Get(cacheKeyPrefix + string(key))
	if !ok {
		return types.ReminderUnset
	}
	return types.ReminderState(v)
}

// HandleEvent dispatches one scheduler event. The ccom event pump calls
// this for every notification.
func (m *Manager) HandleEvent(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventAddJobOK:
		m.completePending(ev.Handle, addResult{jobID: ev.JobID})
	case EventAddJobFailed:
		m.completePending(ev.Handle, addResult{err: fmt.Errorf("%w: %s", ErrAddJobFailed, ev.Reason)})
	case EventTaskStarted:
		if ev.Task != nil {
			m.handleTaskStarted(ctx, *ev.Task)
		}
	default:
		m.logger.Debug().Str("type", string(ev.Type)).Msg("ignoring scheduler event")
	}
}

// completePending consumes the pending entry for handle. The entry is
// removed before the result is delivered, so a duplicate completion event
// can never fire the caller twice.
func (m *Manager) completePending(handle Handle, res addResult) {
	m.mu.Lock()
	p, ok := m.pending[handle]
	if ok {
		delete(m.pending, handle)
	}
	m.mu.Unlock()

	if !ok {
		m.logger.Debug().Str("handle", string(handle)).Msg("completion for unknown handle")
		return
	}
	p.done <- res
}

// handleTaskStarted arbitrates fired tasks. The first alert of a start
// instant wins: it queries the full task set for that instant and either
// runs the single-task flow or the conflict flow. Later alerts for the
// same instant are redundant and dropped.
func (m *Manager) handleTaskStarted(ctx context.Context, task TaskAlert) {
	m.mu.Lock()
	if task.StartTime.Equal(m.lastProcessedTaskStartTime) {
		m.mu.Unlock()
		m.logger.Debug().Str("job", task.JobID).Msg("duplicate task alert suppressed")
		return
	}
	m.lastProcessedTaskStartTime = task.StartTime
	m.mu.Unlock()

	tasks, err := m.sched.TasksAt(ctx, task.StartTime)
	if err != nil {
		m.logger.Warn().Err(err).Msg("task query failed, handling alert alone")
		tasks = []TaskAlert{task}
	}
	if len(tasks) == 0 {
		tasks = []TaskAlert{task}
	}

	if len(tasks) > 1 {
		metrics.RecordReminderConflict()
	}
	m.presentAlert(ctx, tasks)
}

// presentAlert wakes the box if needed, shows the alert dialog (one per
// job id) and performs the chosen action. On dialog timeout the default is
// to tune to the first task's channel.
func (m *Manager) presentAlert(ctx context.Context, tasks []TaskAlert) {
	lead := tasks[0]

	m.mu.Lock()
	if _, open := m.activeDialogs[lead.JobID]; open {
		m.mu.Unlock()
		return
	}
	m.activeDialogs[lead.JobID] = struct{}{}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.activeDialogs, lead.JobID)
		m.mu.Unlock()
	}()

	if m.power.Standby() {
		if err := m.power.Wake(ctx); err != nil {
			m.logger.Warn().Err(err).Msg("wake from standby failed")
		}
	}

	alert := Alert{Tasks: tasks, Conflict: len(tasks) > 1}

	dialogCtx, cancel := context.WithTimeout(ctx, m.dialogTimeout)
	defer cancel()

	action, err := m.dialogs.ShowTaskAlert(dialogCtx, alert)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			action = ActionTuneNow
			metrics.RecordReminderJob(string(lead.Kind), "timeout")
		} else {
			m.logger.Warn().Err(err).Str("job", lead.JobID).Msg("task alert dialog failed")
			return
		}
	}

	switch action {
	case ActionTuneNow:
		if err := m.tuner.TuneToChannel(ctx, lead.ServiceID, false); err != nil {
			m.logger.Warn().Err(err).Int64("service", lead.ServiceID).Msg("auto-tune failed")
			return
		}
		metrics.RecordReminderJob(string(lead.Kind), "fired")
		m.recordReady(ctx, lead)
	case ActionDontTune:
		// Declining a one-time job deletes it so it does not linger.
		if err := m.sched.DeleteJob(ctx, lead.JobID); err != nil {
			m.logger.Warn().Err(err).Str("job", lead.JobID).Msg("delete declined job failed")
		}
		m.recordDeleting(ctx, lead)
	case ActionCancelAll:
		for _, t := range tasks {
			if err := m.sched.DeleteJob(ctx, t.JobID); err != nil {
				m.logger.Warn().Err(err).Str("job", t.JobID).Msg("cancel-all delete failed")
			}
			m.recordDeleting(ctx, t)
		}
	}
}

func (m *Manager) recordReady(ctx context.Context, t TaskAlert) {
	if err := m.journal.Record(ctx, t.JobID, t.Kind, types.JobStateReady, t.StartTime); err != nil {
		m.logger.Warn().Err(err).Str("job", t.JobID).Msg("journal write failed")
	}
}

func (m *Manager) recordDeleting(ctx context.Context, t TaskAlert) {
	if err := m.journal.Record(ctx, t.JobID, t.Kind, types.JobStateTaskDeleting, t.StartTime); err != nil {
		m.logger.Warn().Err(err).Str("job", t.JobID).Msg("journal write failed")
	}
}

// LastProcessedTaskStartTime exposes the dedup guard for tests and
// diagnostics.
func (m *Manager) LastProcessedTaskStartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastProcessedTaskStartTime
}

// SetDialogTimeout overrides the alert dialog timeout.
func (m *Manager) SetDialogTimeout(d time.Duration) {
	m.dialogTimeout = d
}
