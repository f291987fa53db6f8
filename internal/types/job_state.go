package types

import (
	"encoding/json"
	"fmt"
)

// JobState mirrors the external scheduler's job-operation-state enum.
//
// The coordination core never drives these transitions itself; it only
// filters and queries scheduler jobs by state. The scheduler owns the
// lifecycle: CREATED → CREATED_DELETING → READY → TASK_DELETING → DELETED.
type JobState string

const (
	// JobStateCreated indicates the job has been accepted by the scheduler.
	JobStateCreated JobState = "created"

	// JobStateCreatedDeleting indicates deletion was requested before the
	// job ever fired.
	JobStateCreatedDeleting JobState = "created_deleting"

	// JobStateReady indicates the job has fired and its task is active.
	JobStateReady JobState = "ready"

	// JobStateTaskDeleting indicates deletion was requested while the task
	// was active.
	JobStateTaskDeleting JobState = "task_deleting"

	// JobStateDeleted indicates the scheduler has removed the job.
	JobStateDeleted JobState = "deleted"
)

// String implements fmt.Stringer.
func (s JobState) String() string {
	return string(s)
}

// IsValid checks whether the state is one of the defined constants.
func (s JobState) IsValid() bool {
	switch s {
	case JobStateCreated, JobStateCreatedDeleting, JobStateReady,
		JobStateTaskDeleting, JobStateDeleted:
		return true
	default:
		return false
	}
}

// IsDeleting reports whether a deletion has been requested for the job.
func (s JobState) IsDeleting() bool {
	return s == JobStateCreatedDeleting || s == JobStateTaskDeleting
}

// IsTerminal reports whether the scheduler will never advance the job again.
func (s JobState) IsTerminal() bool {
	return s == JobStateDeleted
}

// MarshalJSON implements json.Marshaler.
func (s JobState) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *JobState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	state := JobState(str)
	if !state.IsValid() {
		return fmt.Errorf("invalid job state: %q", str)
	}
	*s = state
	return nil
}

// JobType distinguishes one-shot jobs from repeating ones.
type JobType string

const (
	// JobOneTime fires exactly once at its start time.
	JobOneTime JobType = "one_time"

	// JobRepeating fires on a recurrence pattern until deleted.
	JobRepeating JobType = "repeating"
)

// IsValid checks whether the job type is one of the defined constants.
func (t JobType) IsValid() bool {
	return t == JobOneTime || t == JobRepeating
}
