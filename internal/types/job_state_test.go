package types

import (
	"encoding/json"
	"testing"
)

func TestJobState_Validity(t *testing.T) {
	valid := []JobState{
		JobStateCreated, JobStateCreatedDeleting, JobStateReady,
		JobStateTaskDeleting, JobStateDeleted,
	}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if JobState("pending").IsValid() {
		t.Error("unknown state should be invalid")
	}
}

func TestJobState_Predicates(t *testing.T) {
	if !JobStateCreatedDeleting.IsDeleting() || !JobStateTaskDeleting.IsDeleting() {
		t.Error("deleting states must report IsDeleting")
	}
	if JobStateReady.IsDeleting() {
		t.Error("ready is not a deleting state")
	}
	if !JobStateDeleted.IsTerminal() {
		t.Error("deleted is terminal")
	}
	if JobStateCreated.IsTerminal() {
		t.Error("created is not terminal")
	}
}

func TestJobState_UnmarshalRejectsUnknown(t *testing.T) {
	var s JobState
	if err := json.Unmarshal([]byte(`"exploded"`), &s); err == nil {
		t.Error("expected error for unknown job state")
	}
	if err := json.Unmarshal([]byte(`"ready"`), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != JobStateReady {
		t.Errorf("got %q", s)
	}
}

func TestContentType(t *testing.T) {
	if _, err := ParseContentType("dvd"); err == nil {
		t.Error("expected error for unknown content type")
	}
	ct, err := ParseContentType("catchup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ct.IsBroadcastReplay() {
		t.Error("catchup is a broadcast replay")
	}
	if ContentVOD.IsBroadcastReplay() {
		t.Error("vod is not a broadcast replay")
	}
}

func TestReminderState_IsSet(t *testing.T) {
	if ReminderUnset.IsSet() || ReminderCancelled.IsSet() {
		t.Error("only active reminders are set")
	}
	if !ReminderActive.IsSet() {
		t.Error("active reminders are set")
	}
}
