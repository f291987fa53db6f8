package ccom

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmcfet/promoUI-sub009/internal/playback"
	"github.com/jmcfet/promoUI-sub009/internal/reminder"
	"github.com/jmcfet/promoUI-sub009/internal/types"
)

func TestAddJob(t *testing.T) {
	t.Parallel()

	var gotSpec reminder.JobSpec
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ccom/jobs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotSpec); err != nil {
			t.Errorf("decode spec: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"handle": "h-17"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	spec := reminder.JobSpec{
		Type:      types.JobOneTime,
		Kind:      reminder.KindReminder,
		EventID:   100,
		ServiceID: 7,
		StartTime: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
	}

	h, err := c.AddJob(context.Background(), spec)
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if h != "h-17" {
		t.Errorf("handle = %q, want h-17", h)
	}
	if gotSpec.EventID != 100 || gotSpec.Kind != reminder.KindReminder {
		t.Errorf("server saw spec %+v", gotSpec)
	}
}

func TestAddJob_EmptyHandle(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).AddJob(context.Background(), reminder.JobSpec{})
	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("err = %v, want ErrBadResponse", err)
	}
}

func TestAddJob_UpstreamError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).AddJob(context.Background(), reminder.JobSpec{})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	var se *SchedulerError
	if !errors.As(err, &se) || se.Status != http.StatusInternalServerError {
		t.Fatalf("err = %v, want SchedulerError with status 500", err)
	}
}

func TestDeleteJob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		wantErr  error
		wantPath string
	}{
		{"ok", http.StatusNoContent, nil, "/ccom/jobs/job-1"},
		{"not found", http.StatusNotFound, ErrNotFound, "/ccom/jobs/job-1"},
		{"server error", http.StatusInternalServerError, ErrUpstream, "/ccom/jobs/job-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete || r.URL.Path != tt.wantPath {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := New(srv.URL).DeleteJob(context.Background(), "job-1")
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("DeleteJob: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTasksAt(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("at"); got != "1772395200" {
			t.Errorf("at = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"tasks": []reminder.TaskAlert{
				{JobID: "job-a", Kind: reminder.KindReminder, ServiceID: 7, StartTime: at},
				{JobID: "job-b", Kind: reminder.KindAutoTune, ServiceID: 9, StartTime: at},
			},
		})
	}))
	defer srv.Close()

	tasks, err := New(srv.URL).TasksAt(context.Background(), at)
	if err != nil {
		t.Fatalf("TasksAt: %v", err)
	}
	if len(tasks) != 2 || tasks[0].JobID != "job-a" || tasks[1].Kind != reminder.KindAutoTune {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestCheckResources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"free", http.StatusNoContent, nil},
		{"conflict", http.StatusConflict, ErrConflict},
		{"upstream", http.StatusBadGateway, ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("class"); got != string(playback.ClassVODPlayback) {
					t.Errorf("class = %q", got)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := New(srv.URL).CheckResources(context.Background(), playback.ClassVODPlayback)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CheckResources: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	t.Parallel()
	c := New("http://127.0.0.1:1")

	if _, err := c.AddJob(context.Background(), reminder.JobSpec{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("AddJob err = %v, want ErrUnavailable", err)
	}
	if err := c.DeleteJob(context.Background(), "j"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("DeleteJob err = %v, want ErrUnavailable", err)
	}
}
