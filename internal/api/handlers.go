package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jmcfet/promoUI-sub009/internal/epg"
	"github.com/jmcfet/promoUI-sub009/internal/navigation"
	"github.com/jmcfet/promoUI-sub009/internal/pin"
	"github.com/jmcfet/promoUI-sub009/internal/playback"
	"github.com/jmcfet/promoUI-sub009/internal/reminder"
	"github.com/jmcfet/promoUI-sub009/internal/types"
)

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// --- playback ---

func (s *Server) handleAdmit(w http.ResponseWriter, r *http.Request) {
	var req playback.Request
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := s.gate.Admit(r.Context(), req); err != nil {
		if errors.Is(err, playback.ErrPinCancelled) {
			// The viewer backed out; not an error surface.
			writeJSON(w, http.StatusOK, map[string]any{"admitted": false, "reason": "pin_cancelled"})
			return
		}
		writePlaybackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"admitted": true})
}

type playRequest struct {
	Asset         playback.Asset   `json:"asset"`
	EntitlementID string           `json:"entitlementId"`
	Options       playback.Options `json:"options"`
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := s.gate.PlayAsset(r.Context(), req.Asset, req.EntitlementID, req.Options); err != nil {
		writePlaybackError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playing": true})
}

// --- navigation ---

type navState struct {
	Path          []string `json:"path"`
	MasterInFocus bool     `json:"masterInFocus"`
}

func (s *Server) navStateBody(nodes []navigation.Node) map[string]any {
	return map[string]any{
		"nodes": nodes,
		"state": navState{Path: s.nav.Path(), MasterInFocus: s.nav.MasterInFocus()},
	}
}

func (s *Server) handleNavReset(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.nav.Reset(r.Context())
	if err != nil {
		writeNavigationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.navStateBody(nodes))
}

func (s *Server) handleNavDeeper(w http.ResponseWriter, r *http.Request) {
	var target navigation.Node
	if err := decode(r, &target); err != nil {
		writeBadRequest(w, err)
		return
	}

	nodes, err := s.nav.NavigateDeeper(r.Context(), target)
	if err != nil {
		if errors.Is(err, pin.ErrCancelled) {
			writeJSON(w, http.StatusOK, map[string]any{"cancelled": true})
			return
		}
		writeNavigationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.navStateBody(nodes))
}

func (s *Server) handleNavBack(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.nav.NavigateBack(r.Context())
	if err != nil {
		writeNavigationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.navStateBody(nodes))
}

func (s *Server) handleNavJump(w http.ResponseWriter, r *http.Request) {
	var jump navigation.Jump
	if err := decode(r, &jump); err != nil {
		writeBadRequest(w, err)
		return
	}

	nodes, err := s.nav.JumpToContent(r.Context(), jump)
	if err != nil {
		writeNavigationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.navStateBody(nodes))
}

func (s *Server) handleNavInfo(w http.ResponseWriter, r *http.Request) {
	var target navigation.Node
	if err := decode(r, &target); err != nil {
		writeBadRequest(w, err)
		return
	}

	full, err := s.nav.ShowFullAssetInfo(r.Context(), target)
	if err != nil {
		if errors.Is(err, pin.ErrCancelled) {
			writeJSON(w, http.StatusOK, map[string]any{"cancelled": true})
			return
		}
		writeNavigationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, full)
}

func (s *Server) handleNavState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, navState{Path: s.nav.Path(), MasterInFocus: s.nav.MasterInFocus()})
}

// --- reminders ---

func (s *Server) handleSetReminder(w http.ResponseWriter, r *http.Request) {
	var ev epg.Event
	if err := decode(r, &ev); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := s.reminders.SetReminder(r.Context(), ev); err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "scheduler", Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"set": true})
}

func (s *Server) handleCancelReminder(w http.ResponseWriter, r *http.Request) {
	var ev epg.Event
	if err := decode(r, &ev); err != nil {
		writeBadRequest(w, err)
		return
	}

	// Fire and forget: the cancellation is effective locally regardless of
	// the scheduler round trip.
	s.reminders.CancelReminder(r.Context(), ev)
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": true})
}

func (s *Server) handleReminderStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	serviceID, err := strconv.ParseInt(q.Get("serviceId"), 10, 64)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("serviceId: %w", err))
		return
	}
	eventID, err := strconv.ParseInt(q.Get("eventId"), 10, 64)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("eventId: %w", err))
		return
	}

	set := false
	if uid := q.Get("uniqueId"); uid != "" {
		set = s.reminders.IsReminderSet(epg.Event{ServiceID: serviceID, EventID: eventID, UniqueID: uid})
	} else {
		set = s.reminders.IsReminderSetForRawIDs(serviceID, eventID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"set": set})
}

func (s *Server) handleReminderJournal(w http.ResponseWriter, r *http.Request) {
	state := types.JobState(r.URL.Query().Get("state"))
	if !state.IsValid() {
		writeBadRequest(w, fmt.Errorf("unknown state %q", state))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.journal.ByState(r.Context(), state, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "journal", Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type autoTuneRequest struct {
	Frequency reminder.Frequency `json:"frequency"`
	StartTime time.Time          `json:"startTime"`
	ServiceID int64              `json:"serviceId"`
}

func (s *Server) handleSetAutoTune(w http.ResponseWriter, r *http.Request) {
	var req autoTuneRequest
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if !req.Frequency.IsValid() {
		writeBadRequest(w, fmt.Errorf("unknown frequency %q", req.Frequency))
		return
	}

	props := reminder.NewAutoTuneProperties(time.Now(), nil)
	props.SetFrequency(req.Frequency)
	props.SetStartTime(req.StartTime)
	props.SetServiceID(req.ServiceID)

	if err := s.reminders.SetAutoTune(r.Context(), props); err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "scheduler", Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"set": true})
}
