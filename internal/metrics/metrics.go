// Package metrics exposes prometheus counters for the coordination core.
// Label values are normalized through closed sets so a bad caller cannot
// explode cardinality.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	admissionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promoui_playback_admission_total",
		Help: "Playback admission outcomes by content type",
	}, []string{"content_type", "outcome"})

	playoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promoui_playout_total",
		Help: "Playout attempts by content type and result code",
	}, []string{"content_type", "code"})

	reminderJobTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promoui_reminder_job_total",
		Help: "Reminder job submissions by kind and outcome",
	}, []string{"kind", "outcome"})

	reminderConflictTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promoui_reminder_conflict_total",
		Help: "Reminder task alerts collapsed into conflict resolution",
	})

	bookmarkTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promoui_bookmark_total",
		Help: "Bookmark store/delete operations at playback stop",
	}, []string{"action"})
)

// RecordAdmission records one admission decision.
func RecordAdmission(contentType, outcome string) {
	admissionTotal.WithLabelValues(
		normalizeContentType(contentType),
		normalizeAdmissionOutcome(outcome),
	).Inc()
}

// RecordPlayout records one playout attempt result.
func RecordPlayout(contentType, code string) {
	playoutTotal.WithLabelValues(
		normalizeContentType(contentType),
		normalizePlayoutCode(code),
	).Inc()
}

// RecordReminderJob records a reminder job submission outcome.
func RecordReminderJob(kind, outcome string) {
	reminderJobTotal.WithLabelValues(
		normalizeReminderKind(kind),
		normalizeReminderOutcome(outcome),
	).Inc()
}

// RecordReminderConflict records one conflict-resolution dispatch.
func RecordReminderConflict() {
	reminderConflictTotal.Inc()
}

// RecordBookmark records a bookmark store or delete.
func RecordBookmark(action string) {
	switch action {
	case "store", "delete":
		bookmarkTotal.WithLabelValues(action).Inc()
	default:
		bookmarkTotal.WithLabelValues("unknown").Inc()
	}
}

func normalizeContentType(ct string) string {
	switch strings.ToLower(strings.TrimSpace(ct)) {
	case "vod", "catchup", "startover":
		return strings.ToLower(strings.TrimSpace(ct))
	default:
		return "unknown"
	}
}

func normalizeAdmissionOutcome(outcome string) string {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "admitted", "pin_cancelled", "resource_conflict", "error":
		return strings.ToLower(strings.TrimSpace(outcome))
	default:
		return "unknown"
	}
}

func normalizePlayoutCode(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "ok", "not_subscribed", "asset_not_found", "cannot_start_purchase",
		"cannot_complete_purchase", "resource_conflict", "system":
		return strings.ToLower(strings.TrimSpace(code))
	default:
		return "unknown"
	}
}

func normalizeReminderKind(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "reminder", "autotune", "generic":
		return strings.ToLower(strings.TrimSpace(kind))
	default:
		return "unknown"
	}
}

func normalizeReminderOutcome(outcome string) string {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "created", "failed", "cancelled", "fired", "timeout":
		return strings.ToLower(strings.TrimSpace(outcome))
	default:
		return "unknown"
	}
}
