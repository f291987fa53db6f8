package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmcfet/promoUI-sub009/internal/navigation"
	"github.com/jmcfet/promoUI-sub009/internal/playback"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeBadRequest reports a malformed request body or parameter.
func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Detail: err.Error()})
}

// writePlaybackError folds a playback flow failure into HTTP. Each
// taxonomy code has a fixed status; everything unclassified is a 500.
func writePlaybackError(w http.ResponseWriter, err error) {
	code := playback.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case playback.CodeNotSubscribed:
		status = http.StatusForbidden
	case playback.CodeAssetNotFound:
		status = http.StatusNotFound
	case playback.CodeResourceConflict:
		status = http.StatusConflict
	case playback.CodeCannotStartPurchase, playback.CodeCannotCompletePurchase:
		status = http.StatusPaymentRequired
	}
	writeJSON(w, status, errorBody{Error: string(code), Detail: err.Error()})
}

// writeNavigationError maps navigation failures: unknown assets are 404,
// the rest 500.
func writeNavigationError(w http.ResponseWriter, err error) {
	if errors.Is(err, navigation.ErrAssetNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "asset_not_found", Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Detail: err.Error()})
}
