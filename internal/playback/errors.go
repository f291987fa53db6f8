package playback

import (
	"errors"
	"fmt"

	"github.com/jmcfet/promoUI-sub009/internal/pin"
)

// Code is the fixed error taxonomy surfaced to the UI shell. Every failure
// of a playback flow maps to exactly one code and one dialog; there is no
// automatic retry.
type Code string

const (
	CodeNone                   Code = ""
	CodeNotSubscribed          Code = "not_subscribed"            // entitlement 403
	CodeAssetNotFound          Code = "asset_not_found"           // entitlement 404
	CodeCannotStartPurchase    Code = "cannot_start_purchase"
	CodeCannotCompletePurchase Code = "cannot_complete_purchase"
	CodeResourceConflict       Code = "resource_conflict"
	CodeSystem                 Code = "system"
)

// ErrPinCancelled terminates an admission flow after the viewer dismissed
// the PIN dialog. It deliberately carries no code: the flow ends silently,
// no dialog is shown and no downstream call is made.
var ErrPinCancelled = pin.ErrCancelled

// Error pairs a taxonomy code with its cause.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err under the given code.
func newError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf extracts the taxonomy code from err, or CodeSystem for anything
// the taxonomy does not name.
func CodeOf(err error) Code {
	if err == nil {
		return CodeNone
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeSystem
}

// statusError is satisfied by service-client errors that carry an HTTP
// status; the entitlement client implements it.
type statusError interface {
	HTTPStatus() int
}

// mapServiceError folds an entitlement-service failure into the taxonomy:
// 403 means not subscribed, 404 means the asset is gone, everything else is
// a generic system error.
func mapServiceError(err error) *Error {
	var se statusError
	if errors.As(err, &se) {
		switch se.HTTPStatus() {
		case 403:
			return newError(CodeNotSubscribed, err)
		case 404:
			return newError(CodeAssetNotFound, err)
		}
	}
	return newError(CodeSystem, err)
}
