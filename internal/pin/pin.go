// Package pin defines the PIN-entry collaborator contract shared by the
// playback gate and content navigation. The actual dialog lives in the UI
// shell; the core only learns whether entry succeeded or was cancelled.
package pin

import (
	"context"
	"errors"
)

// ErrCancelled ends a gated flow after the viewer dismissed the PIN
// dialog. Flows treat it as a silent stop: no error dialog, no downstream
// call.
var ErrCancelled = errors.New("pin entry cancelled")

// Kind selects which PIN policy a prompt enforces.
type Kind string

const (
	// KindParental guards rating-locked channels and programmes.
	KindParental Kind = "parental"

	// KindAdult guards adult-classified content nodes.
	KindAdult Kind = "adult"
)

// Prompter requests PIN entry from the viewer. The first return is false
// when the viewer cancelled the dialog; err is reserved for transport
// failures between core and UI shell, not for wrong PINs (the shell retries
// those itself).
type Prompter interface {
	RequestPin(ctx context.Context, kind Kind) (bool, error)
}
