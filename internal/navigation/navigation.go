// Package navigation tracks the two-pane content browse position as a
// breadcrumb stack and gates descent into adult or rating-locked nodes
// behind PIN entry.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jmcfet/promoUI-sub009/internal/pin"
)

// AdultRating is the parental rating at and above which a node is treated
// as adult content regardless of its explicit flag.
const AdultRating = 18

// RootID marks the root entry at the bottom of every path stack.
const RootID = ""

// ErrAssetNotFound is returned when a direct jump names a server-side id
// that does not resolve.
var ErrAssetNotFound = errors.New("asset not found")

// Node is one entry of the content tree: a folder or a playable asset.
type Node struct {
	ID       string `json:"id"`
	UniqueID string `json:"uniqueId,omitempty"`
	Title    string `json:"title"`
	Rating   int    `json:"rating"`
	Adult    bool   `json:"adult"`
	Leaf     bool   `json:"leaf"`
}

// IsAdult reports whether the node needs the adult PIN before descent.
func (n Node) IsAdult() bool {
	return n.Adult || n.Rating >= AdultRating
}

// ContentSource fetches tree content from the catalogue back end.
type ContentSource interface {
	Root(ctx context.Context) ([]Node, error)
	Children(ctx context.Context, nodeID string) ([]Node, error)
	// AssetByUID resolves a server-side unique asset id; implementations
	// return an error matching ErrAssetNotFound for unknown ids.
	AssetByUID(ctx context.Context, uid string) (Node, error)
}

// RatingPolicy answers whether a programme rating is locked for the
// current viewer settings.
type RatingPolicy interface {
	IsRatingLocked(ctx context.Context, rating int) (bool, error)
}

// Jump selects one of the two jump modes: a direct asset jump when
// AssetUID is set, otherwise a wholesale path replacement.
type Jump struct {
	AssetUID string   `json:"assetUid,omitempty"`
	Path     []string `json:"path,omitempty"`
}

// Navigator holds one browse session. The path stack and the two PIN
// session flags live for the session; collaborators are fixed at
// construction.
type Navigator struct {
	source ContentSource
	pins   pin.Prompter
	policy RatingPolicy
	logger zerolog.Logger

	mu            sync.Mutex
	folderPath    []string
	masterInFocus bool
	// Session unlock flags. Adult gating and rating gating unlock
	// independently: passing one PIN dialog never opens the other gate.
	adultUnlocked  bool
	ratingUnlocked bool
}

// Deps holds the navigator's collaborators.
type Deps struct {
	Source ContentSource
	Pins   pin.Prompter
	Policy RatingPolicy
	Logger zerolog.Logger
}

// NewNavigator wires a Navigator with an empty path. Callers start a
// session with Reset.
func NewNavigator(d Deps) *Navigator {
	return &Navigator{
		source: d.Source,
		pins:   d.Pins,
		policy: d.Policy,
		logger: d.Logger,
	}
}

// Reset starts the session over: the path collapses to the single root
// entry, focus returns to the master pane and the root content is fetched
// for it.
func (n *Navigator) Reset(ctx context.Context) ([]Node, error) {
	nodes, err := n.source.Root(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch root: %w", err)
	}

	n.mu.Lock()
	n.folderPath = []string{RootID}
	n.masterInFocus = true
	n.mu.Unlock()

	return nodes, nil
}

// NavigateDeeper descends into target: adult nodes require PIN entry
// first (once per session), then the target's content is fetched for the
// unfocused pane, the id is pushed and focus flips. On PIN cancellation
// the stack and focus are left untouched and pin.ErrCancelled is
// returned.
func (n *Navigator) NavigateDeeper(ctx context.Context, target Node) ([]Node, error) {
	if err := n.unlockAdult(ctx, target); err != nil {
		return nil, err
	}

	nodes, err := n.source.Children(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch children of %q: %w", target.ID, err)
	}

	n.mu.Lock()
	n.folderPath = append(n.folderPath, target.ID)
	n.masterInFocus = !n.masterInFocus
	n.mu.Unlock()

	n.logger.Debug().Str("node", target.ID).Int("depth", n.Depth()).Msg("navigated deeper")
	return nodes, nil
}

// NavigateBack pops the path tip and fetches the content of the new tip
// for the pane that regains focus. On an empty or root-only path it is a
// no-op.
func (n *Navigator) NavigateBack(ctx context.Context) ([]Node, error) {
	n.mu.Lock()
	if len(n.folderPath) <= 1 {
		n.mu.Unlock()
		return nil, nil
	}
	n.folderPath = n.folderPath[:len(n.folderPath)-1]
	n.masterInFocus = !n.masterInFocus
	tip := n.folderPath[len(n.folderPath)-1]
	n.mu.Unlock()

	if tip == RootID {
		return n.source.Root(ctx)
	}
	return n.source.Children(ctx, tip)
}

// JumpToContent performs one of the two jump modes. A direct asset jump
// resolves the server-side id, clears the path entirely and focuses the
// master pane. A path jump replaces the stack wholesale and recomputes
// focus from the stack's parity: master iff the new length is odd.
func (n *Navigator) JumpToContent(ctx context.Context, jump Jump) ([]Node, error) {
	if jump.AssetUID != "" {
		asset, err := n.source.AssetByUID(ctx, jump.AssetUID)
		if err != nil {
			if errors.Is(err, ErrAssetNotFound) {
				return nil, fmt.Errorf("jump to %q: %w", jump.AssetUID, ErrAssetNotFound)
			}
			return nil, fmt.Errorf("resolve asset %q: %w", jump.AssetUID, err)
		}

		n.mu.Lock()
		n.folderPath = nil
		n.masterInFocus = true
		n.mu.Unlock()

		return []Node{asset}, nil
	}

	path := append([]string(nil), jump.Path...)
	var (
		nodes []Node
		err   error
	)
	if len(path) == 0 || path[len(path)-1] == RootID {
		nodes, err = n.source.Root(ctx)
	} else {
		nodes, err = n.source.Children(ctx, path[len(path)-1])
	}
	if err != nil {
		return nil, fmt.Errorf("fetch jump target: %w", err)
	}

	n.mu.Lock()
	n.folderPath = path
	n.masterInFocus = len(path)%2 == 1
	n.mu.Unlock()

	return nodes, nil
}

// ShowFullAssetInfo gates the full detail view. Adult targets and
// rating-locked targets each require their own PIN entry, unlocked
// independently for the rest of the session.
func (n *Navigator) ShowFullAssetInfo(ctx context.Context, target Node) (Node, error) {
	if err := n.unlockAdult(ctx, target); err != nil {
		return Node{}, err
	}
	if err := n.unlockRating(ctx, target); err != nil {
		return Node{}, err
	}

	if target.UniqueID != "" {
		full, err := n.source.AssetByUID(ctx, target.UniqueID)
		if err != nil {
			return Node{}, fmt.Errorf("fetch asset info %q: %w", target.UniqueID, err)
		}
		return full, nil
	}
	return target, nil
}

// unlockAdult prompts for the adult PIN when target needs it and the
// session has not unlocked it yet.
func (n *Navigator) unlockAdult(ctx context.Context, target Node) error {
	if !target.IsAdult() {
		return nil
	}
	n.mu.Lock()
	unlocked := n.adultUnlocked
	n.mu.Unlock()
	if unlocked {
		return nil
	}

	ok, err := n.pins.RequestPin(ctx, pin.KindAdult)
	if err != nil {
		return fmt.Errorf("adult pin entry: %w", err)
	}
	if !ok {
		return pin.ErrCancelled
	}

	n.mu.Lock()
	n.adultUnlocked = true
	n.mu.Unlock()
	return nil
}

// unlockRating prompts for the parental PIN when the target's rating is
// locked and the session has not unlocked ratings yet.
func (n *Navigator) unlockRating(ctx context.Context, target Node) error {
	n.mu.Lock()
	unlocked := n.ratingUnlocked
	n.mu.Unlock()
	if unlocked {
		return nil
	}

	locked, err := n.policy.IsRatingLocked(ctx, target.Rating)
	if err != nil {
		return fmt.Errorf("rating check: %w", err)
	}
	if !locked {
		return nil
	}

	ok, err := n.pins.RequestPin(ctx, pin.KindParental)
	if err != nil {
		return fmt.Errorf("parental pin entry: %w", err)
	}
	if !ok {
		return pin.ErrCancelled
	}

	n.mu.Lock()
	n.ratingUnlocked = true
	n.mu.Unlock()
	return nil
}

// Path returns a copy of the current breadcrumb.
func (n *Navigator) Path() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.folderPath...)
}

// Depth is the current navigation depth, equal to the path length.
func (n *Navigator) Depth() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.folderPath)
}

// MasterInFocus reports which pane holds the active path tip.
func (n *Navigator) MasterInFocus() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.masterInFocus
}
