package navigation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/jmcfet/promoUI-sub009/internal/pin"
)

type fakeSource struct {
	rootNodes []Node
	children  map[string][]Node
	assets    map[string]Node
	err       error
}

func (s *fakeSource) Root(ctx context.Context) ([]Node, error) {
	return s.rootNodes, s.err
}

func (s *fakeSource) Children(ctx context.Context, nodeID string) ([]Node, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.children[nodeID], nil
}

func (s *fakeSource) AssetByUID(ctx context.Context, uid string) (Node, error) {
	a, ok := s.assets[uid]
	if !ok {
		return Node{}, fmt.Errorf("uid %q: %w", uid, ErrAssetNotFound)
	}
	return a, nil
}

type fakePin struct {
	ok    bool
	err   error
	calls []pin.Kind
}

func (p *fakePin) RequestPin(ctx context.Context, kind pin.Kind) (bool, error) {
	p.calls = append(p.calls, kind)
	return p.ok, p.err
}

type fakePolicy struct {
	lockedAbove int
}

func (p *fakePolicy) IsRatingLocked(ctx context.Context, rating int) (bool, error) {
	return rating > p.lockedAbove, nil
}

func newTestNavigator(src *fakeSource, pins *fakePin, policy *fakePolicy) *Navigator {
	if policy == nil {
		policy = &fakePolicy{lockedAbove: 99}
	}
	return NewNavigator(Deps{
		Source: src,
		Pins:   pins,
		Policy: policy,
		Logger: zerolog.Nop(),
	})
}

func TestReset(t *testing.T) {
	t.Parallel()
	src := &fakeSource{rootNodes: []Node{{ID: "movies"}, {ID: "series"}}}
	nav := newTestNavigator(src, &fakePin{}, nil)

	nodes, err := nav.Reset(context.Background())
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if diff := cmp.Diff(src.rootNodes, nodes); diff != "" {
		t.Errorf("root nodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{RootID}, nav.Path()); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
	if !nav.MasterInFocus() {
		t.Error("MasterInFocus = false after Reset, want true")
	}
}

func TestNavigateDeeper_PlainNode(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		rootNodes: []Node{{ID: "movies"}},
		children:  map[string][]Node{"movies": {{ID: "m1", Leaf: true}}},
	}
	pins := &fakePin{}
	nav := newTestNavigator(src, pins, nil)
	if _, err := nav.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	nodes, err := nav.NavigateDeeper(context.Background(), Node{ID: "movies", Rating: 7})
	if err != nil {
		t.Fatalf("NavigateDeeper: %v", err)
	}

	if diff := cmp.Diff(src.children["movies"], nodes); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{RootID, "movies"}, nav.Path()); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
	if nav.MasterInFocus() {
		t.Error("MasterInFocus did not toggle on descent")
	}
	if len(pins.calls) != 0 {
		t.Errorf("pin prompted %d times for a non-adult node", len(pins.calls))
	}
}

func TestNavigateDeeper_ThenBack_RestoresState(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		rootNodes: []Node{{ID: "movies"}},
		children:  map[string][]Node{"movies": {{ID: "m1"}}},
	}
	nav := newTestNavigator(src, &fakePin{}, nil)
	if _, err := nav.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	wantPath := nav.Path()
	wantFocus := nav.MasterInFocus()

	if _, err := nav.NavigateDeeper(context.Background(), Node{ID: "movies"}); err != nil {
		t.Fatalf("NavigateDeeper: %v", err)
	}
	if _, err := nav.NavigateBack(context.Background()); err != nil {
		t.Fatalf("NavigateBack: %v", err)
	}

	if diff := cmp.Diff(wantPath, nav.Path()); diff != "" {
		t.Errorf("round-trip path mismatch (-want +got):\n%s", diff)
	}
	if nav.MasterInFocus() != wantFocus {
		t.Errorf("round-trip focus = %v, want %v", nav.MasterInFocus(), wantFocus)
	}
}

func TestNavigateBack_AtRootIsNoOp(t *testing.T) {
	t.Parallel()
	src := &fakeSource{rootNodes: []Node{{ID: "movies"}}}
	nav := newTestNavigator(src, &fakePin{}, nil)
	if _, err := nav.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	nodes, err := nav.NavigateBack(context.Background())
	if err != nil {
		t.Fatalf("NavigateBack: %v", err)
	}
	if nodes != nil {
		t.Errorf("NavigateBack at root returned nodes: %v", nodes)
	}
	if got := nav.Depth(); got != 1 {
		t.Errorf("Depth = %d after no-op back, want 1", got)
	}
}

func TestNavigateDeeper_AdultNode(t *testing.T) {
	t.Parallel()

	adult := Node{ID: "late", Adult: true}

	t.Run("pin cancel leaves stack untouched", func(t *testing.T) {
		t.Parallel()
		src := &fakeSource{rootNodes: []Node{adult}}
		pins := &fakePin{ok: false}
		nav := newTestNavigator(src, pins, nil)
		if _, err := nav.Reset(context.Background()); err != nil {
			t.Fatalf("Reset: %v", err)
		}

		_, err := nav.NavigateDeeper(context.Background(), adult)
		if !errors.Is(err, pin.ErrCancelled) {
			t.Fatalf("err = %v, want pin.ErrCancelled", err)
		}
		if diff := cmp.Diff([]string{RootID}, nav.Path()); diff != "" {
			t.Errorf("path changed on cancel (-want +got):\n%s", diff)
		}
		if !nav.MasterInFocus() {
			t.Error("focus changed on cancel")
		}
	})

	t.Run("pin success prompts once per session", func(t *testing.T) {
		t.Parallel()
		src := &fakeSource{
			rootNodes: []Node{adult},
			children:  map[string][]Node{"late": {{ID: "x1", Adult: true}}, "x1": {}},
		}
		pins := &fakePin{ok: true}
		nav := newTestNavigator(src, pins, nil)
		if _, err := nav.Reset(context.Background()); err != nil {
			t.Fatalf("Reset: %v", err)
		}

		if _, err := nav.NavigateDeeper(context.Background(), adult); err != nil {
			t.Fatalf("first descent: %v", err)
		}
		if _, err := nav.NavigateDeeper(context.Background(), Node{ID: "x1", Adult: true}); err != nil {
			t.Fatalf("second descent: %v", err)
		}

		if diff := cmp.Diff([]pin.Kind{pin.KindAdult}, pins.calls); diff != "" {
			t.Errorf("pin prompts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("high rating implies adult", func(t *testing.T) {
		t.Parallel()
		src := &fakeSource{children: map[string][]Node{"r18": {}}}
		pins := &fakePin{ok: true}
		nav := newTestNavigator(src, pins, nil)

		if _, err := nav.NavigateDeeper(context.Background(), Node{ID: "r18", Rating: AdultRating}); err != nil {
			t.Fatalf("NavigateDeeper: %v", err)
		}
		if len(pins.calls) != 1 {
			t.Errorf("pin prompted %d times, want 1", len(pins.calls))
		}
	})
}

func TestJumpToContent_DirectAsset(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		rootNodes: []Node{{ID: "movies"}},
		children:  map[string][]Node{"movies": {}},
		assets:    map[string]Node{"crid.d1": {ID: "m1", UniqueID: "crid.d1", Leaf: true}},
	}
	nav := newTestNavigator(src, &fakePin{}, nil)
	if _, err := nav.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := nav.NavigateDeeper(context.Background(), Node{ID: "movies"}); err != nil {
		t.Fatalf("NavigateDeeper: %v", err)
	}

	nodes, err := nav.JumpToContent(context.Background(), Jump{AssetUID: "crid.d1"})
	if err != nil {
		t.Fatalf("JumpToContent: %v", err)
	}

	if len(nodes) != 1 || nodes[0].UniqueID != "crid.d1" {
		t.Errorf("nodes = %v, want the resolved asset", nodes)
	}
	if got := nav.Path(); len(got) != 0 {
		t.Errorf("path = %v after direct jump, want empty", got)
	}
	if !nav.MasterInFocus() {
		t.Error("direct jump should focus master")
	}
}

func TestJumpToContent_UnknownAsset(t *testing.T) {
	t.Parallel()
	src := &fakeSource{rootNodes: []Node{{ID: "movies"}}}
	nav := newTestNavigator(src, &fakePin{}, nil)
	if _, err := nav.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	_, err := nav.JumpToContent(context.Background(), Jump{AssetUID: "crid.missing"})
	if !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("err = %v, want ErrAssetNotFound", err)
	}
	// A failed jump leaves the session where it was.
	if diff := cmp.Diff([]string{RootID}, nav.Path()); diff != "" {
		t.Errorf("path changed on failed jump (-want +got):\n%s", diff)
	}
}

func TestJumpToContent_PathParity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		path      []string
		wantFocus bool
	}{
		{"odd length focuses master", []string{RootID, "movies", "action"}, true},
		{"even length focuses slave", []string{RootID, "movies"}, false},
		{"single entry focuses master", []string{RootID}, true},
		{"empty path focuses slave", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := &fakeSource{
				rootNodes: []Node{{ID: "movies"}},
				children:  map[string][]Node{"movies": {}, "action": {}},
			}
			nav := newTestNavigator(src, &fakePin{}, nil)

			if _, err := nav.JumpToContent(context.Background(), Jump{Path: tt.path}); err != nil {
				t.Fatalf("JumpToContent: %v", err)
			}
			if diff := cmp.Diff(tt.path, nav.Path()); diff != "" {
				t.Errorf("path mismatch (-want +got):\n%s", diff)
			}
			if got := nav.MasterInFocus(); got != tt.wantFocus {
				t.Errorf("MasterInFocus = %v, want %v", got, tt.wantFocus)
			}
		})
	}
}

func TestShowFullAssetInfo_IndependentGates(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		assets: map[string]Node{
			"crid.a": {ID: "a", UniqueID: "crid.a", Adult: true},
			"crid.r": {ID: "r", UniqueID: "crid.r", Rating: 15},
		},
	}
	pins := &fakePin{ok: true}
	policy := &fakePolicy{lockedAbove: 12}
	nav := newTestNavigator(src, pins, policy)

	// Adult target unlocks the adult gate only.
	if _, err := nav.ShowFullAssetInfo(context.Background(), Node{UniqueID: "crid.a", Adult: true}); err != nil {
		t.Fatalf("adult info: %v", err)
	}
	if diff := cmp.Diff([]pin.Kind{pin.KindAdult}, pins.calls); diff != "" {
		t.Fatalf("after adult target (-want +got):\n%s", diff)
	}

	// A rating-locked target still needs the parental PIN.
	if _, err := nav.ShowFullAssetInfo(context.Background(), Node{UniqueID: "crid.r", Rating: 15}); err != nil {
		t.Fatalf("rated info: %v", err)
	}
	if diff := cmp.Diff([]pin.Kind{pin.KindAdult, pin.KindParental}, pins.calls); diff != "" {
		t.Fatalf("after rated target (-want +got):\n%s", diff)
	}

	// Both gates open now: no further prompts.
	if _, err := nav.ShowFullAssetInfo(context.Background(), Node{UniqueID: "crid.r", Rating: 15}); err != nil {
		t.Fatalf("repeat rated info: %v", err)
	}
	if len(pins.calls) != 2 {
		t.Errorf("pin prompted %d times, want 2", len(pins.calls))
	}
}

func TestShowFullAssetInfo_CancelBlocksDetails(t *testing.T) {
	t.Parallel()
	src := &fakeSource{assets: map[string]Node{"crid.a": {ID: "a", UniqueID: "crid.a", Adult: true}}}
	pins := &fakePin{ok: false}
	nav := newTestNavigator(src, pins, nil)

	_, err := nav.ShowFullAssetInfo(context.Background(), Node{UniqueID: "crid.a", Adult: true})
	if !errors.Is(err, pin.ErrCancelled) {
		t.Fatalf("err = %v, want pin.ErrCancelled", err)
	}
}
