package traxis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmcfet/promoUI-sub009/internal/navigation"
)

func TestPlayoutURL(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/traxis/entitlements/ent-1/playout" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Account"); got != "acct-9" {
			t.Errorf("account header = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"url": "rtsp://vod/ent-1"})
	}))
	defer srv.Close()

	u, err := New(srv.URL, "acct-9").PlayoutURL(context.Background(), "ent-1")
	if err != nil {
		t.Fatalf("PlayoutURL: %v", err)
	}
	if u != "rtsp://vod/ent-1" {
		t.Errorf("url = %q", u)
	}
}

func TestPlayoutURL_StatusCarriesThrough(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
	}{
		{"forbidden", http.StatusForbidden},
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "denied", tt.status)
			}))
			defer srv.Close()

			_, err := New(srv.URL, "a").PlayoutURL(context.Background(), "ent-1")
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want StatusError", err)
			}
			if se.HTTPStatus() != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", se.HTTPStatus(), tt.status)
			}
		})
	}
}

func TestGetEntitlementForCatchUp(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/traxis/catchup/7/100/entitlement" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"entitlementId": "ent-cu"})
	}))
	defer srv.Close()

	id, err := New(srv.URL, "a").GetEntitlementForCatchUp(context.Background(), 7, 100)
	if err != nil {
		t.Fatalf("GetEntitlementForCatchUp: %v", err)
	}
	if id != "ent-cu" {
		t.Errorf("entitlement = %q", id)
	}
}

func TestBookmarks(t *testing.T) {
	t.Parallel()

	store := map[string]int64{"crid.a": 490}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.URL.Path[len("/traxis/bookmarks/"):]
		switch r.Method {
		case http.MethodGet:
			pos, ok := store[uid]
			if !ok {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(map[string]int64{"positionSeconds": pos})
		case http.MethodPut:
			var body map[string]int64
			json.NewDecoder(r.Body).Decode(&body)
			store[uid] = body["positionSeconds"]
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			if _, ok := store[uid]; !ok {
				http.NotFound(w, r)
				return
			}
			delete(store, uid)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "a")
	ctx := context.Background()

	pos, err := c.GetBookmark(ctx, "crid.a")
	if err != nil {
		t.Fatalf("GetBookmark: %v", err)
	}
	if pos != 490*time.Second {
		t.Errorf("position = %v, want 490s", pos)
	}

	// Absent bookmark reads as zero, not as an error.
	pos, err = c.GetBookmark(ctx, "crid.none")
	if err != nil || pos != 0 {
		t.Errorf("GetBookmark(absent) = %v, %v; want 0, nil", pos, err)
	}

	if err := c.SetBookmark(ctx, "crid.b", 120*time.Second); err != nil {
		t.Fatalf("SetBookmark: %v", err)
	}
	if store["crid.b"] != 120 {
		t.Errorf("stored = %d, want 120", store["crid.b"])
	}

	if err := c.DeleteBookmark(ctx, "crid.a"); err != nil {
		t.Fatalf("DeleteBookmark: %v", err)
	}
	// Deleting again is still fine.
	if err := c.DeleteBookmark(ctx, "crid.a"); err != nil {
		t.Fatalf("DeleteBookmark(absent): %v", err)
	}
}

func TestConfirmPurchase(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/traxis/entitlements/ent-1/purchase" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	if err := New(srv.URL, "a").ConfirmPurchase(context.Background(), "ent-1"); err != nil {
		t.Fatalf("ConfirmPurchase: %v", err)
	}
}

func TestCatalogue(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/traxis/catalogue/root":
			json.NewEncoder(w).Encode(map[string]any{
				"nodes": []navigation.Node{{ID: "movies"}, {ID: "series"}},
			})
		case "/traxis/catalogue/nodes/movies/children":
			json.NewEncoder(w).Encode(map[string]any{
				"nodes": []navigation.Node{{ID: "m1", UniqueID: "crid.m1", Leaf: true}},
			})
		case "/traxis/catalogue/assets/crid.m1":
			json.NewEncoder(w).Encode(navigation.Node{ID: "m1", UniqueID: "crid.m1", Leaf: true})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "a")
	ctx := context.Background()

	root, err := c.Root(ctx)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if len(root) != 2 {
		t.Errorf("root = %+v", root)
	}

	kids, err := c.Children(ctx, "movies")
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(kids) != 1 || kids[0].UniqueID != "crid.m1" {
		t.Errorf("children = %+v", kids)
	}

	asset, err := c.AssetByUID(ctx, "crid.m1")
	if err != nil {
		t.Fatalf("AssetByUID: %v", err)
	}
	if asset.ID != "m1" {
		t.Errorf("asset = %+v", asset)
	}

	_, err = c.AssetByUID(ctx, "crid.missing")
	if !errors.Is(err, navigation.ErrAssetNotFound) {
		t.Fatalf("err = %v, want navigation.ErrAssetNotFound", err)
	}
}
