package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	backend "github.com/redis/go-redis/v9"

	"github.com/matzehuels/blockstack/pkg/cache"
	"github.com/matzehuels/blockstack/pkg/config"
	bserrors "github.com/matzehuels/blockstack/pkg/errors"
	"github.com/matzehuels/blockstack/pkg/geom"
	"github.com/matzehuels/blockstack/pkg/pipeline"
	"github.com/matzehuels/blockstack/pkg/scene"
)

// pairScene places b close enough below a for the two to be bumped apart.
const pairScene = `
[[blocks]]
id = "a"
type = "print"
previous = true
next = true

[[blocks]]
id = "b"
type = "print"
x = 5
y = 30
previous = true
next = true
`

func newTestServer(t *testing.T, c cache.Cache) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.NoJitter()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv, err := newServer(pipeline.NewRunner(c, nil, logger), cfg, logger)
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	return srv.handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) scene.BlockState {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var state scene.BlockState
	if err := json.NewDecoder(w.Body).Decode(&state); err != nil {
		t.Fatalf("decode block: %v", err)
	}
	return state
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp.Code
}

func TestServeHealth(t *testing.T) {
	h := newTestServer(t, nil)
	w := do(t, h, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestServeSceneLifecycle(t *testing.T) {
	h := newTestServer(t, nil)

	w := do(t, h, http.MethodPut, "/scene", pairScene)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT /scene status = %d, body = %s", w.Code, w.Body.String())
	}
	var snap scene.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(snap.Blocks))
	}

	// The settled scene has b bumped away from a.
	if b := decodeState(t, do(t, h, http.MethodGet, "/blocks/b", "")); b.Position != geom.Pt(28, 52) {
		t.Errorf("b at %v, want (28, 52)", b.Position)
	}

	missing := do(t, h, http.MethodGet, "/blocks/nope", "")
	if missing.Code != http.StatusNotFound {
		t.Errorf("missing block status = %d, want 404", missing.Code)
	}
	if code := decodeErrorCode(t, missing); code != "NOT_FOUND" {
		t.Errorf("missing block code = %q, want NOT_FOUND", code)
	}

	// Dragging b's previous connection onto a's next connection at
	// (16, 24) connects b under a.
	b := decodeState(t, do(t, h, http.MethodPost, "/blocks/b/drag", `{"dx": -28, "dy": -28}`))
	if b.Parent != "a" {
		t.Fatalf("b parent = %q, want a", b.Parent)
	}
	if b.Position != geom.Pt(0, 24) {
		t.Errorf("connected b at %v, want (0, 24)", b.Position)
	}

	conflict := do(t, h, http.MethodPost, "/blocks/b/move", `{"dx": 5, "dy": 0}`)
	if conflict.Code != http.StatusConflict {
		t.Errorf("moving a child status = %d, want 409", conflict.Code)
	}
	if code := decodeErrorCode(t, conflict); code != "HAS_PARENT" {
		t.Errorf("moving a child code = %q, want HAS_PARENT", code)
	}

	if a := decodeState(t, do(t, h, http.MethodPost, "/blocks/a/move", `{"dx": 100, "dy": 0}`)); a.Position != geom.Pt(100, 0) {
		t.Errorf("a at %v, want (100, 0)", a.Position)
	}
	if b := decodeState(t, do(t, h, http.MethodGet, "/blocks/b", "")); b.Position != geom.Pt(100, 24) {
		t.Errorf("b at %v, want (100, 24) after its parent moved", b.Position)
	}
}

func TestServeRejectsBadRequests(t *testing.T) {
	h := newTestServer(t, nil)
	do(t, h, http.MethodPut, "/scene", pairScene)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed body", http.MethodPost, "/blocks/a/move", `{"dx":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/blocks/a/move", `{"dz": 1}`, http.StatusBadRequest},
		{"unknown format", http.MethodGet, "/export/png", "", http.StatusBadRequest},
		{"empty scene", http.MethodPut, "/scene", "", http.StatusBadRequest},
		{"scene path over http", http.MethodPost, "/render", `{"scene_path": "/etc/passwd"}`, http.StatusBadRequest},
		{"drag missing block", http.MethodPost, "/blocks/nope/drag", `{"dx": 1, "dy": 1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestServeExportCachesInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := cache.NewRedisCacheFromClient(client)
	t.Cleanup(func() { store.Close() })

	h := newTestServer(t, store)
	do(t, h, http.MethodPut, "/scene", pairScene)

	first := do(t, h, http.MethodGet, "/export/dot", "")
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", first.Code, first.Body.String())
	}
	if !strings.HasPrefix(first.Body.String(), "digraph Workspace {") {
		t.Errorf("export is not a digraph: %q", first.Body.String())
	}
	if got := first.Header().Get("X-Cache"); got != "miss" {
		t.Errorf("first X-Cache = %q, want miss", got)
	}
	if len(mr.Keys()) == 0 {
		t.Error("nothing was stored in redis")
	}

	second := do(t, h, http.MethodGet, "/export/dot", "")
	if got := second.Header().Get("X-Cache"); got != "hit" {
		t.Errorf("second X-Cache = %q, want hit", got)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached export differs")
	}

	// Moving a block changes the snapshot and so the cache key.
	do(t, h, http.MethodPost, "/blocks/a/move", `{"dx": 40, "dy": 0}`)
	third := do(t, h, http.MethodGet, "/export/dot", "")
	if got := third.Header().Get("X-Cache"); got != "miss" {
		t.Errorf("X-Cache after move = %q, want miss", got)
	}
}

func TestServeRender(t *testing.T) {
	h := newTestServer(t, nil)

	body, err := json.Marshal(map[string]any{
		"scene":   pairScene,
		"formats": []string{"json", "dot"},
	})
	if err != nil {
		t.Fatal(err)
	}
	w := do(t, h, http.MethodPost, "/render", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp renderResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Blocks != 2 {
		t.Errorf("Blocks = %d, want 2", resp.Blocks)
	}
	if resp.SnapshotKey == "" {
		t.Error("missing snapshot key")
	}
	if !strings.Contains(resp.Artifacts["json"], `"id": "b"`) {
		t.Error("json artifact missing block b")
	}
	if !strings.HasPrefix(resp.Artifacts["dot"], "digraph Workspace {") {
		t.Error("dot artifact is not a digraph")
	}

	// The live workspace is not touched by a render.
	live := do(t, h, http.MethodGet, "/blocks", "")
	var snap scene.Snapshot
	if err := json.NewDecoder(live.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Blocks) != 0 {
		t.Errorf("live workspace has %d blocks, want 0", len(snap.Blocks))
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"NOT_FOUND", http.StatusNotFound},
		{"HAS_PARENT", http.StatusConflict},
		{"INVALID_SCENE", http.StatusBadRequest},
		{"HEADLESS", http.StatusUnprocessableEntity},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(bserrors.Code(tt.code)); got != tt.want {
			t.Errorf("statusOf(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
