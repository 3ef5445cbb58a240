package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, ts *testServer, path string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	return websocket.DefaultDialer.Dial(url, nil)
}

// readUntil reads messages until one has the given type
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() waiting for %s: %v", msgType, err)
		}
		if msg["type"] == msgType {
			return msg
		}
	}
}

func TestWebSocket_SnapshotThenChanges(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, "m1", nil)

	conn, _, err := dial(t, ts, "/ws/state/m1?field=sidebar")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	snap := readUntil(t, conn, MessageTypeSnapshot)
	state, ok := snap["state"].(map[string]interface{})
	if !ok || state["meeting_layout"] != "GRID" {
		t.Fatalf("snapshot state = %v, want meeting_layout GRID", snap["state"])
	}

	// Filtered out: only sidebar changes are forwarded
	ts.do(t, http.MethodPost, "/api/sessions/m1/overlay", nil, nil)
	ts.do(t, http.MethodPut, "/api/sessions/m1/sidebar", map[string]string{"mode": "CHAT"}, nil)

	msg := readUntil(t, conn, MessageTypeStateChanged)
	if msg["field"] != "sidebar" {
		t.Errorf("state_changed field = %v, want sidebar", msg["field"])
	}
	if _, ok := msg["state"]; ok {
		t.Error("state_changed carries state without full=true")
	}
}

func TestWebSocket_VisibilityAndFullScreen(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, "m1", nil)

	conn, _, err := dial(t, ts, "/ws/state/m1?full=true")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	readUntil(t, conn, MessageTypeSnapshot)

	ts.do(t, http.MethodPost, "/api/sessions/m1/participants", map[string]interface{}{"id": "a"}, nil)
	msg := readUntil(t, conn, MessageTypeVisibility)
	if msg["participant_id"] != "a" || msg["visible"] != true {
		t.Errorf("visibility message = %v, want a visible", msg)
	}

	ts.do(t, http.MethodPost, "/api/sessions/m1/fullscreen", nil, nil)
	readUntil(t, conn, MessageTypeFullScreen)
}

func TestWebSocket_UnknownSession(t *testing.T) {
	ts := newTestServer(t)
	_, resp, err := dial(t, ts, "/ws/state/missing")
	if err == nil {
		t.Fatal("Dial() succeeded for an unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", resp)
	}
}

func TestWebSocket_ClosedWithSession(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, "m1", nil)

	conn, _, err := dial(t, ts, "/ws/state/m1")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	readUntil(t, conn, MessageTypeSnapshot)

	ts.do(t, http.MethodDelete, "/api/sessions/m1", nil, nil)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Errorf("ReadMessage() error = %v, want normal closure", err)
			}
			return
		}
	}
}

func TestParseConnectionConfig(t *testing.T) {
	cc := ParseConnectionConfig(map[string][]string{
		"field":      {"polls", "layout"},
		"full":       {"true"},
		"visibility": {"false"},
		"queue_size": {"7"},
	}, 100)

	if !cc.FullState || cc.Visibility || cc.QueueSize != 7 {
		t.Errorf("config = %+v, want full state, no visibility, queue 7", cc)
	}
	if !cc.wants("polls") || cc.wants("sidebar") {
		t.Errorf("wants() does not honor field filter %v", cc.Fields)
	}

	def := ParseConnectionConfig(nil, 100)
	if def.QueueSize != 100 || !def.Visibility || !def.wants("anything") {
		t.Errorf("default config = %+v", def)
	}
}
