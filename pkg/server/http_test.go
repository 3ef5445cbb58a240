package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qieqieplus/meeting-view/pkg/config"
	"github.com/qieqieplus/meeting-view/pkg/layout"
	"github.com/qieqieplus/meeting-view/pkg/session"
	"github.com/qieqieplus/meeting-view/pkg/store"
)

type testServer struct {
	*httptest.Server
	manager *session.Manager
	config  *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.WebSocket.PingInterval = time.Hour

	manager := session.NewManager(*cfg, nil, session.Options{})
	ws := NewWebSocketServer(manager, cfg)
	srv := httptest.NewServer(NewHTTPServer(manager, ws))
	t.Cleanup(func() {
		srv.Close()
		manager.Shutdown()
	})
	return &testServer{Server: srv, manager: manager, config: cfg}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s decode error = %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (ts *testServer) createSession(t *testing.T, id string, extra map[string]interface{}) {
	t.Helper()
	body := map[string]interface{}{
		"meeting_id":        id,
		"redirect_on_leave": "https://example.com/bye",
	}
	for k, v := range extra {
		body[k] = v
	}
	if code := ts.do(t, http.MethodPost, "/api/sessions", body, nil); code != http.StatusCreated {
		t.Fatalf("create session status = %d, want %d", code, http.StatusCreated)
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := newTestServer(t)
	var health map[string]interface{}
	if code := ts.do(t, http.MethodGet, "/health", nil, &health); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if health["status"] != "ok" {
		t.Errorf("health = %v, want status ok", health)
	}
}

func TestHTTP_SessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, "m1", nil)

	body := map[string]interface{}{"meeting_id": "m1", "redirect_on_leave": "https://example.com/bye"}
	if code := ts.do(t, http.MethodPost, "/api/sessions", body, nil); code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want %d", code, http.StatusConflict)
	}

	body = map[string]interface{}{"meeting_id": "m2", "redirect_on_leave": "not-a-url"}
	if code := ts.do(t, http.MethodPost, "/api/sessions", body, nil); code != http.StatusBadRequest {
		t.Errorf("invalid redirect status = %d, want %d", code, http.StatusBadRequest)
	}

	var list []session.Info
	ts.do(t, http.MethodGet, "/api/sessions", nil, &list)
	if len(list) != 1 || list[0].MeetingID != "m1" {
		t.Errorf("list = %+v, want [m1]", list)
	}

	if code := ts.do(t, http.MethodDelete, "/api/sessions/m1", nil, nil); code != http.StatusOK {
		t.Errorf("delete status = %d, want 200", code)
	}
	if code := ts.do(t, http.MethodGet, "/api/sessions/m1", nil, nil); code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", code)
	}
}

func TestHTTP_PinFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, "m1", map[string]interface{}{
		"layout": map[string]interface{}{"type": "SIDEBAR", "priority": "SPEAKER"},
	})

	var lr LayoutResponse
	ts.do(t, http.MethodGet, "/api/sessions/m1/layout", nil, &lr)
	if lr.MeetingLayout != layout.ModeUnpinnedSidebar {
		t.Fatalf("meeting_layout = %v, want %v", lr.MeetingLayout, layout.ModeUnpinnedSidebar)
	}

	if code := ts.do(t, http.MethodPost, "/api/sessions/m1/participants", map[string]interface{}{"id": "a"}, nil); code != http.StatusAccepted {
		t.Fatalf("join status = %d, want 202", code)
	}

	if code := ts.do(t, http.MethodPost, "/api/sessions/m1/participants/a/pin", map[string]string{"mode": "CAM"}, &lr); code != http.StatusOK {
		t.Fatalf("pin status = %d, want 200", code)
	}
	if lr.MeetingLayout != layout.ModeSidebar {
		t.Errorf("meeting_layout after pin = %v, want %v", lr.MeetingLayout, layout.ModeSidebar)
	}

	ts.do(t, http.MethodPost, "/api/sessions/m1/participants/a/unpin", nil, &lr)
	if lr.MeetingLayout != layout.ModeUnpinnedSidebar {
		t.Errorf("meeting_layout after unpin = %v, want %v", lr.MeetingLayout, layout.ModeUnpinnedSidebar)
	}

	if code := ts.do(t, http.MethodPost, "/api/sessions/m1/participants/zz/pin", nil, nil); code != http.StatusNotFound {
		t.Errorf("pin unknown status = %d, want 404", code)
	}
}

func TestHTTP_RecorderGridSize(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, "rec", map[string]interface{}{"is_recorder": true})

	var lr LayoutResponse
	ts.do(t, http.MethodPut, "/api/sessions/rec/layout", map[string]interface{}{"grid_size": 4}, &lr)
	if lr.Layout.GridSize != layout.RecorderMaxGridSize {
		t.Errorf("grid_size = %d, want %d", lr.Layout.GridSize, layout.RecorderMaxGridSize)
	}
}

func TestHTTP_Polls(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, "m1", nil)

	var poll store.Poll
	req := PollRequest{Question: "Lunch?", Options: []store.PollOption{{Text: "Pizza"}, {Text: "Salad"}}}
	if code := ts.do(t, http.MethodPost, "/api/sessions/m1/polls", req, &poll); code != http.StatusCreated {
		t.Fatalf("create poll status = %d, want 201", code)
	}
	if !poll.Active {
		t.Error("new poll is_active = false, want true")
	}

	sub := SubmissionRequest{ParticipantID: "a", OptionID: poll.Options[0].ID}
	path := "/api/sessions/m1/polls/" + poll.ID + "/submissions"
	if code := ts.do(t, http.MethodPost, path, sub, nil); code != http.StatusCreated {
		t.Errorf("submit status = %d, want 201", code)
	}
	if code := ts.do(t, http.MethodPost, path, sub, nil); code != http.StatusConflict {
		t.Errorf("resubmit status = %d, want 409", code)
	}

	if code := ts.do(t, http.MethodPost, "/api/sessions/m1/polls/"+poll.ID+"/end", nil, nil); code != http.StatusOK {
		t.Errorf("end status = %d, want 200", code)
	}
	var polls []store.Poll
	ts.do(t, http.MethodGet, "/api/sessions/m1/polls", nil, &polls)
	if len(polls) != 1 || polls[0].Active {
		t.Errorf("polls = %+v, want one ended poll", polls)
	}

	sub.ParticipantID = "b"
	if code := ts.do(t, http.MethodPost, path, sub, nil); code != http.StatusConflict {
		t.Errorf("submit after end status = %d, want 409", code)
	}
	if code := ts.do(t, http.MethodPost, "/api/sessions/m1/polls/missing/end", nil, nil); code != http.StatusNotFound {
		t.Errorf("end missing status = %d, want 404", code)
	}
}

func TestHTTP_DraftFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, "m1", nil)

	var draft store.DraftPoll
	req := PollRequest{Question: "Q", Options: []store.PollOption{{Text: "a"}}}
	ts.do(t, http.MethodPost, "/api/sessions/m1/polls/drafts", req, &draft)

	submit := "/api/sessions/m1/polls/drafts/" + draft.ID + "/submit"
	if code := ts.do(t, http.MethodPost, submit, nil, nil); code != http.StatusBadRequest {
		t.Errorf("submit incomplete draft status = %d, want 400", code)
	}

	req.Options = append(req.Options, store.PollOption{Text: "b"})
	ts.do(t, http.MethodPut, "/api/sessions/m1/polls/drafts/"+draft.ID, req, &draft)

	var poll store.Poll
	if code := ts.do(t, http.MethodPost, submit, nil, &poll); code != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201", code)
	}
	if poll.ID != draft.ID || !poll.Active {
		t.Errorf("poll = %+v, want active poll with the draft id", poll)
	}

	var drafts []store.DraftPoll
	ts.do(t, http.MethodGet, "/api/sessions/m1/polls/drafts", nil, &drafts)
	if len(drafts) != 0 {
		t.Errorf("drafts after submit = %+v, want none", drafts)
	}
}

func TestHTTP_VisibilityAndSidebar(t *testing.T) {
	ts := newTestServer(t)
	ts.createSession(t, "m1", nil)
	ts.do(t, http.MethodPost, "/api/sessions/m1/participants", map[string]interface{}{"id": "a"}, nil)

	var vis map[string][]string
	if code := ts.do(t, http.MethodPut, "/api/sessions/m1/participants/a/visibility", map[string]bool{"visible": false}, &vis); code != http.StatusOK {
		t.Fatalf("visibility status = %d, want 200", code)
	}
	if len(vis["visible"]) != 0 {
		t.Errorf("visible = %v, want empty", vis["visible"])
	}

	var sidebar map[string]string
	ts.do(t, http.MethodPut, "/api/sessions/m1/sidebar", map[string]interface{}{"mode": "ACTIVITIES", "nested_mode": "POLLS"}, &sidebar)
	if sidebar["mode"] != "ACTIVITIES" || sidebar["nested_mode"] != "POLLS" {
		t.Errorf("sidebar = %v, want ACTIVITIES/POLLS", sidebar)
	}
	if code := ts.do(t, http.MethodPut, "/api/sessions/m1/sidebar", map[string]string{"mode": "BOGUS"}, nil); code != http.StatusBadRequest {
		t.Errorf("bad sidebar status = %d, want 400", code)
	}

	var snap store.Snapshot
	ts.do(t, http.MethodGet, "/api/sessions/m1/state", nil, &snap)
	if snap.SidebarMode != store.SidebarActivities || len(snap.Participants) != 1 {
		t.Errorf("snapshot sidebar = %q with %d participants", snap.SidebarMode, len(snap.Participants))
	}
}
