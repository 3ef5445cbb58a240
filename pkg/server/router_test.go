package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParamRouter(t *testing.T) {
	pr := NewParamRouter()
	var hit, gotID, gotPoll string
	pr.Handle("/api/sessions/{meeting_id}/polls/drafts", func(w http.ResponseWriter, r *http.Request) {
		hit, gotID = "drafts", GetPathParam(r, "meeting_id")
	})
	pr.Handle("/api/sessions/{meeting_id}/polls/{poll_id}", func(w http.ResponseWriter, r *http.Request) {
		hit, gotID, gotPoll = "poll", GetPathParam(r, "meeting_id"), GetPathParam(r, "poll_id")
	})

	tests := []struct {
		path   string
		hit    string
		id     string
		poll   string
		status int
	}{
		{"/api/sessions/m1/polls/drafts", "drafts", "m1", "", http.StatusOK},
		{"/api/sessions/m1/polls/p9", "poll", "m1", "p9", http.StatusOK},
		{"/api/sessions/m1/polls/p9/", "poll", "m1", "p9", http.StatusOK},
		{"/api/sessions/m1/polls", "", "", "", http.StatusNotFound},
		{"/api/sessions//polls/p9", "", "", "", http.StatusNotFound},
	}
	for _, test := range tests {
		hit, gotID, gotPoll = "", "", ""
		rec := httptest.NewRecorder()
		pr.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, test.path, nil))

		if rec.Code != test.status {
			t.Errorf("%s: status = %d, want %d", test.path, rec.Code, test.status)
		}
		if hit != test.hit || gotID != test.id || gotPoll != test.poll {
			t.Errorf("%s: got (%q, %q, %q), want (%q, %q, %q)",
				test.path, hit, gotID, gotPoll, test.hit, test.id, test.poll)
		}
	}
}

func TestGetPathParam_Missing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	if got := GetPathParam(r, "meeting_id"); got != "" {
		t.Errorf("GetPathParam() = %q, want empty", got)
	}
}
