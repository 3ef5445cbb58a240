package server

import (
	"net/http"
	"time"

	"github.com/qieqieplus/meeting-view/pkg/store"
)

// PollRequest composes a poll. TimeoutSeconds of zero means no timeout.
type PollRequest struct {
	ID             string             `json:"id,omitempty"`
	Question       string             `json:"question"`
	Options        []store.PollOption `json:"options"`
	TimeoutSeconds int                `json:"timeout_seconds"`
}

func (p PollRequest) draft() store.DraftPoll {
	return store.DraftPoll{
		ID:       p.ID,
		Question: p.Question,
		Options:  p.Options,
		Timeout:  time.Duration(p.TimeoutSeconds) * time.Second,
	}
}

// SubmissionRequest answers a poll
type SubmissionRequest struct {
	ParticipantID string `json:"participant_id"`
	OptionID      string `json:"option_id"`
}

// handlePolls lists created polls or creates one directly
func (s *HTTPServer) handlePolls(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	st := sess.Store()

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, st.Polls())
	case http.MethodPost:
		var req PollRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		d := req.draft()
		poll, err := st.CreatePoll(d.Question, d.Options, d.Timeout)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, poll)
	default:
		methodNotAllowed(w)
	}
}

// handleDrafts lists drafts or saves a new one
func (s *HTTPServer) handleDrafts(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	st := sess.Store()

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, st.Drafts())
	case http.MethodPost:
		var req PollRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		req.ID = ""
		d, err := st.SaveDraft(req.draft())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, d)
	default:
		methodNotAllowed(w)
	}
}

// handleDraftByID replaces or discards a draft
func (s *HTTPServer) handleDraftByID(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	st := sess.Store()
	draftID := GetPathParam(r, "draft_id")

	switch r.Method {
	case http.MethodPut:
		var req PollRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		req.ID = draftID
		d, err := st.SaveDraft(req.draft())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	case http.MethodDelete:
		if err := st.RemoveDraft(draftID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	default:
		methodNotAllowed(w)
	}
}

// handleSubmitDraft turns a draft into a created poll
func (s *HTTPServer) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	poll, err := sess.Store().SubmitDraft(GetPathParam(r, "draft_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, poll)
}

// handleEndPoll adds the poll to the ended set
func (s *HTTPServer) handleEndPoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	pollID := GetPathParam(r, "poll_id")
	if err := sess.Store().EndPoll(pollID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"poll_id": pollID, "is_active": false})
}

// handleSubmissions lists answers with a tally, or records one
func (s *HTTPServer) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	st := sess.Store()
	pollID := GetPathParam(r, "poll_id")

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"poll_id":     pollID,
			"is_active":   st.IsActive(pollID),
			"submissions": st.Submissions(pollID),
			"tally":       st.Tally(pollID),
		})
	case http.MethodPost:
		var req SubmissionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := st.Submit(pollID, req.ParticipantID, req.OptionID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"poll_id": pollID, "tally": st.Tally(pollID)})
	default:
		methodNotAllowed(w)
	}
}
