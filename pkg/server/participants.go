package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
	"github.com/qieqieplus/meeting-view/pkg/session"
)

// Simulator drives an in-process SDK. Sessions backed by a real SDK reject
// the simulation endpoints.
type Simulator interface {
	Join(p mediasdk.Participant) error
	Leave(id string) error
	Update(p mediasdk.Participant) error
	SetStream(id string, kind mediasdk.StreamKind, enabled bool) error
	SetScore(id string, score *float64) error
}

// PinRequest selects what to pin. An empty mode pins share and camera.
type PinRequest struct {
	Mode mediasdk.PinMode `json:"mode"`
}

// StreamRequest enables or disables one stream
type StreamRequest struct {
	Kind    mediasdk.StreamKind `json:"kind"`
	Enabled bool                `json:"enabled"`
}

// ScoreRequest sets the simulated score. A null score means unknown.
type ScoreRequest struct {
	Score *float64 `json:"score"`
}

func simulatorFor(w http.ResponseWriter, sess *session.Session) (Simulator, bool) {
	sim, ok := sess.SDK().(Simulator)
	if !ok {
		http.Error(w, "Session SDK does not support simulation", http.StatusNotImplemented)
		return nil, false
	}
	return sim, true
}

// handleParticipants lists mirrored participants or simulates a join
func (s *HTTPServer) handleParticipants(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, sess.Store().Participants())
	case http.MethodPost:
		sim, ok := simulatorFor(w, sess)
		if !ok {
			return
		}
		var p mediasdk.Participant
		if !decodeJSON(w, r, &p) {
			return
		}
		if p.ID == "" {
			http.Error(w, "Participant ID is required", http.StatusBadRequest)
			return
		}
		if err := sim.Join(p); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "joined", "participant_id": p.ID})
	default:
		methodNotAllowed(w)
	}
}

// handleParticipantByID reads, updates or removes one participant
func (s *HTTPServer) handleParticipantByID(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	participantID := GetPathParam(r, "participant_id")

	switch r.Method {
	case http.MethodGet:
		p, found := sess.Store().Participant(participantID)
		if !found {
			writeError(w, mediasdk.ErrParticipantNotFound)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPatch:
		sim, ok := simulatorFor(w, sess)
		if !ok {
			return
		}
		var p mediasdk.Participant
		if !decodeJSON(w, r, &p) {
			return
		}
		p.ID = participantID
		if err := sim.Update(p); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "updated", "participant_id": participantID})
	case http.MethodDelete:
		sim, ok := simulatorFor(w, sess)
		if !ok {
			return
		}
		if err := sim.Leave(participantID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "left", "participant_id": participantID})
	default:
		methodNotAllowed(w)
	}
}

func pinMode(w http.ResponseWriter, r *http.Request) (mediasdk.PinMode, bool) {
	req := PinRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return "", false
	}
	switch req.Mode {
	case "":
		return mediasdk.PinShareAndCam, true
	case mediasdk.PinCam, mediasdk.PinShare, mediasdk.PinShareAndCam:
		return req.Mode, true
	default:
		http.Error(w, "Unknown pin mode", http.StatusBadRequest)
		return "", false
	}
}

// handlePin pins a participant and switches the layout to PIN priority
func (s *HTTPServer) handlePin(w http.ResponseWriter, r *http.Request) {
	s.handlePinChange(w, r, true)
}

// handleUnpin clears a pin
func (s *HTTPServer) handleUnpin(w http.ResponseWriter, r *http.Request) {
	s.handlePinChange(w, r, false)
}

func (s *HTTPServer) handlePinChange(w http.ResponseWriter, r *http.Request, pin bool) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	mode, ok := pinMode(w, r)
	if !ok {
		return
	}

	participantID := GetPathParam(r, "participant_id")
	var err error
	if pin {
		err = sess.Pin(participantID, mode)
	} else {
		err = sess.Unpin(participantID, mode)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutResponse(sess.Store()))
}

// handleVisibility reports a viewport intersection change for a tile
func (s *HTTPServer) handleVisibility(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var req struct {
		Visible bool `json:"visible"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sess.SetTileVisible(GetPathParam(r, "participant_id"), req.Visible); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"visible": sess.Visible()})
}

// handleHover records pointer hover over a tile
func (s *HTTPServer) handleHover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var req struct {
		Hover bool `json:"hover"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sess.SetTileHover(GetPathParam(r, "participant_id"), req.Hover); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hover": req.Hover})
}

// handleHand raises (POST) or lowers (DELETE) a participant's hand
func (s *HTTPServer) handleHand(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	st := sess.Store()
	participantID := GetPathParam(r, "participant_id")

	switch r.Method {
	case http.MethodPost:
		if !st.Session().Features.RaiseHand {
			http.Error(w, "Raise hand is disabled for this session", http.StatusForbidden)
			return
		}
		st.RaiseHand(participantID)
	case http.MethodDelete:
		st.LowerHand(participantID)
	default:
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"raised_hands": st.RaisedHands()})
}

// handleStreams simulates a stream starting or stopping
func (s *HTTPServer) handleStreams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	sim, ok := simulatorFor(w, sess)
	if !ok {
		return
	}
	var req StreamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sim.SetStream(GetPathParam(r, "participant_id"), req.Kind, req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, req)
}

// handleScore sets the score the simulated SDK reports
func (s *HTTPServer) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	sim, ok := simulatorFor(w, sess)
	if !ok {
		return
	}
	var req ScoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Score != nil && (*req.Score < 0 || *req.Score > 10) {
		http.Error(w, "score must be between 0 and 10", http.StatusBadRequest)
		return
	}
	if err := sim.SetScore(GetPathParam(r, "participant_id"), req.Score); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
