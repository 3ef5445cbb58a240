package server

import (
	"net/http"

	"github.com/qieqieplus/meeting-view/pkg/config"
	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
)

// MediaRequest turns one of a participant's streams on or off
type MediaRequest struct {
	Kind    mediasdk.StreamKind `json:"kind"`
	Enabled bool                `json:"enabled"`
}

// ToggleRequest starts or stops a meeting feature
type ToggleRequest struct {
	Active bool `json:"active"`
}

// HLSRequest starts or stops HLS. DownstreamURL is ignored when stopping.
type HLSRequest struct {
	Active        bool   `json:"active"`
	DownstreamURL string `json:"downstream_url"`
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		methodNotAllowed(w)
		return false
	}
	return true
}

// handleMedia switches a participant's mic, webcam or screen share
func (s *HTTPServer) handleMedia(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var req MediaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := GetPathParam(r, "participant_id")
	if err := sess.SetParticipantMedia(id, req.Kind, req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	p, _ := sess.Store().Participant(id)
	writeJSON(w, http.StatusOK, p)
}

// handleRemove drops another participant from the meeting
func (s *HTTPServer) handleRemove(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	if err := sess.RemoveParticipant(GetPathParam(r, "participant_id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMeetingMode switches between CONFERENCE and VIEWER
func (s *HTTPServer) handleMeetingMode(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sess.SetMeetingMode(req.Mode); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"meeting_mode": sess.Store().MeetingMode()})
}

// handleWhiteboard starts or stops the whiteboard
func (s *HTTPServer) handleWhiteboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, sess.Store().Whiteboard())
	case http.MethodPut:
		var req ToggleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := sess.ToggleWhiteboard(req.Active); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Store().Whiteboard())
	default:
		methodNotAllowed(w)
	}
}

// handleWhiteboardDrawing replaces the drawing of a started whiteboard
func (s *HTTPServer) handleWhiteboardDrawing(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var drawing map[string]interface{}
	if !decodeJSON(w, r, &drawing) {
		return
	}
	if err := sess.DrawOnWhiteboard(drawing); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Store().Whiteboard())
}

// handleRecording starts or stops the recording
func (s *HTTPServer) handleRecording(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var req ToggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sess.SetRecording(req.Active); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"recording_state": sess.Snapshot().RecordingState})
}

// handleHLS starts or stops HLS
func (s *HTTPServer) handleHLS(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var req HLSRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Active && !config.ValidURL(req.DownstreamURL) {
		http.Error(w, "downstream_url must be an absolute http(s) URL", http.StatusBadRequest)
		return
	}
	if err := sess.SetHLS(req.Active, req.DownstreamURL); err != nil {
		writeError(w, err)
		return
	}
	snap := sess.Snapshot()
	writeJSON(w, http.StatusOK, map[string]string{
		"hls_state":      snap.HLSState,
		"downstream_url": snap.DownstreamURL,
	})
}

// handleLiveStream reads or replaces the RTMP outputs
func (s *HTTPServer) handleLiveStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, sess.Store().LiveStreamConfig())
	case http.MethodPut:
		var outputs []config.LiveStreamOutput
		if !decodeJSON(w, r, &outputs) {
			return
		}
		if err := sess.SetLiveStreamOutputs(outputs); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Store().LiveStreamConfig())
	default:
		methodNotAllowed(w)
	}
}

// handleLeave leaves the meeting and closes the session
func (s *HTTPServer) handleLeave(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	redirect, err := s.manager.Leave(GetPathParam(r, "meeting_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect_on_leave": redirect})
}

// handleEnd ends the meeting for everyone
func (s *HTTPServer) handleEnd(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.manager.End(GetPathParam(r, "meeting_id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
