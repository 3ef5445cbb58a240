package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/qieqieplus/meeting-view/pkg/config"
	"github.com/qieqieplus/meeting-view/pkg/log"
	"github.com/qieqieplus/meeting-view/pkg/mediasdk"
	"github.com/qieqieplus/meeting-view/pkg/session"
	"github.com/qieqieplus/meeting-view/pkg/store"
)

// HTTPServer handles REST API requests
type HTTPServer struct {
	manager  *session.Manager
	wsServer *WebSocketServer
	router   http.Handler
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(manager *session.Manager, wsServer *WebSocketServer) *HTTPServer {
	server := &HTTPServer{
		manager:  manager,
		wsServer: wsServer,
		router:   http.NewServeMux(),
	}
	server.registerRoutes()
	return server
}

// ServeHTTP implements the http.Handler interface
func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Debugf("Received request: %s %s", r.Method, r.URL.Path)
	s.router.ServeHTTP(w, r)
}

// registerRoutes sets up the API routes
func (s *HTTPServer) registerRoutes() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/sessions", s.handleSessions)

	// Literal segments are registered before params that would shadow them
	pr := NewParamRouter()
	pr.Handle("/api/sessions/{meeting_id}", s.handleSessionByID)
	pr.Handle("/api/sessions/{meeting_id}/state", s.handleState)
	pr.Handle("/api/sessions/{meeting_id}/tiles", s.handleTiles)
	pr.Handle("/api/sessions/{meeting_id}/layout", s.handleLayout)
	pr.Handle("/api/sessions/{meeting_id}/sidebar", s.handleSidebar)
	pr.Handle("/api/sessions/{meeting_id}/overlay", s.handleOverlay)
	pr.Handle("/api/sessions/{meeting_id}/fullscreen", s.handleFullScreen)
	pr.Handle("/api/sessions/{meeting_id}/controls/{control_id}", s.handleControl)
	pr.Handle("/api/sessions/{meeting_id}/mode", s.handleMeetingMode)
	pr.Handle("/api/sessions/{meeting_id}/whiteboard", s.handleWhiteboard)
	pr.Handle("/api/sessions/{meeting_id}/whiteboard/drawing", s.handleWhiteboardDrawing)
	pr.Handle("/api/sessions/{meeting_id}/recording", s.handleRecording)
	pr.Handle("/api/sessions/{meeting_id}/hls", s.handleHLS)
	pr.Handle("/api/sessions/{meeting_id}/livestream", s.handleLiveStream)
	pr.Handle("/api/sessions/{meeting_id}/leave", s.handleLeave)
	pr.Handle("/api/sessions/{meeting_id}/end", s.handleEnd)
	pr.Handle("/api/sessions/{meeting_id}/polls", s.handlePolls)
	pr.Handle("/api/sessions/{meeting_id}/polls/drafts", s.handleDrafts)
	pr.Handle("/api/sessions/{meeting_id}/polls/drafts/{draft_id}", s.handleDraftByID)
	pr.Handle("/api/sessions/{meeting_id}/polls/drafts/{draft_id}/submit", s.handleSubmitDraft)
	pr.Handle("/api/sessions/{meeting_id}/polls/{poll_id}/end", s.handleEndPoll)
	pr.Handle("/api/sessions/{meeting_id}/polls/{poll_id}/submissions", s.handleSubmissions)
	pr.Handle("/api/sessions/{meeting_id}/participants", s.handleParticipants)
	pr.Handle("/api/sessions/{meeting_id}/participants/{participant_id}", s.handleParticipantByID)
	pr.Handle("/api/sessions/{meeting_id}/participants/{participant_id}/pin", s.handlePin)
	pr.Handle("/api/sessions/{meeting_id}/participants/{participant_id}/unpin", s.handleUnpin)
	pr.Handle("/api/sessions/{meeting_id}/participants/{participant_id}/visibility", s.handleVisibility)
	pr.Handle("/api/sessions/{meeting_id}/participants/{participant_id}/hover", s.handleHover)
	pr.Handle("/api/sessions/{meeting_id}/participants/{participant_id}/hand", s.handleHand)
	pr.Handle("/api/sessions/{meeting_id}/participants/{participant_id}/streams", s.handleStreams)
	pr.Handle("/api/sessions/{meeting_id}/participants/{participant_id}/score", s.handleScore)
	pr.Handle("/api/sessions/{meeting_id}/participants/{participant_id}/media", s.handleMedia)
	pr.Handle("/api/sessions/{meeting_id}/participants/{participant_id}/remove", s.handleRemove)
	pr.Handle("/ws/state/{meeting_id}", s.wsServer.HandleConnection)

	// Delegate: parameterized paths go to the param router, the rest to the mux
	s.router = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/ws/") || strings.HasPrefix(r.URL.Path, "/api/sessions/") {
			pr.ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrTileNotFound),
		errors.Is(err, store.ErrPollNotFound),
		errors.Is(err, store.ErrDraftNotFound),
		errors.Is(err, mediasdk.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionExists),
		errors.Is(err, store.ErrAlreadySubmitted),
		errors.Is(err, store.ErrPollEnded),
		errors.Is(err, session.ErrNoWhiteboard),
		errors.Is(err, mediasdk.ErrParticipantExists):
		return http.StatusConflict
	case errors.Is(err, session.ErrPinNotAllowed),
		errors.Is(err, session.ErrNotPermitted),
		errors.Is(err, session.ErrFeatureDisabled),
		errors.Is(err, store.ErrPollsDisabled),
		errors.Is(err, store.ErrPollNotPermitted):
		return http.StatusForbidden
	case errors.Is(err, session.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, config.ErrInvalidRedirect),
		errors.Is(err, config.ErrMissingMeetingID),
		errors.Is(err, config.ErrInvalidGridSize),
		errors.Is(err, store.ErrInvalidPoll),
		errors.Is(err, store.ErrInvalidOption),
		errors.Is(err, store.ErrInvalidMode),
		errors.Is(err, session.ErrInvalidControl),
		errors.Is(err, session.ErrInvalidMode),
		errors.Is(err, session.ErrInvalidStream),
		errors.Is(err, mediasdk.ErrNoStream):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Errorf("Request failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}

// sessionFor resolves {meeting_id} or writes a 404
func (s *HTTPServer) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	meetingID := GetPathParam(r, "meeting_id")
	sess, ok := s.manager.Get(meetingID)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// handleSessions handles requests for the /api/sessions endpoint
func (s *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.manager.List())
	default:
		methodNotAllowed(w)
	}
}

// handleCreateSession starts a session. Unset fields take the session defaults.
func (s *HTTPServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sc := config.DefaultSession()
	if !decodeJSON(w, r, &sc) {
		return
	}

	sess, err := s.manager.Create(sc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Info())
}

// handleSessionByID handles requests for /api/sessions/{meeting_id}
func (s *HTTPServer) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	meetingID := GetPathParam(r, "meeting_id")

	switch r.Method {
	case http.MethodGet:
		sess, ok := s.sessionFor(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, sess.Info())
	case http.MethodDelete:
		if err := s.manager.Close(meetingID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
	default:
		methodNotAllowed(w)
	}
}

// handleHealth returns health status for the process manager
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"session_count": s.manager.Count(),
		"ws_clients":    s.wsServer.ClientCount(),
	})
}
