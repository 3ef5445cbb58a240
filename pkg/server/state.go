package server

import (
	"net/http"

	"github.com/qieqieplus/meeting-view/pkg/layout"
	"github.com/qieqieplus/meeting-view/pkg/store"
)

// LayoutResponse carries the raw descriptor and the mode derived from it
type LayoutResponse struct {
	Layout        layout.Descriptor `json:"app_meeting_layout"`
	MeetingLayout layout.Mode       `json:"meeting_layout"`
	Topic         layout.Topic      `json:"layout_topic"`
}

// LayoutRequest changes the descriptor. Empty fields keep their current value.
type LayoutRequest struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	GridSize *int   `json:"grid_size"`
}

// SidebarRequest opens a panel and optionally a nested view
type SidebarRequest struct {
	Mode       store.SidebarMode `json:"mode"`
	NestedMode *store.NestedMode `json:"nested_mode"`
}

// handleState returns the full snapshot
func (s *HTTPServer) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleTiles returns every mounted tile with its overlay
func (s *HTTPServer) handleTiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	tiles, err := sess.Tiles()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tiles)
}

func layoutResponse(st *store.Store) LayoutResponse {
	d := st.Layout()
	return LayoutResponse{
		Layout:        d,
		MeetingLayout: layout.Resolve(d),
		Topic:         st.Session().LayoutTopic,
	}
}

// handleLayout reads or changes the layout descriptor
func (s *HTTPServer) handleLayout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	st := sess.Store()

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, layoutResponse(st))
	case http.MethodPut:
		var req LayoutRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if !st.Session().Permissions.ChangeLayout {
			http.Error(w, "Changing the layout is not permitted", http.StatusForbidden)
			return
		}
		if req.GridSize != nil && *req.GridSize < 0 {
			http.Error(w, "grid_size must not be negative", http.StatusBadRequest)
			return
		}

		d := st.UpdateLayout(func(d *layout.Descriptor) {
			if req.Type != "" {
				d.Type = layout.ParseType(req.Type)
			}
			if req.Priority != "" {
				d.Priority = layout.ParsePriority(req.Priority)
			}
			if req.GridSize != nil {
				d.GridSize = *req.GridSize
			}
		})
		writeJSON(w, http.StatusOK, LayoutResponse{
			Layout:        d,
			MeetingLayout: layout.Resolve(d),
			Topic:         st.Session().LayoutTopic,
		})
	default:
		methodNotAllowed(w)
	}
}

// handleSidebar reads or changes the sidebar panel
func (s *HTTPServer) handleSidebar(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	st := sess.Store()

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req SidebarRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := st.SetSidebarMode(req.Mode); err != nil {
			writeError(w, err)
			return
		}
		if req.NestedMode != nil {
			if err := st.SetSidebarNestedMode(*req.NestedMode); err != nil {
				writeError(w, err)
				return
			}
		}
	default:
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":        st.SidebarMode(),
		"nested_mode": st.NestedMode(),
	})
}

// handleOverlay toggles tile overlays, as clicking a tile does
func (s *HTTPServer) handleOverlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	st := sess.Store()
	st.ToggleOverlaidInfo()
	writeJSON(w, http.StatusOK, map[string]bool{"overlaid_info_visible": st.OverlaidInfoVisible()})
}

// handleFullScreen publishes toggle-full-screen
func (s *HTTPServer) handleFullScreen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	delivered, err := sess.ToggleFullScreen()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"delivered": delivered})
}

// handleControl starts or stops a control's processing blink
func (s *HTTPServer) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.sessionFor(w, r)
	if !ok {
		return
	}
	var req struct {
		Processing bool `json:"processing"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	controlID := GetPathParam(r, "control_id")
	if err := sess.SetRequestProcessing(controlID, req.Processing); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"control_id": controlID,
		"processing": req.Processing,
	})
}
