package server

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const paramsContextKey contextKey = "path_params"

// Params holds path parameters extracted by ParamRouter
type Params map[string]string

// GetPathParam retrieves a path parameter from the request context
func GetPathParam(r *http.Request, name string) string {
	params, _ := r.Context().Value(paramsContextKey).(Params)
	if params == nil {
		return ""
	}
	return params[name]
}

// ParamRouter matches patterns with {param} segments. Routes are tried in
// registration order and the first match wins.
type ParamRouter struct {
	routes []route
}

type segment struct {
	literal string
	param   string // set for {param} segments
}

type route struct {
	pattern  string
	segments []segment
	handler  http.HandlerFunc
}

// NewParamRouter creates a new ParamRouter instance
func NewParamRouter() *ParamRouter {
	return &ParamRouter{}
}

// Handle registers a handler for a pattern like "/ws/state/{meeting_id}"
func (rtr *ParamRouter) Handle(pattern string, handler http.HandlerFunc) {
	parts := splitPath(pattern)
	segments := make([]segment, len(parts))
	for i, p := range parts {
		if isParam(p) {
			segments[i] = segment{param: p[1 : len(p)-1]}
		} else {
			segments[i] = segment{literal: p}
		}
	}
	rtr.routes = append(rtr.routes, route{pattern: pattern, segments: segments, handler: handler})
}

// ServeHTTP dispatches to the first matching route
func (rtr *ParamRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	in := splitPath(r.URL.Path)

	for _, rt := range rtr.routes {
		params, ok := rt.match(in)
		if !ok {
			continue
		}
		ctx := context.WithValue(r.Context(), paramsContextKey, params)
		rt.handler(w, r.WithContext(ctx))
		return
	}

	http.NotFound(w, r)
}

func (rt route) match(in []string) (Params, bool) {
	if len(rt.segments) != len(in) {
		return nil, false
	}
	params := make(Params)
	for i, seg := range rt.segments {
		if seg.param == "" {
			if seg.literal != in[i] {
				return nil, false
			}
			continue
		}
		if in[i] == "" {
			return nil, false
		}
		params[seg.param] = in[i]
	}
	return params, true
}

// splitPath drops the leading and trailing slash before splitting
func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func isParam(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") && len(seg) > 2
}
