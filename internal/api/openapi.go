package api

import (
	"net/http"
	"strings"
)

type route struct {
	method  string
	path    string
	summary string
	scope   string
	success string
}

// routes lists the authenticated endpoints for the OpenAPI document.
var routes = []route{
	{"get", "/dialogs", "List registered dialogs with window and queue state", "dialogs:ro", "200"},
	{"get", "/dialogs/{name}", "Describe one dialog", "dialogs:ro", "200"},
	{"post", "/dialogs/{name}/show", "Show a dialog, through its queue when sequential", "dialogs:rw", "202"},
	{"post", "/dialogs/{name}/hide", "Hide a dialog", "dialogs:rw", "202"},
	{"post", "/dialogs/{name}/close", "Close a dialog", "dialogs:rw", "202"},
	{"post", "/dialogs/{name}/closed", "Report that the user dismissed a dialog window", "dialogs:rw", "202"},
	{"get", "/session", "Report whether a user is keyed in", "session:ro", "200"},
	{"put", "/session", "Set the keyed-in token", "session:rw", "200"},
	{"post", "/session/keyout", "Key the user out and clear queued dialogs", "session:rw", "200"},
	{"get", "/events", "Stream dialog events (SSE)", "events:ro", "200"},
	{"get", "/log", "Read the dialog audit log", "log:ro", "200"},
}

// buildOpenAPIDoc returns an OpenAPI 3.1 document for the control API.
func buildOpenAPIDoc() map[string]any {
	paths := map[string]any{
		"/healthz": map[string]any{
			"get": map[string]any{
				"operationId": "healthz",
				"summary":     "Liveness and dialog counts",
				"responses":   map[string]any{"200": map[string]any{"description": "OK"}},
			},
		},
	}

	for _, rt := range routes {
		item, _ := paths[rt.path].(map[string]any)
		if item == nil {
			item = map[string]any{}
			paths[rt.path] = item
		}
		op := map[string]any{
			"operationId": rt.method + pathID(rt.path),
			"summary":     rt.summary,
			"x-scope":     rt.scope,
			"responses": map[string]any{
				rt.success: map[string]any{"description": "OK"},
				"401":      map[string]any{"description": "Missing or invalid token"},
				"403":      map[string]any{"description": "Insufficient scope"},
			},
			"security": []any{map[string]any{"BearerAuth": []string{}}},
		}
		if strings.HasSuffix(rt.path, "/show") {
			op["requestBody"] = map[string]any{
				"description": "Dialog options; the body is the options object",
				"required":    false,
				"content": map[string]any{
					"application/json": map[string]any{"schema": map[string]any{"type": "object"}},
				},
			}
			op["responses"].(map[string]any)["400"] = map[string]any{"description": "Body is not a JSON object"}
		}
		if strings.HasPrefix(rt.path, "/dialogs/") {
			op["responses"].(map[string]any)["404"] = map[string]any{"description": "Unknown dialog (strict mode)"}
		}
		item[rt.method] = op
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "quickpanel",
			"version": "1.0",
		},
		"paths": paths,
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}

var pathIDReplacer = strings.NewReplacer("/", "_", "{", "", "}", "")

// pathID turns /dialogs/{name}/show into _dialogs_name_show.
func pathID(path string) string {
	return pathIDReplacer.Replace(path)
}

// handleOpenAPI handles GET /openapi.json (no auth).
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc())
}
