package api

import (
	"github.com/mattjoyce/quickpanel/internal/audit"
	"github.com/mattjoyce/quickpanel/internal/router"
)

// CommandResponse is returned by the dialog command endpoints.
type CommandResponse struct {
	Dialog string `json:"dialog"`
	Action string `json:"action"`
	// Known is false when the name is not registered and the command was ignored.
	Known  bool `json:"known"`
	Queued bool `json:"queued,omitempty"`
}

// DialogsResponse is returned by GET /dialogs.
type DialogsResponse struct {
	Dialogs []router.Info `json:"dialogs"`
}

// SessionRequest is the body for PUT /session. An empty token means nobody is keyed in.
type SessionRequest struct {
	Token string `json:"token"`
}

// SessionResponse never includes the token.
type SessionResponse struct {
	KeyedIn bool `json:"keyed_in"`
}

// KeyOutResponse is returned by POST /session/keyout.
type KeyOutResponse struct {
	KeyedOut bool `json:"keyed_out"`
}

// LogResponse is returned by GET /log.
type LogResponse struct {
	Entries []audit.Entry `json:"entries"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Dialogs       int    `json:"dialogs"`
	Pending       int    `json:"pending"`
	KeyedIn       bool   `json:"keyed_in"`
}
