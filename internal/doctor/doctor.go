// Package doctor reports problems in a quickpanel configuration that parse
// and validate cleanly but will not behave the way the operator expects.
package doctor

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/mattjoyce/quickpanel/internal/auth"
	"github.com/mattjoyce/quickpanel/internal/config"
)

// longQueueDelay is the delay past which queued dialogs feel stuck.
const longQueueDelay = 5 * time.Second

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor inspects a loaded config.
type Doctor struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateTokenScopes(r)
	d.validateCloseOnKeyOut(r)
	d.warnExposedAPI(r)
	d.warnExposedWebhooks(r)
	d.warnLegacyAPIKey(r)
	d.warnKeyOutSurvivors(r)
	d.warnQueueDelay(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// validateTokenScopes rejects scopes the API never grants.
func (d *Doctor) validateTokenScopes(r *Result) {
	for i, token := range d.cfg.API.Auth.Tokens {
		for j, scope := range token.Scopes {
			if auth.KnownScope(strings.TrimSpace(scope)) {
				continue
			}
			d.addError(r, "token_scopes", fmt.Sprintf("api.auth.tokens[%d].scopes[%d]", i, j),
				fmt.Sprintf("unknown scope %q (expected *, dialogs:ro|rw, session:ro|rw, events:ro or log:ro)", scope))
		}
	}
}

// validateCloseOnKeyOut flags names that key-out would silently skip.
func (d *Doctor) validateCloseOnKeyOut(r *Result) {
	for i, name := range d.cfg.Session.CloseOnKeyOut {
		field := fmt.Sprintf("session.close_on_key_out[%d]", i)
		dc, ok := d.cfg.Dialogs[name]
		if !ok {
			d.addWarning(r, "session", field,
				fmt.Sprintf("dialog %q is not registered; key-out will ignore it", name))
			continue
		}
		if dc.Kind == config.KindSequential {
			d.addWarning(r, "session", field,
				fmt.Sprintf("closing sequential dialog %q on key-out releases its next pending request unless clear_on_key_out is set", name))
		}
	}
	if len(d.cfg.Session.CloseOnKeyOut) == 0 {
		d.addWarning(r, "session", "session.close_on_key_out",
			"empty list: no dialog is closed when the user keys out")
	}
}

// warnExposedAPI warns when the API listens beyond loopback.
func (d *Doctor) warnExposedAPI(r *Result) {
	if !d.cfg.API.Enabled {
		return
	}
	d.checkListen(r, "api", "api.listen", d.cfg.API.Listen, "any host that can reach it can drive dialogs")
}

func (d *Doctor) warnExposedWebhooks(r *Result) {
	if d.cfg.Webhooks == nil || len(d.cfg.Webhooks.Endpoints) == 0 {
		return
	}
	d.checkListen(r, "webhooks", "webhooks.listen", d.cfg.Webhooks.Listen, "only the HMAC secret protects it")
}

func (d *Doctor) checkListen(r *Result, category, field, listen, risk string) {
	host, _, err := net.SplitHostPort(listen)
	if err != nil {
		d.addError(r, category, field, fmt.Sprintf("invalid listen address %q: %v", listen, err))
		return
	}
	if host == "localhost" {
		return
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return
	}
	d.addWarning(r, category, field, fmt.Sprintf("listening on %q; %s", listen, risk))
}

func (d *Doctor) warnLegacyAPIKey(r *Result) {
	if d.cfg.API.Auth.APIKey != "" && len(d.cfg.API.Auth.Tokens) > 0 {
		d.addWarning(r, "auth", "api.auth",
			"both api_key and tokens configured; prefer tokens array only")
	}
	if d.cfg.API.Auth.APIKey != "" && len(d.cfg.API.Auth.Tokens) == 0 {
		d.addWarning(r, "auth", "api.auth.api_key",
			"api_key grants full access; migrate to tokens array with scopes")
	}
}

// warnKeyOutSurvivors lists sequential dialogs whose pending requests outlive
// the session.
func (d *Doctor) warnKeyOutSurvivors(r *Result) {
	for _, name := range d.cfg.DialogNames() {
		dc := d.cfg.Dialogs[name]
		if dc.Kind == config.KindSequential && !dc.ClearsOnKeyOut() {
			d.addWarning(r, "session", fmt.Sprintf("dialogs.%s.clear_on_key_out", name),
				fmt.Sprintf("pending %q requests will be shown to the next user", name))
		}
	}
}

func (d *Doctor) warnQueueDelay(r *Result) {
	if d.cfg.Queue.NextDialogTimeout > longQueueDelay {
		d.addWarning(r, "queue", "queue.next_dialog_timeout",
			fmt.Sprintf("delay %s between queued dialogs is longer than %s", d.cfg.Queue.NextDialogTimeout, longQueueDelay))
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid {
		fmt.Fprintf(&b, "Configuration valid (%d warning(s))\n", len(r.Warnings))
	} else {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
