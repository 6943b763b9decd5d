package webhook

import "github.com/mattjoyce/quickpanel/internal/dialog"

// DialogShower is the part of the router a webhook drives.
type DialogShower interface {
	Show(name string, opts dialog.Options) error
}

// Config holds webhook server configuration.
type Config struct {
	Listen    string
	Endpoints []EndpointConfig
}

// EndpointConfig maps one signed URL path to a dialog.
type EndpointConfig struct {
	Path   string
	Dialog string
	Secret string
	// SignatureHeader carries the HMAC, e.g. "X-Hub-Signature-256".
	SignatureHeader string
	MaxBodySize     int64
}

// ShowResponse is returned for accepted webhooks.
type ShowResponse struct {
	Dialog string `json:"dialog"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	DefaultMaxBodySize     = 64 * 1024
	DefaultSignatureHeader = "X-Quickpanel-Signature-256"
)
