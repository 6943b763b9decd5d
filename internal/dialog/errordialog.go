package dialog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorAttrs are the attributes an error dialog is rendered from.
type ErrorAttrs struct {
	Title     string `json:"title"`
	Subhead   string `json:"subhead"`
	Details   string `json:"details"`
	ErrCode   string `json:"errCode"`
	BtnLabel1 string `json:"btnLabel1,omitempty"`
	BtnLabel2 string `json:"btnLabel2,omitempty"`
	BtnLabel3 string `json:"btnLabel3,omitempty"`
}

// ErrIncompleteError is returned by Validate when a required attribute is blank.
var ErrIncompleteError = errors.New("incomplete error dialog attributes")

// Options converts the attributes to a show payload. Empty button labels are omitted.
func (a ErrorAttrs) Options() Options {
	opts := Options{
		"title":   a.Title,
		"subhead": a.Subhead,
		"details": a.Details,
		"errCode": a.ErrCode,
	}
	for key, label := range map[string]string{
		"btnLabel1": a.BtnLabel1,
		"btnLabel2": a.BtnLabel2,
		"btnLabel3": a.BtnLabel3,
	} {
		if label != "" {
			opts[key] = label
		}
	}
	return opts
}

// Buttons returns the non-empty button labels in order.
func (a ErrorAttrs) Buttons() []string {
	var out []string
	for _, label := range []string{a.BtnLabel1, a.BtnLabel2, a.BtnLabel3} {
		if label != "" {
			out = append(out, label)
		}
	}
	return out
}

// Validate checks that title, subhead, details and error code are present.
func (a ErrorAttrs) Validate() error {
	var missing []string
	if strings.TrimSpace(a.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(a.Subhead) == "" {
		missing = append(missing, "subhead")
	}
	if strings.TrimSpace(a.Details) == "" {
		missing = append(missing, "details")
	}
	if strings.TrimSpace(a.ErrCode) == "" {
		missing = append(missing, "errCode")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteError, strings.Join(missing, ", "))
	}
	return nil
}

// ErrorAttrsFrom reads error attributes out of a show payload. Non-string
// values are formatted with %v; absent keys stay empty.
func ErrorAttrsFrom(opts Options) ErrorAttrs {
	get := func(key string) string {
		v, ok := opts[key]
		if !ok || v == nil {
			return ""
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ErrorAttrs{
		Title:     get("title"),
		Subhead:   get("subhead"),
		Details:   get("details"),
		ErrCode:   get("errCode"),
		BtnLabel1: get("btnLabel1"),
		BtnLabel2: get("btnLabel2"),
		BtnLabel3: get("btnLabel3"),
	}
}
