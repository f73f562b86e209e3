package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlowID is the opaque, stable identifier of a captured flow. The backend
// may encode it as a JSON string or number; both decode to the same text.
type FlowID string

// UnmarshalJSON accepts string and numeric ids.
func (id *FlowID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("flow id: empty")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("flow id: %w", err)
		}
		*id = FlowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flow id: %w", err)
	}
	*id = FlowID(n.String())
	return nil
}

// Common HTTP methods seen in captures. Any other verb is kept verbatim.
const (
	MethodGet     = "GET"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodDelete  = "DELETE"
	MethodPatch   = "PATCH"
	MethodHead    = "HEAD"
	MethodOptions = "OPTIONS"
)

// Flow is one recorded request/response exchange as served by the capture
// backend. Flows are read-only on the client.
type Flow struct {
	ID        FlowID        `json:"id" yaml:"id"`
	Method    string        `json:"method" yaml:"method"`
	URL       string        `json:"url" yaml:"url"`
	Status    *int          `json:"status" yaml:"status"` // nil = no response recorded
	Timestamp string        `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Request   *RequestInfo  `json:"request,omitempty" yaml:"request,omitempty"`
	Response  *ResponseInfo `json:"response,omitempty" yaml:"response,omitempty"`
}

// RequestInfo holds optional request details emitted by the capture script.
type RequestInfo struct {
	Method        string            `json:"method,omitempty" yaml:"method,omitempty"`
	URL           string            `json:"url,omitempty" yaml:"url,omitempty"`
	Headers       map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	ContentLength int64             `json:"content_length,omitempty" yaml:"content_length,omitempty"`
}

// ResponseInfo holds optional response details emitted by the capture script.
type ResponseInfo struct {
	StatusCode    *int   `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	ContentType   string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	ContentLength int64  `json:"content_length,omitempty" yaml:"content_length,omitempty"`
}

// HasStatus reports whether a response status was recorded.
func (f Flow) HasStatus() bool {
	return f.Status != nil
}

// StatusText renders the status for display, "-" when absent.
func (f Flow) StatusText() string {
	if f.Status == nil {
		return "-"
	}
	return strconv.Itoa(*f.Status)
}

// IntPtr is a small helper for building flows with a status.
func IntPtr(v int) *int {
	return &v
}

// ArtifactKind names a server-side artifact generator.
type ArtifactKind string

const (
	ArtifactOpenAPI ArtifactKind = "openapi"
	ArtifactPostman ArtifactKind = "postman"
)

// Endpoint returns the backend path that generates this artifact.
func (k ArtifactKind) Endpoint() string {
	switch k {
	case ArtifactOpenAPI:
		return "generate-openapi"
	case ArtifactPostman:
		return "generate-postman"
	}
	return ""
}

// Label is the human readable name of the artifact.
func (k ArtifactKind) Label() string {
	switch k {
	case ArtifactOpenAPI:
		return "OpenAPI"
	case ArtifactPostman:
		return "Postman"
	}
	return string(k)
}

// ParseArtifactKind parses "openapi" or "postman" (case-insensitive).
func ParseArtifactKind(s string) (ArtifactKind, error) {
	switch ArtifactKind(strings.ToLower(strings.TrimSpace(s))) {
	case ArtifactOpenAPI:
		return ArtifactOpenAPI, nil
	case ArtifactPostman:
		return ArtifactPostman, nil
	}
	return "", fmt.Errorf("unknown artifact kind %q (want openapi or postman)", s)
}

// GenerateResult is the backend's reply to a generate request.
type GenerateResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	File    string `json:"file,omitempty"`
}

// NotificationKind distinguishes success and failure banners.
type NotificationKind int

const (
	NotifyNone NotificationKind = iota
	NotifyOK
	NotifyError
)

// Notification is the user-facing outcome of a generate call. The zero value
// means nothing is shown; it is only cleared by an explicit dismiss.
type Notification struct {
	Kind NotificationKind
	Text string
}

// Empty reports whether there is nothing to show.
func (n Notification) Empty() bool {
	return n.Kind == NotifyNone
}

// FetchState is the listing-fetch status owned by the poller.
type FetchState struct {
	InFlight    bool
	LastError   error
	LastSuccess time.Time
}
