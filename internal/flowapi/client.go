package flowapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/tinytelemetry/flowdeck/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxResponseBytes = 64 << 20

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// Client implements model.Backend over the capture backend's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: model.DefaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURLForHost derives the backend URL from the host the dashboard runs
// against, at the backend's fixed port.
func BaseURLForHost(scheme, host string, port int) string {
	if scheme == "" {
		scheme = model.DefaultBackendScheme
	}
	if host == "" {
		host = model.DefaultBackendHost
	}
	if port <= 0 {
		port = model.DefaultBackendPort
	}
	return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListFlows fetches the current snapshot. Transport failures, non-2xx
// responses and non-JSON bodies are errors; a JSON body of an unexpected
// shape yields an empty list, and entries that do not decode are dropped.
func (c *Client) ListFlows(ctx context.Context) ([]model.Flow, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/flows", nil)
	if err != nil {
		return nil, fmt.Errorf("flowapi: list flows: %w", err)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("flowapi: list flows: %w %d", ErrStatus, status)
	}
	flows, err := DecodeFlows(body)
	if err != nil {
		return nil, fmt.Errorf("flowapi: list flows: %w", err)
	}
	return flows, nil
}

// DecodeFlows parses a `{"flows": [...]}` document.
func DecodeFlows(body []byte) ([]model.Flow, error) {
	if !json.Valid(body) {
		return nil, errors.New("response is not JSON")
	}
	var envelope map[string]jsoniter.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return []model.Flow{}, nil
	}
	return decodeFlowArray(envelope["flows"]), nil
}

// DecodeFlowFile parses either a bare array of flows or a `{"flows": [...]}`
// document, as written by the capture exporter.
func DecodeFlowFile(body []byte) ([]model.Flow, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if !json.Valid(trimmed) {
			return nil, errors.New("flow file is not JSON")
		}
		return decodeFlowArray(trimmed), nil
	}
	return DecodeFlows(trimmed)
}

func decodeFlowArray(raw jsoniter.RawMessage) []model.Flow {
	var entries []jsoniter.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return []model.Flow{}
	}
	flows := make([]model.Flow, 0, len(entries))
	for _, entry := range entries {
		var f model.Flow
		if err := json.Unmarshal(entry, &f); err != nil || f.ID == "" {
			continue
		}
		flows = append(flows, f)
	}
	return flows
}

type generateRequest struct {
	SelectedFlows []model.FlowID `json:"selected_flows"`
}

// Generate posts ids to the artifact endpoint for kind. A JSON reply is
// decoded whatever the status code so the server's message reaches the user.
func (c *Client) Generate(ctx context.Context, kind model.ArtifactKind, ids []model.FlowID) (model.GenerateResult, error) {
	var result model.GenerateResult
	endpoint := kind.Endpoint()
	if endpoint == "" {
		return result, fmt.Errorf("flowapi: generate: unknown artifact kind %q", kind)
	}
	if ids == nil {
		ids = []model.FlowID{}
	}
	payload, err := json.Marshal(generateRequest{SelectedFlows: ids})
	if err != nil {
		return result, fmt.Errorf("flowapi: generate: marshal: %w", err)
	}

	body, status, err := c.do(ctx, http.MethodPost, "/"+endpoint, payload)
	if err != nil {
		return result, fmt.Errorf("flowapi: generate %s: %w", kind, err)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		if status < 200 || status > 299 {
			return result, fmt.Errorf("flowapi: generate %s: %w %d", kind, ErrStatus, status)
		}
		return result, fmt.Errorf("flowapi: generate %s: decode: %w", kind, err)
	}
	return result, nil
}

// DownloadURL is where a generated file can be fetched from.
func (c *Client) DownloadURL(file string) string {
	return c.baseURL + "/download/" + url.PathEscape(file)
}

// Download streams a generated file into w.
func (c *Client) Download(ctx context.Context, file string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(file), nil)
	if err != nil {
		return fmt.Errorf("flowapi: download: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("flowapi: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("flowapi: download %s: %w %d", file, ErrStatus, resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("flowapi: download %s: %w", file, err)
	}
	return nil
}

// Health checks the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, status, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return fmt.Errorf("flowapi: health: %w", err)
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("flowapi: health: %w %d", ErrStatus, status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// FileSaver writes downloaded artifacts into a directory.
type FileSaver struct {
	Downloader model.ArtifactDownloader
	Dir        string
}

// Save downloads file into the saver's directory and returns its path. Only
// the base name of file is used.
func (s FileSaver) Save(ctx context.Context, file string) (string, error) {
	name := filepath.Base(filepath.Clean("/" + file))
	if name == "/" || name == "." {
		return "", fmt.Errorf("flowapi: save: invalid file name %q", file)
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("flowapi: save: %w", err)
	}

	target := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("flowapi: save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.Downloader.Download(ctx, file, tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("flowapi: save: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("flowapi: save: %w", err)
	}
	return target, nil
}
