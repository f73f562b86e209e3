package model

import "time"

// Shared defaults used by the dashboard, the CLI and the replay backend.
const (
	DefaultBackendPort    = 8000
	DefaultBackendScheme  = "http"
	DefaultBackendHost    = "localhost"
	DefaultPollInterval   = 5 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultDownloadDelay  = 500 * time.Millisecond
	DefaultReplayAddr     = "127.0.0.1:8000"
)
