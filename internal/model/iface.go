package model

import (
	"context"
	"io"
)

// FlowLister fetches the current flow snapshot from the capture backend.
type FlowLister interface {
	ListFlows(ctx context.Context) ([]Flow, error)
}

// ArtifactGenerator asks the backend to build an artifact from flow ids.
type ArtifactGenerator interface {
	Generate(ctx context.Context, kind ArtifactKind, ids []FlowID) (GenerateResult, error)
}

// ArtifactDownloader fetches a generated artifact by file name.
type ArtifactDownloader interface {
	Download(ctx context.Context, file string, w io.Writer) error
}

// Backend is the full read/generate contract the dashboard depends on.
type Backend interface {
	FlowLister
	ArtifactGenerator
	ArtifactDownloader
}

// SnapshotReader exposes the latest flow snapshot.
type SnapshotReader interface {
	Current() []Flow
}
