package engine

import (
	"context"
	"errors"

	"SyncBoard/internal/protocol"
)

// ErrTransportUnavailable is returned by transports with no open link.
// The engine treats it the same as having no transport at all.
var ErrTransportUnavailable = errors.New("transport unavailable")

// Transport broadcasts an encoded message to the other participants.
type Transport interface {
	Send(payload []byte, reliability protocol.Reliability) error
}

// BlobStore persists serialized canvases by key.
type BlobStore interface {
	Save(ctx context.Context, key string, blob []byte) error
	// Load reports false when key has never been saved.
	Load(ctx context.Context, key string) ([]byte, bool, error)
}
