// Package pinning publishes curated card payloads to content-addressed storage.
package pinning

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrDisabled is returned when no pinning provider is configured.
var ErrDisabled = errors.New("pinning is not configured")

// Pinner stores a JSON document and returns its content identifier.
type Pinner interface {
	Pin(ctx context.Context, name string, payload json.RawMessage) (string, error)
}

// Disabled rejects every pin request.
type Disabled struct{}

func (Disabled) Pin(context.Context, string, json.RawMessage) (string, error) {
	return "", ErrDisabled
}
