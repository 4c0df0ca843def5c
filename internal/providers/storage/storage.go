package storage

import "context"

// Provider persists uploaded binary content and returns a public URL for it.
type Provider interface {
	Save(ctx context.Context, name string, contentType string, content []byte) (string, error)
}
