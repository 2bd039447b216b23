package fetcher

import (
	"context"
)

// Client is the interface for MediaWiki API clients.
type Client interface {
	// GetJSON performs one API call and returns the JSON response body.
	GetJSON(ctx context.Context, params map[string]string) ([]byte, error)

	// Close releases any resources held by the client.
	Close() error
}
