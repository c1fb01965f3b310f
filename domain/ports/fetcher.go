package ports

import "context"

// Fetcher materializes a remote operator source on the local filesystem.
type Fetcher interface {
	// Fetch downloads url to destination. It blocks until the file is
	// complete or the download failed.
	Fetch(ctx context.Context, url, destination string) error
}
