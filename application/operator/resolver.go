package operator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reglet-dev/operator-host/domain/entities"
	domainerrors "github.com/reglet-dev/operator-host/domain/errors"
	"github.com/reglet-dev/operator-host/domain/ports"
)

// Resolver turns an operator source into an absolute, canonical path to an
// existing local file, downloading URL sources first.
type Resolver struct {
	fetcher ports.Fetcher
	logger  *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger used for download progress.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver. A nil fetcher makes URL sources fail.
func NewResolver(fetcher ports.Fetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{fetcher: fetcher, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the canonical path of the descriptor's handler module.
// URL sources are downloaded to <build_dir>/<node_id>/<operator_id><ext>,
// replacing any earlier download.
func (r *Resolver) Resolve(ctx context.Context, d *entities.OperatorDescriptor) (string, error) {
	path := d.Source.String()

	if d.Source.IsURL() {
		dest := filepath.Join(d.ResolvedBuildDir(), d.NodeID, d.OperatorID+d.Extension())
		if r.fetcher == nil {
			return "", &domainerrors.FetchError{URL: path, Destination: dest, Err: errors.New("no fetcher configured")}
		}

		r.logger.InfoContext(ctx, "downloading operator source", "url", path, "destination", dest)
		if err := r.fetcher.Fetch(ctx, path, dest); err != nil {
			return "", &domainerrors.FetchError{URL: path, Destination: dest, Err: err}
		}
		path = dest
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &domainerrors.SourceNotFoundError{Path: path, Err: err}
		}
		return "", &domainerrors.InitError{Stage: "stat", Path: path, Err: err}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &domainerrors.InitError{Stage: "canonicalize", Path: path, Err: err}
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &domainerrors.InitError{Stage: "canonicalize", Path: abs, Err: fmt.Errorf("failed to resolve symlinks: %w", err)}
	}
	return canonical, nil
}
