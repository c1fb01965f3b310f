package operator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/operator-host/domain/entities"
	domainerrors "github.com/reglet-dev/operator-host/domain/errors"
	"github.com/reglet-dev/operator-host/testing/operatortest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_LocalSource(t *testing.T) {
	dir := t.TempDir()
	path := operatortest.WriteModule(t, dir, "detector.js", []byte("module.exports = {}"))

	got, err := NewResolver(nil).Resolve(context.Background(), &entities.OperatorDescriptor{
		NodeID: "n", OperatorID: "o", Source: entities.OperatorSource(path),
	})
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolver_SymlinkIsCanonicalized(t *testing.T) {
	dir := t.TempDir()
	target := operatortest.WriteModule(t, dir, "real/detector.js", []byte("module.exports = {}"))
	link := filepath.Join(dir, "link.js")
	require.NoError(t, os.Symlink(target, link))

	got, err := NewResolver(nil).Resolve(context.Background(), &entities.OperatorDescriptor{
		NodeID: "n", OperatorID: "o", Source: entities.OperatorSource(link),
	})
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolver_MissingSource(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.js")

	_, err := NewResolver(nil).Resolve(context.Background(), &entities.OperatorDescriptor{
		NodeID: "n", OperatorID: "o", Source: entities.OperatorSource(missing),
	})

	var notFound *domainerrors.SourceNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, missing, notFound.Path)
}

func TestResolver_URLSource(t *testing.T) {
	tests := []struct {
		name     string
		source   entities.OperatorSource
		wantFile string
	}{
		{"script", "https://example.com/ops/detector.js", "detector-op.js"},
		{"wasm", "https://example.com/ops/detector.wasm", "detector-op.wasm"},
		{"no extension", "https://example.com/ops/detector", "detector-op.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildDir := t.TempDir()
			fetcher := &fakeFetcher{body: []byte("x")}

			got, err := NewResolver(fetcher).Resolve(context.Background(), &entities.OperatorDescriptor{
				NodeID: "camera", OperatorID: "detector-op", Source: tt.source, BuildDir: buildDir,
			})
			require.NoError(t, err)

			want, err := filepath.EvalSymlinks(filepath.Join(buildDir, "camera", tt.wantFile))
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, []string{tt.source.String()}, fetcher.urls)
		})
	}
}

func TestResolver_FetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}

	_, err := NewResolver(fetcher).Resolve(context.Background(), &entities.OperatorDescriptor{
		NodeID: "n", OperatorID: "o", Source: "https://example.com/op.js", BuildDir: t.TempDir(),
	})

	var fetchErr *domainerrors.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "https://example.com/op.js", fetchErr.URL)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestResolver_URLWithoutFetcher(t *testing.T) {
	_, err := NewResolver(nil).Resolve(context.Background(), &entities.OperatorDescriptor{
		NodeID: "n", OperatorID: "o", Source: "https://example.com/op.js", BuildDir: t.TempDir(),
	})

	var fetchErr *domainerrors.FetchError
	assert.ErrorAs(t, err, &fetchErr)
}
