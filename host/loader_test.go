package host_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	domainerrors "github.com/reglet-dev/operator-host/domain/errors"
	"github.com/reglet-dev/operator-host/host"
	"github.com/stretchr/testify/suite"
)

// LoaderSuite tests descriptor loading with the default parser and validator.
type LoaderSuite struct {
	suite.Suite
	dir    string
	loader *host.Loader
}

func (s *LoaderSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.loader = host.NewLoader()
}

func (s *LoaderSuite) write(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *LoaderSuite) TestValidDescriptor() {
	d, err := s.loader.LoadDescriptor([]byte(`
node_id: camera
operator_id: detector
source: ./detector.js
outputs: [bbox]
`))
	s.Require().NoError(err)
	s.Equal("camera", d.NodeID)
	s.Equal("./detector.js", d.Source.String())
	s.Equal([]string{"bbox"}, d.Outputs)
}

func (s *LoaderSuite) TestInvalidDescriptor() {
	_, err := s.loader.LoadDescriptor([]byte(`
operator_id: detector
source: ./detector.js
`))
	s.Require().Error(err)

	var cfgErr *domainerrors.ConfigError
	s.Require().True(errors.As(err, &cfgErr))
	s.Equal("node_id", cfgErr.Field)
}

func (s *LoaderSuite) TestMalformedYAML() {
	_, err := s.loader.LoadDescriptor([]byte("node_id: [unterminated"))
	s.ErrorContains(err, "failed to parse operator descriptor")
}

func (s *LoaderSuite) TestLoadFileResolvesRelativePaths() {
	path := s.write("operator.yaml", `
node_id: camera
operator_id: detector
source: ops/detector.js
search_paths: [lib, /opt/js]
`)

	d, err := s.loader.LoadFile(path)
	s.Require().NoError(err)
	s.Equal(filepath.Join(s.dir, "ops", "detector.js"), d.Source.String())
	s.Equal(filepath.Join(s.dir, "build"), d.ResolvedBuildDir())
	s.Equal([]string{filepath.Join(s.dir, "lib"), "/opt/js"}, d.SearchPaths)
}

func (s *LoaderSuite) TestLoadFileKeepsURLSource() {
	path := s.write("operator.yaml", `
node_id: camera
operator_id: detector
source: https://example.com/detector.wasm
build_dir: cache
`)

	d, err := s.loader.LoadFile(path)
	s.Require().NoError(err)
	s.Equal("https://example.com/detector.wasm", d.Source.String())
	s.Equal(filepath.Join(s.dir, "cache"), d.ResolvedBuildDir())
}

func (s *LoaderSuite) TestLoadFileMissing() {
	_, err := s.loader.LoadFile(filepath.Join(s.dir, "absent.yaml"))
	s.ErrorIs(err, os.ErrNotExist)
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}
