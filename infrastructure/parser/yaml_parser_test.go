package parser

import (
	"testing"

	"github.com/reglet-dev/operator-host/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYamlDescriptorParser_Parse(t *testing.T) {
	p := NewYamlDescriptorParser()

	t.Run("full descriptor", func(t *testing.T) {
		src := []byte(`
node_id: camera
operator_id: detector
source: https://example.com/ops/detector.wasm
build_dir: /var/cache/ops
search_paths:
  - ./lib
outputs: [bbox, image]
tracing: true
`)
		d, err := p.Parse(src)
		require.NoError(t, err)
		assert.Equal(t, "camera", d.NodeID)
		assert.Equal(t, "detector", d.OperatorID)
		assert.True(t, d.Source.IsURL())
		assert.Equal(t, entities.RuntimeWasm, d.Kind())
		assert.Equal(t, "/var/cache/ops", d.ResolvedBuildDir())
		assert.Equal(t, []string{"./lib"}, d.SearchPaths)
		assert.Equal(t, []string{"bbox", "image"}, d.Outputs)
		assert.True(t, d.Tracing)
	})

	t.Run("json input", func(t *testing.T) {
		d, err := p.Parse([]byte(`{"node_id":"n","operator_id":"op","source":"op.js","runtime":"script"}`))
		require.NoError(t, err)
		assert.Equal(t, entities.RuntimeScript, d.Runtime)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := p.Parse([]byte("node_id: n\nsorce: op.js\n"))
		assert.ErrorContains(t, err, "sorce")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := p.Parse(nil)
		assert.ErrorContains(t, err, "empty")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := p.Parse([]byte("node_id: [unterminated"))
		assert.Error(t, err)
	})
}
