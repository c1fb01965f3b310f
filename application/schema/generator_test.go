package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema_NestedStruct(t *testing.T) {
	type ServerConfig struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	}

	type Config struct {
		Server  ServerConfig `json:"server"`
		Timeout int          `json:"timeout"`
	}

	schema, err := GenerateSchema(Config{})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(schema, &decoded))

	assert.Contains(t, string(schema), "server")
	assert.Contains(t, string(schema), "host")
	assert.Contains(t, string(schema), "timeout")
}

func TestGenerateDescriptorSchema(t *testing.T) {
	schema, err := GenerateDescriptorSchema()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(schema, &decoded))

	properties, ok := decoded["properties"].(map[string]interface{})
	require.True(t, ok, "properties should be a map")
	for _, field := range []string{"node_id", "operator_id", "source", "runtime", "build_dir", "search_paths", "outputs", "tracing"} {
		assert.Contains(t, properties, field)
	}

	required, ok := decoded["required"].([]interface{})
	require.True(t, ok, "required should be an array")
	assert.Contains(t, required, "node_id")
	assert.Contains(t, required, "source")
	assert.NotContains(t, required, "runtime")

	runtime, ok := properties["runtime"].(map[string]interface{})
	require.True(t, ok)
	assert.ElementsMatch(t, []interface{}{"script", "wasm"}, runtime["enum"])
}
