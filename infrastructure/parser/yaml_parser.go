// Package parser reads operator descriptor files.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/reglet-dev/operator-host/domain/entities"
	"github.com/reglet-dev/operator-host/domain/ports"
	"gopkg.in/yaml.v3"
)

// YamlDescriptorParser implements DescriptorParser for YAML. JSON input is
// accepted as a subset of YAML.
type YamlDescriptorParser struct{}

// NewYamlDescriptorParser creates a new YamlDescriptorParser.
func NewYamlDescriptorParser() ports.DescriptorParser {
	return &YamlDescriptorParser{}
}

// Parse unmarshals YAML bytes into an OperatorDescriptor. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func (p *YamlDescriptorParser) Parse(data []byte) (*entities.OperatorDescriptor, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var descriptor entities.OperatorDescriptor
	if err := dec.Decode(&descriptor); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty operator descriptor")
		}
		return nil, fmt.Errorf("failed to parse operator descriptor: %w", err)
	}
	return &descriptor, nil
}
