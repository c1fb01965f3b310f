package host

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/reglet-dev/operator-host/application/validation"
	"github.com/reglet-dev/operator-host/domain/entities"
	"github.com/reglet-dev/operator-host/domain/ports"
	"github.com/reglet-dev/operator-host/infrastructure/parser"
)

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	parser    ports.DescriptorParser
	validator ports.DescriptorValidator
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		parser:    parser.NewYamlDescriptorParser(),
		validator: validation.NewDescriptorValidator(),
	}
}

// Loader orchestrates the descriptor loading pipeline.
type Loader struct {
	config loaderConfig
}

// LoaderOption configures the Loader.
type LoaderOption func(*loaderConfig)

// WithParser sets a custom descriptor parser.
func WithParser(p ports.DescriptorParser) LoaderOption {
	return func(c *loaderConfig) {
		c.parser = p
	}
}

// WithValidator sets a custom descriptor validator.
func WithValidator(v ports.DescriptorValidator) LoaderOption {
	return func(c *loaderConfig) {
		c.validator = v
	}
}

// NewLoader creates a new Loader with defaults.
func NewLoader(opts ...LoaderOption) *Loader {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Loader{config: cfg}
}

// LoadDescriptor parses and validates a descriptor.
func (l *Loader) LoadDescriptor(raw []byte) (*entities.OperatorDescriptor, error) {
	d, err := l.config.parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := l.config.validator.Validate(d); err != nil {
		return nil, fmt.Errorf("invalid operator descriptor: %w", err)
	}
	return d, nil
}

// LoadFile reads a descriptor file. Relative local paths in it (source,
// build_dir, search_paths) are taken relative to the file's directory.
func (l *Loader) LoadFile(path string) (*entities.OperatorDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read operator descriptor: %w", err)
	}

	d, err := l.LoadDescriptor(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	if !d.Source.IsURL() {
		d.Source = entities.OperatorSource(relativeTo(base, d.Source.String()))
	}
	if d.BuildDir != "" {
		d.BuildDir = relativeTo(base, d.BuildDir)
	} else {
		d.BuildDir = filepath.Join(base, entities.DefaultBuildDir)
	}
	for i, p := range d.SearchPaths {
		d.SearchPaths[i] = relativeTo(base, p)
	}
	return d, nil
}

func relativeTo(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
