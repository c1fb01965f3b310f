package entities

import (
	"net/url"
	"path"
	"strings"
)

// RuntimeKind selects the guest runtime that hosts an operator.
type RuntimeKind string

const (
	// RuntimeScript hosts a JavaScript module.
	RuntimeScript RuntimeKind = "script"

	// RuntimeWasm hosts a compiled WebAssembly module.
	RuntimeWasm RuntimeKind = "wasm"
)

// DefaultBuildDir is where downloaded operator sources are stored.
const DefaultBuildDir = "build"

// OperatorDescriptor configures one hosted operator.
type OperatorDescriptor struct {
	// NodeID identifies the node hosting the operator.
	NodeID string `yaml:"node_id" json:"node_id" validate:"required,max=128,excludesall=/\\" jsonschema:"description=Node that hosts the operator"`

	// OperatorID identifies the operator within its node.
	OperatorID string `yaml:"operator_id" json:"operator_id" validate:"required,max=128,excludesall=/\\" jsonschema:"description=Operator id within the node"`

	// Source is a local path or a URL to the handler module.
	Source OperatorSource `yaml:"source" json:"source" validate:"required" jsonschema:"description=Local path or URL of the handler module"`

	// Runtime is inferred from the source extension when empty.
	Runtime RuntimeKind `yaml:"runtime,omitempty" json:"runtime,omitempty" validate:"omitempty,oneof=script wasm" jsonschema:"enum=script,enum=wasm"`

	// BuildDir receives downloaded sources. Defaults to DefaultBuildDir.
	BuildDir string `yaml:"build_dir,omitempty" json:"build_dir,omitempty"`

	// SearchPaths are extra module folders for script operators.
	SearchPaths []string `yaml:"search_paths,omitempty" json:"search_paths,omitempty" validate:"dive,required"`

	// Outputs restricts the output ids the handler may emit. Empty means any.
	Outputs []string `yaml:"outputs,omitempty" json:"outputs,omitempty" validate:"unique,dive,required"`

	// Tracing enables trace-context propagation through the handler.
	Tracing bool `yaml:"tracing,omitempty" json:"tracing,omitempty"`
}

// Kind returns the runtime kind, inferring it from the source extension.
func (d OperatorDescriptor) Kind() RuntimeKind {
	if d.Runtime != "" {
		return d.Runtime
	}
	p := string(d.Source)
	if d.Source.IsURL() {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	}
	if strings.EqualFold(path.Ext(p), ".wasm") {
		return RuntimeWasm
	}
	return RuntimeScript
}

// Extension is the file extension used for downloaded sources.
func (d OperatorDescriptor) Extension() string {
	if d.Kind() == RuntimeWasm {
		return ".wasm"
	}
	return ".js"
}

// ResolvedBuildDir returns BuildDir or its default.
func (d OperatorDescriptor) ResolvedBuildDir() string {
	if d.BuildDir == "" {
		return DefaultBuildDir
	}
	return d.BuildDir
}

// DeclaresOutput reports whether the handler may emit the given output id.
func (d OperatorDescriptor) DeclaresOutput(id string) bool {
	if len(d.Outputs) == 0 {
		return true
	}
	for _, o := range d.Outputs {
		if o == id {
			return true
		}
	}
	return false
}
