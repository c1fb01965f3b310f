package ports

import "github.com/reglet-dev/operator-host/domain/entities"

// DescriptorParser parses raw bytes into an OperatorDescriptor.
type DescriptorParser interface {
	// Parse unmarshals raw bytes into an OperatorDescriptor.
	Parse(data []byte) (*entities.OperatorDescriptor, error)
}
