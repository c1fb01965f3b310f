package ports

import "github.com/reglet-dev/operator-host/domain/entities"

// DescriptorValidator checks an OperatorDescriptor before a session starts.
type DescriptorValidator interface {
	// Validate returns a *errors.ConfigError naming the first invalid field.
	Validate(descriptor *entities.OperatorDescriptor) error
}
