// Package validation checks operator descriptors and guest-supplied maps
// against struct validation tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/operator-host/domain/entities"
	domainerrors "github.com/reglet-dev/operator-host/domain/errors"
)

// validate is a package-level singleton; building a validator caches struct
// metadata and is expensive.
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"yaml", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// DescriptorValidator implements ports.DescriptorValidator.
type DescriptorValidator struct{}

// NewDescriptorValidator creates a DescriptorValidator.
func NewDescriptorValidator() *DescriptorValidator {
	return &DescriptorValidator{}
}

// Validate implements ports.DescriptorValidator.
func (v *DescriptorValidator) Validate(descriptor *entities.OperatorDescriptor) error {
	return ValidateDescriptor(descriptor)
}

// ValidateDescriptor returns a *errors.ConfigError for the first field of the
// descriptor that fails its validation rule.
func ValidateDescriptor(descriptor *entities.OperatorDescriptor) error {
	if descriptor == nil {
		return &domainerrors.ConfigError{Err: errors.New("descriptor is nil")}
	}
	return toConfigError(validate.Struct(descriptor))
}

// ValidateMap decodes m into target through JSON and validates the result.
// Keys without a matching field are ignored.
func ValidateMap(m map[string]any, target any) error {
	raw, err := sonic.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal map: %w", err)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return &domainerrors.ConfigError{Err: fmt.Errorf("failed to decode map: %w", err)}
	}

	return toConfigError(validate.Struct(target))
}

func toConfigError(err error) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return &domainerrors.ConfigError{
			Field: fe.Field(),
			Err:   fmt.Errorf("failed on the '%s' rule", fe.Tag()),
		}
	}

	return &domainerrors.ConfigError{Err: err}
}
