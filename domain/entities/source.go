package entities

import "strings"

// OperatorSource is either a filesystem path or a URL naming a handler module.
type OperatorSource string

// IsURL reports whether the source must be downloaded before loading.
func (s OperatorSource) IsURL() bool {
	return strings.Contains(string(s), "://")
}

func (s OperatorSource) String() string {
	return string(s)
}
