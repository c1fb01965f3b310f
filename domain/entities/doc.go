// Package entities provides the core domain types of the operator host:
// incoming and outgoing events, metadata, handler status codes, stop reasons
// and the operator descriptor. They carry no runtime dependencies.
package entities
