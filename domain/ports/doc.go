// Package ports defines the interfaces between the operator session and its
// collaborators: guest runtimes, the artifact fetcher, the tracer and the
// descriptor parser. Infrastructure adapters implement them.
package ports
