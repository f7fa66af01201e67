// Package ports defines the interfaces (ports) that external adapters must implement.
// The engines depend only on these; storage and identity adapters live in
// internal/infrastructure and internal/interfaces.
package ports
