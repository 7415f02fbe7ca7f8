// Package events re-exports the platform event bus and declares the
// domain events exchanged between the intake, scheduler and calls modules.
package events

import (
	platformevents "leadcall_backend/platform/events"
	"leadcall_backend/platform/logger"
)

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
