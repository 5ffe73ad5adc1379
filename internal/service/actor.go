package service

import (
	"maliyet-backend/internal/model"

	"github.com/google/uuid"
)

// Actor identifies the authenticated caller of a mutating operation.
type Actor struct {
	ID       uuid.UUID
	Username string
	Role     string
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// EventPublisher pushes a serialized event to connected realtime clients.
// Implemented by the websocket hub; a nil publisher is a no-op.
type EventPublisher interface {
	Publish(message []byte)
}
