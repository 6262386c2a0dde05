package broker

import (
	"fmt"

	"github.com/alloc33/market/internal/domain/models"
)

// Registry maps broker tags to clients. Populated once at startup,
// read-only afterwards.
type Registry struct {
	clients map[models.BrokerKind]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[models.BrokerKind]Client)}
}

// Register binds a client to a broker tag. Duplicate registration is a
// programming error.
func (r *Registry) Register(kind models.BrokerKind, c Client) error {
	if _, exists := r.clients[kind]; exists {
		return fmt.Errorf("broker %q already registered", kind)
	}
	r.clients[kind] = c
	return nil
}

// Resolve looks up the client for a broker tag. Pure map lookup, never a
// network call.
func (r *Registry) Resolve(kind models.BrokerKind) (Client, bool) {
	c, ok := r.clients[kind]
	return c, ok
}
