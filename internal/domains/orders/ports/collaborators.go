package ports

import "context"

// Agent is the subset of a delivery agent the orders context needs.
type Agent struct {
	ID        string
	Name      string
	Available bool
}

// AgentDirectory resolves delivery agents. Get returns an error wrapping
// failure.ErrNotFound for unknown agents.
type AgentDirectory interface {
	Get(ctx context.Context, agentID string) (*Agent, error)
}

// InventoryAdjuster decrements catalogue stock when a line item is accepted and
// returns the new stock level.
type InventoryAdjuster interface {
	OnAccept(ctx context.Context, storeID, productID string, quantity int) (int, error)
}
