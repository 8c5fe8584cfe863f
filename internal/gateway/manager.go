package gateway

import (
	"context"
	"fmt"
)

// Manager routes a method-tagged payment request to the registered adapter.
type Manager struct {
	gateways map[string]Gateway
}

func NewManager() *Manager {
	return &Manager{gateways: make(map[string]Gateway)}
}

func (m *Manager) Register(method string, gw Gateway) {
	m.gateways[method] = gw
}

func (m *Manager) Initiate(ctx context.Context, req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	gw, ok := m.gateways[req.Method]
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrMethodNotHandled, req.Method)
	}
	return gw.Initiate(ctx, req)
}
