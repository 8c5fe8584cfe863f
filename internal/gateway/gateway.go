package gateway

import "context"

// Gateway is the common interface every payment provider adapter implements.
type Gateway interface {
	Initiate(ctx context.Context, req Request) (Response, error)
}
