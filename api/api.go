// Package api contains the endpoint facades of the kontur-client API:
// accounts, payments, service catalog and loyalty program. Each facade maps
// one operation to one request through the shared pipeline; they carry no
// state, no retries and no caching of their own, so every failure surfaces
// with the pipeline's taxonomy intact.
package api

import "context"

// Requester is the slice of the request pipeline the facades need.
type Requester interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body any, out any) error
}
