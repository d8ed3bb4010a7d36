// Package identity carries the caller of a request through its context.
//
// The server middleware builds an Identity for every request (request id,
// client address, user agent) and stores it in the request context. The
// aggregate service reads it back when it emits audit events.
//
//	ctx = identity.Set(ctx, id)
//	id, ok := identity.Get(ctx)
package identity
