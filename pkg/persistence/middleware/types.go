// Package middleware provides composable wrappers around the storage
// port: encryption at rest and PII masking. Middlewares stack in order,
// so Chain(PII, Encryption) masks first and encrypts the masked bytes.
package middleware

import "github.com/aretw0/roteiro/pkg/ports"

// Middleware allows wrapping a Storage to add behavior.
type Middleware func(ports.Storage) ports.Storage

// Chain composes middlewares. The first middleware is the outermost
// wrapper, seeing writes before the others.
func Chain(mws ...Middleware) Middleware {
	return func(next ports.Storage) ports.Storage {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
