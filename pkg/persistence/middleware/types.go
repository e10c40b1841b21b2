// Package middleware wraps run stores with cross-cutting persistence behavior
// such as encryption at rest and redaction of sensitive outputs.
package middleware

import "github.com/aretw0/easel/pkg/ports"

// Middleware allows wrapping a RunStore to add behavior.
type Middleware func(ports.RunStore) ports.RunStore

// Chain wraps store with mws. The first middleware sees records first on Save.
func Chain(store ports.RunStore, mws ...Middleware) ports.RunStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
