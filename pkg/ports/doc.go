/*
Package ports defines the driven ports (interfaces) for the roteiro engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with various storage backends without ever
checking what environment it runs in.

# Key Interfaces

  - Storage: key-value persistence for script data (steps, products, markers).
  - SessionStore: persistence for operator NavigationState.
  - Watchable: optional change notification for hot-reloading backends.
*/
package ports
