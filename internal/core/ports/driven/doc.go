// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RecordStore: Canonical record persistence (SQLite or in-memory)
//   - LayoutRegistry: The closed set of recognised export layouts
//   - UploadParser: Decodes uploaded bytes into a RawUpload
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RecomputeHook: Derived analytics refreshed after a write that changed state.
//   - CacheObserver: Receives cache hit/miss/store events (Prometheus).
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or format package
package driven
