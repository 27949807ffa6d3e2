// Package driven defines the secondary ports: interfaces the core services
// require from infrastructure. Adapters under internal/adapters/driven
// implement them.
package driven
