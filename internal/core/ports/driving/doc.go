// Package driving defines the primary ports: the use-case interfaces the
// CLI drives. Services under internal/core/services implement them.
package driving
