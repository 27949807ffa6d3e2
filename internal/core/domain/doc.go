// Package domain defines the core entities of the conversation analyzer:
// chunks, categories, search results, reconstructed conversations and
// ingestion reports. It has no dependencies on adapters or services.
package domain
