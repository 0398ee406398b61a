// Package driving defines what recall offers to its callers: search,
// chunking, embedding jobs, ingest and settings. The CLI, REST, MCP and TUI
// adapters depend on these interfaces and internal/core/services
// implements them.
package driving
