// Package mcp provides an MCP (Model Context Protocol) server adapter for recall.
// It exposes hybrid, keyword and semantic search as tools so AI assistants
// can query stored conversations and documents.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
