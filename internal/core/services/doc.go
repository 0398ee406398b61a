// Package services implements the driving ports: chunking, embedding jobs,
// the vector index lifecycle, hybrid search, ingest and settings.
//
// Services depend only on domain types and driven ports, so every adapter
// can be swapped for an in-memory one in tests.
package services
