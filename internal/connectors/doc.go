// Package connectors holds the sources recall can pull documents from.
// Each connector turns an external location into files that the ingest
// service imports as documents.
package connectors
