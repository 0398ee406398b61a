// Package html extracts readable text from HTML documents using the
// golang.org/x/net/html parser. Script, style and head content is dropped
// and block elements become line breaks.
package html
