// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser knows how to extract text
// content from specific file types.
//
// Normalisers are registered with a Registry at startup.
package normalisers
