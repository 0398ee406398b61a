// Package flat provides an exact in-memory vector index.
// It implements the driven.VectorIndex interface.
//
// Vectors are L2-normalised on insert, so the inner product of two stored
// vectors is their cosine similarity. Search is a full scan; the index is
// rebuilt wholesale from persisted embeddings and never written to disk.
package flat
