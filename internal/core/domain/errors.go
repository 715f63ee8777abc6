package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed or invalid ingestion input.
	// The caller can recover by correcting the input.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedContentType indicates an unknown content kind.
	// No ingestion strategy is registered for it.
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrEmbedding indicates the embedding model call failed.
	// Not locally recoverable - embedding has no fallback.
	ErrEmbedding = errors.New("embedding failed")

	// ErrStore indicates a vector store write or read failed.
	ErrStore = errors.New("vector store operation failed")

	// ErrDimensionMismatch indicates two vectors of different lengths were
	// compared. This is a configuration error - vectors from mismatched models.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingestion and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrAnalyzerUnavailable indicates the content analyzer is not configured.
	// Callers substitute safe defaults; analysis is advisory, not structural.
	ErrAnalyzerUnavailable = errors.New("content analyzer unavailable")
)
